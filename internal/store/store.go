// Package store is the persistence façade: typed load/save for
// projects, sessions, events, work items and notifications over a
// JSON-file layout rooted at the state directory. Callers treat it as
// an opaque store returning typed records.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/haasonsaas/commander/internal/types"
)

// EnvStateDir overrides the default state directory root.
const EnvStateDir = "COMMANDER_STATE_DIR"

// ErrNotFound reports a load for a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Store reads and writes typed records under a single root directory.
// Writes go through a temp-file rename so a crash never leaves a
// half-written record behind.
type Store struct {
	mu   sync.Mutex
	root string
}

// DefaultRoot resolves the state root: $COMMANDER_STATE_DIR if set,
// else ~/.ai-commander.
func DefaultRoot() (string, error) {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".ai-commander"), nil
}

// New creates a Store rooted at dir, creating the directory layout
// (state/, state/sessions/, db/, logs/, config/, cache/) if absent.
func New(dir string) (*Store, error) {
	for _, sub := range []string{
		filepath.Join(dir, "state", "sessions"),
		filepath.Join(dir, "state", "events"),
		filepath.Join(dir, "state", "work"),
		filepath.Join(dir, "db"),
		filepath.Join(dir, "logs"),
		filepath.Join(dir, "config"),
		filepath.Join(dir, "cache"),
	} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory %s: %w", sub, err)
		}
	}
	return &Store{root: dir}, nil
}

// Root returns the state root directory.
func (s *Store) Root() string { return s.root }

// StatePath returns the path of a file under state/.
func (s *Store) StatePath(name string) string {
	return filepath.Join(s.root, "state", name)
}

// DBPath returns the path of a file under db/.
func (s *Store) DBPath(name string) string {
	return filepath.Join(s.root, "db", name)
}

// writeJSON marshals v and atomically replaces path with it.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readJSON unmarshals path into v, mapping fs.ErrNotExist to
// ErrNotFound.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) projectsPath() string { return s.StatePath("projects.json") }

// LoadProjects returns every persisted project, keyed by ID. A missing
// projects file is an empty map, not an error.
func (s *Store) LoadProjects() (map[types.ProjectID]*types.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := map[types.ProjectID]*types.Project{}
	err := readJSON(s.projectsPath(), &projects)
	if errors.Is(err, ErrNotFound) {
		return projects, nil
	}
	return projects, err
}

// SaveProject upserts one project in the projects file.
func (s *Store) SaveProject(p *types.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := map[types.ProjectID]*types.Project{}
	if err := readJSON(s.projectsPath(), &projects); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	projects[p.ID] = p
	return writeJSON(s.projectsPath(), projects)
}

// LoadProject returns one project by ID, or ErrNotFound.
func (s *Store) LoadProject(id types.ProjectID) (*types.Project, error) {
	projects, err := s.LoadProjects()
	if err != nil {
		return nil, err
	}
	p, ok := projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// DeleteProject removes one project from the projects file. Deleting
// an absent project is not an error.
func (s *Store) DeleteProject(id types.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := map[types.ProjectID]*types.Project{}
	if err := readJSON(s.projectsPath(), &projects); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	delete(projects, id)
	return writeJSON(s.projectsPath(), projects)
}

func (s *Store) sessionPath(id types.SessionID) string {
	return s.StatePath(filepath.Join("sessions", sanitize(string(id))+".json"))
}

// SaveSession persists one tool session record under state/sessions/.
func (s *Store) SaveSession(sess *types.ToolSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.sessionPath(sess.ID), sess)
}

// LoadSession returns one session record, or ErrNotFound.
func (s *Store) LoadSession(id types.SessionID) (*types.ToolSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess types.ToolSession
	if err := readJSON(s.sessionPath(id), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns every persisted session record.
func (s *Store) ListSessions() ([]*types.ToolSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.StatePath("sessions")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []*types.ToolSession
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var sess types.ToolSession
		if err := readJSON(filepath.Join(dir, e.Name()), &sess); err != nil {
			return nil, err
		}
		sessions = append(sessions, &sess)
	}
	return sessions, nil
}

// DeleteSession removes one session record. Deleting an absent session
// is not an error.
func (s *Store) DeleteSession(id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.sessionPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) eventPath(projectID types.ProjectID, id types.EventID) string {
	return s.StatePath(filepath.Join("events", sanitize(string(projectID)), sanitize(string(id))+".json"))
}

// SaveEvent persists one event under its project's event directory.
func (s *Store) SaveEvent(e *types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.eventPath(e.ProjectID, e.ID), e)
}

// LoadEvent returns one event by project and ID, or ErrNotFound.
func (s *Store) LoadEvent(projectID types.ProjectID, id types.EventID) (*types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e types.Event
	if err := readJSON(s.eventPath(projectID, id), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEvents returns every event persisted for a project, sorted by
// creation time ascending.
func (s *Store) ListEvents(projectID types.ProjectID) ([]*types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []*types.Event
	err := s.listDir(filepath.Join("events", sanitize(string(projectID))), func(path string) error {
		var e types.Event
		if err := readJSON(path, &e); err != nil {
			return err
		}
		events = append(events, &e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, nil
}

func (s *Store) workPath(projectID types.ProjectID, id types.WorkID) string {
	return s.StatePath(filepath.Join("work", sanitize(string(projectID)), sanitize(string(id))+".json"))
}

// SaveWork persists one work item under its project's work directory.
func (s *Store) SaveWork(w *types.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.workPath(w.ProjectID, w.ID), w)
}

// LoadWork returns one work item by project and ID, or ErrNotFound.
func (s *Store) LoadWork(projectID types.ProjectID, id types.WorkID) (*types.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var w types.WorkItem
	if err := readJSON(s.workPath(projectID, id), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWork returns every work item persisted for a project, sorted by
// creation time ascending.
func (s *Store) ListWork(projectID types.ProjectID) ([]*types.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*types.WorkItem
	err := s.listDir(filepath.Join("work", sanitize(string(projectID))), func(path string) error {
		var w types.WorkItem
		if err := readJSON(path, &w); err != nil {
			return err
		}
		items = append(items, &w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (s *Store) listDir(rel string, visit func(path string) error) error {
	dir := s.StatePath(rel)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := visit(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// sanitize maps an ID to a filesystem-safe name.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, id)
}
