package frontend

import (
	"fmt"

	"github.com/haasonsaas/commander/internal/store"
	"github.com/haasonsaas/commander/internal/types"
)

// StoreDirectory adapts the persistence façade to the command
// handlers' ProjectDirectory.
type StoreDirectory struct {
	store *store.Store
}

// NewStoreDirectory wraps a store.
func NewStoreDirectory(st *store.Store) *StoreDirectory {
	return &StoreDirectory{store: st}
}

// List returns every persisted project.
func (d *StoreDirectory) List() ([]*types.Project, error) {
	projects, err := d.store.LoadProjects()
	if err != nil {
		return nil, err
	}
	out := make([]*types.Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, p)
	}
	return out, nil
}

// FindByName returns the project with the given display name.
func (d *StoreDirectory) FindByName(name string) (*types.Project, error) {
	projects, err := d.store.LoadProjects()
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if p.DisplayName == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("project %q: %w", name, store.ErrNotFound)
}

// Create persists a new project.
func (d *StoreDirectory) Create(path, name, adapter string) (*types.Project, error) {
	if existing, err := d.FindByName(name); err == nil {
		return nil, fmt.Errorf("project %q already exists at %s", name, existing.Path)
	}
	p := types.NewProject(path, name, adapter)
	if err := d.store.SaveProject(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Rename updates a project's display name.
func (d *StoreDirectory) Rename(oldName, newName string) error {
	p, err := d.FindByName(oldName)
	if err != nil {
		return err
	}
	p.DisplayName = newName
	p.Touch()
	return d.store.SaveProject(p)
}

var _ ProjectDirectory = (*StoreDirectory)(nil)
