package notify

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	// PairingCodeLength is the length of minted codes.
	PairingCodeLength = 6
	// pairingAlphabet is uppercase alphanumerics without the
	// ambiguous 0O1I.
	pairingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// PairingTTL is how long a minted code stays consumable.
	PairingTTL = 5 * time.Minute
)

var (
	// ErrCodeNotFound reports consumption of an unknown or
	// already-consumed code.
	ErrCodeNotFound = errors.New("pairing code not found")
	// ErrCodeExpired reports consumption past the code's TTL.
	ErrCodeExpired = errors.New("pairing code expired")
)

// PairingRecord binds a one-shot code to a project and session.
type PairingRecord struct {
	Code        string    `json:"code"`
	ProjectName string    `json:"project_name"`
	SessionName string    `json:"session_name"`
	IssuedAt    time.Time `json:"issued_at"`
}

// IsExpired reports whether the record is past its TTL.
func (r *PairingRecord) IsExpired() bool {
	return time.Since(r.IssuedAt) > PairingTTL
}

type pairingData struct {
	Version  int              `json:"version"`
	Pairings []*PairingRecord `json:"pairings"`
}

// PairingStore mints and consumes one-shot pairing codes over a shared
// JSON file, so one process (the TUI) can hand authorization to
// another (the chat-messenger backend).
type PairingStore struct {
	mu   sync.Mutex
	path string
}

// NewPairingStore creates a PairingStore over the given file path,
// conventionally state/pairings.json.
func NewPairingStore(path string) *PairingStore {
	return &PairingStore{path: path}
}

func (s *PairingStore) load() (*pairingData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &pairingData{Version: 1}, nil
		}
		return nil, err
	}
	var data pairingData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal pairings: %w", err)
	}
	return &data, nil
}

func (s *PairingStore) save(data *pairingData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// generateCode mints a random code from the unambiguous alphabet.
func generateCode() (string, error) {
	b := make([]byte, PairingCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := make([]byte, PairingCodeLength)
	for i := range b {
		code[i] = pairingAlphabet[int(b[i])%len(pairingAlphabet)]
	}
	return string(code), nil
}

// Mint creates a pairing record for (projectName, sessionName), writes
// it to the shared file, and returns the code. Expired records are
// pruned in the same write.
func (s *PairingStore) Mint(projectName, sessionName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate pairing code: %w", err)
	}

	kept := data.Pairings[:0]
	for _, r := range data.Pairings {
		if !r.IsExpired() {
			kept = append(kept, r)
		}
	}
	data.Pairings = append(kept, &PairingRecord{
		Code:        code,
		ProjectName: projectName,
		SessionName: sessionName,
		IssuedAt:    time.Now(),
	})

	if err := s.save(data); err != nil {
		return "", err
	}
	return code, nil
}

// Consume validates a code (case-insensitive), enforces the TTL,
// deletes the record, and returns its project and session names. A
// code is consumable exactly once: the second consumption returns
// ErrCodeNotFound, an expired code ErrCodeExpired.
func (s *PairingStore) Consume(code string) (projectName, sessionName string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", "", err
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))
	for i, r := range data.Pairings {
		if r.Code != normalized {
			continue
		}

		// One-shot: the record is removed whether it is consumed or
		// expired.
		data.Pairings = append(data.Pairings[:i], data.Pairings[i+1:]...)
		if saveErr := s.save(data); saveErr != nil {
			return "", "", saveErr
		}

		if r.IsExpired() {
			return "", "", ErrCodeExpired
		}
		return r.ProjectName, r.SessionName, nil
	}

	return "", "", ErrCodeNotFound
}
