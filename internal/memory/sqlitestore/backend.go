// Package sqlitestore provides a durable memory.Store backed by
// SQLite, storing embeddings as packed float32 BLOBs and scoring
// candidates with brute-force cosine similarity.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/haasonsaas/commander/internal/memory"
	"github.com/haasonsaas/commander/internal/types"
)

// Store implements memory.Store on top of a SQLite database.
type Store struct {
	db *sql.DB
}

// Config configures a Store.
type Config struct {
	// Path is the database file path, or ":memory:" for an ephemeral
	// store.
	Path string
}

// New opens (and migrates) a sqlite-backed memory store.
func New(cfg Config) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_memories_agent ON memories(agent_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate sqlite memory store: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// StoreMemory upserts m.
func (s *Store) StoreMemory(ctx context.Context, m *types.Memory) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (id, agent_id, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			content = excluded.content,
			embedding = excluded.embedding,
			created_at = excluded.created_at
	`, string(m.ID), m.AgentID, m.Content, encodeEmbedding(m.Embedding), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("store memory %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) query(ctx context.Context, where string, args ...any) ([]*types.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, content, embedding, created_at FROM memories `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var out []*types.Memory
	for rows.Next() {
		var m types.Memory
		var id string
		var blob []byte
		if err := rows.Scan(&id, &m.AgentID, &m.Content, &blob, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		m.ID = types.MemoryID(id)
		m.Embedding = decodeEmbedding(blob)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func rank(candidates []*types.Memory, embedding []float32, k int) []memory.Result {
	results := make([]memory.Result, 0, len(candidates))
	for _, m := range candidates {
		results = append(results, memory.Result{Memory: m, Score: cosineSimilarity(embedding, m.Embedding)})
	}
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// Search finds the k most similar memories belonging to agentID.
func (s *Store) Search(ctx context.Context, embedding []float32, agentID string, k int) ([]memory.Result, error) {
	candidates, err := s.query(ctx, "WHERE agent_id = ?", agentID)
	if err != nil {
		return nil, err
	}
	return rank(candidates, embedding, k), nil
}

// SearchAll finds the k most similar memories across every agent.
func (s *Store) SearchAll(ctx context.Context, embedding []float32, k int) ([]memory.Result, error) {
	candidates, err := s.query(ctx, "")
	if err != nil {
		return nil, err
	}
	return rank(candidates, embedding, k), nil
}

// Get retrieves a memory by ID, or (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, id types.MemoryID) (*types.Memory, error) {
	matches, err := s.query(ctx, "WHERE id = ?", string(id))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// Delete removes a memory by ID. Deleting an absent ID is not an error.
func (s *Store) Delete(ctx context.Context, id types.MemoryID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete memory %s: %w", id, err)
	}
	return nil
}

// List returns up to k memories belonging to agentID, unordered by
// similarity.
func (s *Store) List(ctx context.Context, agentID string, k int) ([]*types.Memory, error) {
	if k > 0 {
		return s.query(ctx, "WHERE agent_id = ? LIMIT ?", agentID, k)
	}
	return s.query(ctx, "WHERE agent_id = ?", agentID)
}

// Count returns the number of memories belonging to agentID.
func (s *Store) Count(ctx context.Context, agentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE agent_id = ?`, agentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}

// ClearAgent deletes every memory belonging to agentID.
func (s *Store) ClearAgent(ctx context.Context, agentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE agent_id = ?`, agentID); err != nil {
		return fmt.Errorf("clear agent memories: %w", err)
	}
	return nil
}

// encodeEmbedding packs a []float32 into a little-endian byte BLOB.
func encodeEmbedding(embedding []float32) []byte {
	if len(embedding) == 0 {
		return nil
	}
	data := make([]byte, len(embedding)*4)
	for i, f := range embedding {
		bits := math.Float32bits(f)
		data[i*4] = byte(bits)
		data[i*4+1] = byte(bits >> 8)
		data[i*4+2] = byte(bits >> 16)
		data[i*4+3] = byte(bits >> 24)
	}
	return data
}

// decodeEmbedding unpacks a little-endian byte BLOB into a []float32.
func decodeEmbedding(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	embedding := make([]float32, len(data)/4)
	for i := range embedding {
		bits := uint32(data[i*4]) |
			uint32(data[i*4+1])<<8 |
			uint32(data[i*4+2])<<16 |
			uint32(data[i*4+3])<<24
		embedding[i] = math.Float32frombits(bits)
	}
	return embedding
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ memory.Store = (*Store)(nil)
