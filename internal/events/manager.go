// Package events is the concurrent pub/sub event manager:
// an in-memory cache over the persistence store, a subscriber list of
// channels, and write-through emit/acknowledge/resolve operations.
package events

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/haasonsaas/commander/internal/observability"
	"github.com/haasonsaas/commander/internal/store"
	"github.com/haasonsaas/commander/internal/types"
)

// subscriberBuffer is each subscriber channel's capacity. A subscriber
// that falls further behind than this starts dropping events rather
// than blocking emission.
const subscriberBuffer = 64

// ErrNotFound reports an operation on an unknown event ID.
var ErrNotFound = errors.New("event not found")

// InvalidStateError reports a lifecycle transition the event's current
// status does not allow.
type InvalidStateError struct{ Message string }

func (e *InvalidStateError) Error() string { return "invalid event state: " + e.Message }

// EventStore is the slice of the persistence façade the manager needs.
type EventStore interface {
	SaveEvent(e *types.Event) error
	LoadEvent(projectID types.ProjectID, id types.EventID) (*types.Event, error)
	ListEvents(projectID types.ProjectID) ([]*types.Event, error)
}

// Filter selects events in List. A nil Filter matches everything.
type Filter func(*types.Event) bool

// ByProject matches events belonging to one project.
func ByProject(id types.ProjectID) Filter {
	return func(e *types.Event) bool { return e.ProjectID == id }
}

// ByStatus matches events with the given status.
func ByStatus(status types.EventStatusState) Filter {
	return func(e *types.Event) bool { return e.Status == status }
}

// Blocking matches unresolved error and decision-needed events.
func Blocking() Filter {
	return func(e *types.Event) bool { return e.IsBlocking() }
}

// Manager is the shared pub/sub event manager. Readers and writers of
// the cache and subscriber list proceed under a multiple-reader,
// single-writer discipline; the persistence write always happens
// before any subscriber observes the event.
type Manager struct {
	store   EventStore
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.RWMutex
	events map[types.EventID]*types.Event

	subMu sync.RWMutex
	subs  []chan types.Event
}

// NewManager creates a Manager over the given store.
func NewManager(st EventStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  st,
		logger: logger,
		events: make(map[types.EventID]*types.Event),
	}
}

// SetMetrics attaches optional Prometheus collectors.
func (m *Manager) SetMetrics(metrics *observability.Metrics) { m.metrics = metrics }

// LoadProject warms the cache with a project's persisted events.
func (m *Manager) LoadProject(projectID types.ProjectID) error {
	events, err := m.store.ListEvents(projectID)
	if err != nil {
		return fmt.Errorf("load events for %s: %w", projectID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events[e.ID] = e
	}
	return nil
}

// Subscribe registers a new subscriber and returns its receive
// channel. The channel is buffered; a subscriber that stops draining
// loses events rather than blocking emitters; it stays registered
// until Unsubscribe removes it, since a full buffer is not pruned.
func (m *Manager) Subscribe() <-chan types.Event {
	ch := make(chan types.Event, subscriberBuffer)
	m.subMu.Lock()
	m.subs = append(m.subs, ch)
	m.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (m *Manager) Unsubscribe(ch <-chan types.Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for i, sub := range m.subs {
		if sub == ch {
			close(sub)
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

// Emit persists the event, inserts it into the cache, and broadcasts
// it to subscribers. The store write happens before any subscriber can
// observe the event.
func (m *Manager) Emit(e *types.Event) (types.EventID, error) {
	if err := m.store.SaveEvent(e); err != nil {
		return "", fmt.Errorf("persist event: %w", err)
	}

	m.mu.Lock()
	m.events[e.ID] = e
	m.mu.Unlock()

	m.metrics.EventEmitted(string(e.Type))
	m.broadcast(*e)
	return e.ID, nil
}

// broadcast delivers the event to every subscriber without blocking.
// A subscriber whose buffer is full misses this event; the slow
// delivery is logged but emission never stalls.
func (m *Manager) broadcast(e types.Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for _, sub := range m.subs {
		select {
		case sub <- e:
		default:
			m.logger.Warn("dropping event for slow subscriber", "event_id", e.ID)
		}
	}
}

// Get returns an event from the cache, or nil if uncached.
func (m *Manager) Get(id types.EventID) *types.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.events[id]; ok {
		clone := *e
		return &clone
	}
	return nil
}

// GetFromStore returns an event, reading through to the store on a
// cache miss and warming the cache on the way back. A missing event
// is (nil, nil).
func (m *Manager) GetFromStore(projectID types.ProjectID, id types.EventID) (*types.Event, error) {
	if e := m.Get(id); e != nil {
		return e, nil
	}

	e, err := m.store.LoadEvent(projectID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.events[e.ID] = e
	m.mu.Unlock()

	clone := *e
	return &clone, nil
}

// List returns cached events matching filter, newest first.
func (m *Manager) List(filter Filter) []*types.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*types.Event
	for _, e := range m.events {
		if filter == nil || filter(e) {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Acknowledge marks an event as seen but not resolved. Acknowledging a
// resolved event fails with InvalidStateError.
func (m *Manager) Acknowledge(id types.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if e.Status == types.EventResolved {
		return &InvalidStateError{Message: "event already resolved"}
	}

	e.Status = types.EventAcknowledged
	return m.store.SaveEvent(e)
}

// Resolve marks an event resolved with a response, stamping the
// response time.
func (m *Manager) Resolve(id types.EventID, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	now := time.Now()
	e.Status = types.EventResolved
	e.Response = response
	e.ResponseAt = &now

	if err := m.store.SaveEvent(e); err != nil {
		return err
	}
	m.metrics.EventResolved()
	return nil
}

// ClearCache empties the in-memory cache without touching storage.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[types.EventID]*types.Event)
}
