// Package workqueue is the concurrent priority work queue with
// dependency tracking: a max-heap ordered by (priority desc,
// created_at asc), an items map, and a completed-set that unblocks
// dependents. Failed items never unblock anything.
package workqueue

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/haasonsaas/commander/internal/observability"
	"github.com/haasonsaas/commander/internal/types"
)

// ErrNotFound reports an operation on an unknown work ID.
var ErrNotFound = errors.New("work item not found")

// InvalidStateError reports a lifecycle transition the item's current
// state does not allow.
type InvalidStateError struct{ Message string }

func (e *InvalidStateError) Error() string { return "invalid work state: " + e.Message }

// WorkStore is the slice of the persistence façade the queue needs.
type WorkStore interface {
	SaveWork(w *types.WorkItem) error
	ListWork(projectID types.ProjectID) ([]*types.WorkItem, error)
}

// Filter selects work items in List. A nil Filter matches everything.
type Filter func(*types.WorkItem) bool

// ByState matches items in the given state.
func ByState(state types.WorkState) Filter {
	return func(w *types.WorkItem) bool { return w.State == state }
}

// prioritizedWork is the heap element: the ordering key copied out of
// the item so reprioritizing an item in the map never corrupts the
// heap invariant.
type prioritizedWork struct {
	priority  types.Priority
	createdAt time.Time
	item      *types.WorkItem
}

// workHeap is a max-heap: highest priority first, earliest creation
// first within a priority band.
type workHeap []*prioritizedWork

func (h workHeap) Len() int { return len(h) }

func (h workHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].createdAt.Before(h[j].createdAt)
}

func (h workHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *workHeap) Push(x any) { *h = append(*h, x.(*prioritizedWork)) }

func (h *workHeap) Pop() any {
	old := *h
	n := len(old)
	pw := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return pw
}

// Queue is a thread-safe priority work queue. All state lives behind a
// single exclusive lock; critical sections are short and never span a
// store write for reads, and dequeue's queued-to-in-progress
// transition is atomic under the lock.
type Queue struct {
	store   WorkStore
	metrics *observability.Metrics

	mu        sync.Mutex
	heap      workHeap
	items     map[types.WorkID]*types.WorkItem
	completed map[types.WorkID]struct{}
}

// NewQueue creates a Queue over the given store.
func NewQueue(st WorkStore) *Queue {
	return &Queue{
		store:     st,
		items:     make(map[types.WorkID]*types.WorkItem),
		completed: make(map[types.WorkID]struct{}),
	}
}

// SetMetrics attaches optional Prometheus collectors.
func (q *Queue) SetMetrics(metrics *observability.Metrics) { q.metrics = metrics }

// canStart reports whether every dependency of w is completed.
func (q *Queue) canStart(w *types.WorkItem) bool {
	for _, dep := range w.DependsOn {
		if _, ok := q.completed[dep]; !ok {
			return false
		}
	}
	return true
}

// LoadProject pulls a project's persisted items into the queue:
// Pending/Queued items join the heap, Completed items join the
// completed-set, everything lands in the items map.
func (q *Queue) LoadProject(projectID types.ProjectID) error {
	items, err := q.store.ListWork(projectID)
	if err != nil {
		return fmt.Errorf("load work for %s: %w", projectID, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range items {
		switch item.State {
		case types.WorkPending, types.WorkQueued:
			heap.Push(&q.heap, &prioritizedWork{priority: item.Priority, createdAt: item.CreatedAt, item: item})
		case types.WorkCompleted:
			q.completed[item.ID] = struct{}{}
		}
		q.items[item.ID] = item
	}
	return nil
}

// Enqueue forces the item into the Queued state, persists it, and adds
// it to the queue. Returns the item's ID.
func (q *Queue) Enqueue(item *types.WorkItem) (types.WorkID, error) {
	item.State = types.WorkQueued
	item.UpdatedAt = time.Now()

	if err := q.store.SaveWork(item); err != nil {
		return "", fmt.Errorf("persist work item: %w", err)
	}

	q.mu.Lock()
	q.items[item.ID] = item
	heap.Push(&q.heap, &prioritizedWork{priority: item.Priority, createdAt: item.CreatedAt, item: item})
	q.mu.Unlock()

	q.metrics.WorkItemEnqueued(item.Priority.String())
	return item.ID, nil
}

// Dequeue removes and returns the highest-priority ready item, marking
// it InProgress. An item is ready when every dependency is in the
// completed-set. Items popped past while searching are pushed back.
// Returns nil when nothing is ready.
func (q *Queue) Dequeue() *types.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	var blocked []*prioritizedWork
	for q.heap.Len() > 0 {
		pw := heap.Pop(&q.heap).(*prioritizedWork)
		if !q.canStart(pw.item) {
			blocked = append(blocked, pw)
			continue
		}

		item := pw.item
		item.State = types.WorkInProgress
		item.UpdatedAt = time.Now()
		q.items[item.ID] = item

		// Best effort: the in-memory transition is authoritative for
		// the queue; a failed persist surfaces on the next write.
		_ = q.store.SaveWork(item)

		for _, b := range blocked {
			heap.Push(&q.heap, b)
		}
		clone := *item
		return &clone
	}

	for _, b := range blocked {
		heap.Push(&q.heap, b)
	}
	return nil
}

// Peek returns a clone of the highest-priority ready item without
// removing it, or nil when nothing is ready.
func (q *Queue) Peek() *types.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	var best *prioritizedWork
	for _, pw := range q.heap {
		if !q.canStart(pw.item) {
			continue
		}
		if best == nil || pwLess(best, pw) {
			best = pw
		}
	}
	if best == nil {
		return nil
	}
	clone := *best.item
	return &clone
}

// pwLess reports whether b outranks a in dequeue order.
func pwLess(a, b *prioritizedWork) bool {
	if a.priority != b.priority {
		return b.priority > a.priority
	}
	return b.createdAt.Before(a.createdAt)
}

// Get returns a clone of a work item by ID, or nil.
func (q *Queue) Get(id types.WorkID) *types.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	if item, ok := q.items[id]; ok {
		clone := *item
		return &clone
	}
	return nil
}

// Complete marks an InProgress item Completed, adds it to the
// completed-set, and persists it.
func (q *Queue) Complete(id types.WorkID) error {
	return q.completeWith(id, "")
}

// CompleteWithResult is Complete plus a result string on the item.
func (q *Queue) CompleteWithResult(id types.WorkID, result string) error {
	return q.completeWith(id, result)
}

func (q *Queue) completeWith(id types.WorkID, result string) error {
	q.mu.Lock()
	item, ok := q.items[id]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.State != types.WorkInProgress {
		state := item.State
		q.mu.Unlock()
		return &InvalidStateError{Message: fmt.Sprintf("cannot complete item in %s state", state)}
	}

	now := time.Now()
	item.State = types.WorkCompleted
	item.Result = result
	item.UpdatedAt = now
	item.CompletedAt = now
	q.completed[id] = struct{}{}
	clone := *item
	q.mu.Unlock()

	if err := q.store.SaveWork(&clone); err != nil {
		return err
	}
	q.metrics.WorkItemCompleted()
	return nil
}

// Fail marks an InProgress item Failed. Failed items do not join the
// completed-set and so never unblock dependents.
func (q *Queue) Fail(id types.WorkID, errMsg string) error {
	q.mu.Lock()
	item, ok := q.items[id]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if item.State != types.WorkInProgress {
		state := item.State
		q.mu.Unlock()
		return &InvalidStateError{Message: fmt.Sprintf("cannot fail item in %s state", state)}
	}

	item.State = types.WorkFailed
	item.Error = errMsg
	item.UpdatedAt = time.Now()
	clone := *item
	q.mu.Unlock()

	if err := q.store.SaveWork(&clone); err != nil {
		return err
	}
	q.metrics.WorkItemFailed()
	return nil
}

// List returns clones of items matching filter, sorted by priority
// descending then creation time ascending.
func (q *Queue) List(filter Filter) []*types.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*types.WorkItem
	for _, item := range q.items {
		if filter == nil || filter(item) {
			clone := *item
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ReadyItems returns clones of every queued item whose dependencies
// are met, without removing anything.
func (q *Queue) ReadyItems() []*types.WorkItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*types.WorkItem
	for _, pw := range q.heap {
		if q.canStart(pw.item) {
			clone := *pw.item
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of items currently in the heap.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}
