package events

import (
	"sync"
	"testing"
	"time"

	"github.com/haasonsaas/commander/internal/store"
	"github.com/haasonsaas/commander/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	return NewManager(st, nil), st
}

func TestEmitPersistsAndCaches(t *testing.T) {
	m, st := newTestManager(t)

	e := types.NewEvent(types.NewProjectID(), types.EventStatus, "session started")
	id, err := m.Emit(e)
	require.NoError(t, err)
	assert.Equal(t, e.ID, id)

	cached := m.Get(id)
	require.NotNil(t, cached)
	assert.Equal(t, "session started", cached.Summary)

	persisted, err := st.LoadEvent(e.ProjectID, id)
	require.NoError(t, err)
	assert.Equal(t, "session started", persisted.Summary)
}

func TestSubscribeReceivesEmittedEvents(t *testing.T) {
	m, _ := newTestManager(t)

	ch := m.Subscribe()
	e := types.NewEvent(types.NewProjectID(), types.EventError, "panic in worker")
	_, err := m.Emit(e)
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, e.ID, got.ID)
		assert.Equal(t, types.EventError, got.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}
}

func TestSlowSubscriberDoesNotBlockEmit(t *testing.T) {
	m, _ := newTestManager(t)

	// Never drained: fills up and starts dropping.
	_ = m.Subscribe()

	projectID := types.NewProjectID()
	for i := 0; i < subscriberBuffer+10; i++ {
		_, err := m.Emit(types.NewEvent(projectID, types.EventInfo, "tick"))
		require.NoError(t, err)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	m, _ := newTestManager(t)

	ch := m.Subscribe()
	m.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Emitting after unsubscribe must not panic.
	_, err := m.Emit(types.NewEvent(types.NewProjectID(), types.EventInfo, "after"))
	require.NoError(t, err)
}

func TestAcknowledgeAndResolveLifecycle(t *testing.T) {
	m, _ := newTestManager(t)

	e := types.NewEvent(types.NewProjectID(), types.EventDecisionNeeded, "pick a database")
	_, err := m.Emit(e)
	require.NoError(t, err)

	require.NoError(t, m.Acknowledge(e.ID))
	assert.Equal(t, types.EventAcknowledged, m.Get(e.ID).Status)

	require.NoError(t, m.Resolve(e.ID, "use sqlite"))
	resolved := m.Get(e.ID)
	assert.Equal(t, types.EventResolved, resolved.Status)
	assert.Equal(t, "use sqlite", resolved.Response)
	require.NotNil(t, resolved.ResponseAt)

	// Resolved events cannot be re-acknowledged.
	err = m.Acknowledge(e.ID)
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
}

func TestAcknowledgeUnknownEvent(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.Acknowledge(types.NewEventID()), ErrNotFound)
}

func TestListSortedNewestFirst(t *testing.T) {
	m, _ := newTestManager(t)

	projectID := types.NewProjectID()
	older := types.NewEvent(projectID, types.EventInfo, "older")
	newer := types.NewEvent(projectID, types.EventInfo, "newer")
	newer.CreatedAt = older.CreatedAt.Add(time.Second)
	_, err := m.Emit(older)
	require.NoError(t, err)
	_, err = m.Emit(newer)
	require.NoError(t, err)

	listed := m.List(ByProject(projectID))
	require.Len(t, listed, 2)
	assert.Equal(t, "newer", listed[0].Summary)
	assert.Equal(t, "older", listed[1].Summary)
}

func TestListBlockingFilter(t *testing.T) {
	m, _ := newTestManager(t)

	projectID := types.NewProjectID()
	errEvent := types.NewEvent(projectID, types.EventError, "broken")
	info := types.NewEvent(projectID, types.EventInfo, "fine")
	_, err := m.Emit(errEvent)
	require.NoError(t, err)
	_, err = m.Emit(info)
	require.NoError(t, err)

	blocking := m.List(Blocking())
	require.Len(t, blocking, 1)
	assert.Equal(t, "broken", blocking[0].Summary)

	require.NoError(t, m.Resolve(errEvent.ID, "fixed"))
	assert.Empty(t, m.List(Blocking()))
}

func TestLoadProjectWarmsCache(t *testing.T) {
	m, st := newTestManager(t)

	projectID := types.NewProjectID()
	e := types.NewEvent(projectID, types.EventStatus, "persisted earlier")
	require.NoError(t, st.SaveEvent(e))

	assert.Nil(t, m.Get(e.ID))
	require.NoError(t, m.LoadProject(projectID))
	assert.NotNil(t, m.Get(e.ID))
}

func TestGetFromStoreReadsThrough(t *testing.T) {
	m, st := newTestManager(t)

	projectID := types.NewProjectID()
	e := types.NewEvent(projectID, types.EventStatus, "cold")
	require.NoError(t, st.SaveEvent(e))

	got, err := m.GetFromStore(projectID, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	// Warmed into the cache.
	assert.NotNil(t, m.Get(e.ID))

	missing, err := m.GetFromStore(projectID, types.NewEventID())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClearCacheKeepsStorage(t *testing.T) {
	m, st := newTestManager(t)

	e := types.NewEvent(types.NewProjectID(), types.EventStatus, "kept on disk")
	_, err := m.Emit(e)
	require.NoError(t, err)

	m.ClearCache()
	assert.Nil(t, m.Get(e.ID))

	persisted, err := st.LoadEvent(e.ProjectID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept on disk", persisted.Summary)
}

func TestConcurrentEmitAndList(t *testing.T) {
	m, _ := newTestManager(t)
	projectID := types.NewProjectID()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := m.Emit(types.NewEvent(projectID, types.EventInfo, "concurrent"))
				assert.NoError(t, err)
				m.List(ByProject(projectID))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, m.List(ByProject(projectID)), 160)
}
