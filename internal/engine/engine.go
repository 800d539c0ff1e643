// Package engine ties the supervision plane together: per-session
// agents observing multiplexer output through the change detector and
// adaptive poller, the event manager surfacing notifications, and the
// work queue feeding the coordinator.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/haasonsaas/commander/internal/events"
	"github.com/haasonsaas/commander/internal/observability"
	"github.com/haasonsaas/commander/internal/sessionagent"
	"github.com/haasonsaas/commander/internal/types"
	"github.com/haasonsaas/commander/internal/useragent"
	"github.com/haasonsaas/commander/internal/workqueue"
)

// Mux is the multiplexer slice the engine's supervision loop needs.
type Mux interface {
	SessionExists(ctx context.Context, name string) bool
	CaptureOutput(ctx context.Context, session, pane string, lastN int) (string, error)
	SendLine(ctx context.Context, session, pane, text string) error
}

// captureLines is how much scrollback each supervision poll reads.
const captureLines = 200

// Engine owns the long-running supervision state for one host.
type Engine struct {
	mux         Mux
	events      *events.Manager
	queue       *workqueue.Queue
	coordinator *useragent.Agent
	metrics     *observability.Metrics
	logger      *slog.Logger

	mu       sync.RWMutex
	sessions map[types.SessionID]*supervised
}

// supervised pairs a session agent with its multiplexer binding.
type supervised struct {
	agent     *sessionagent.Agent
	projectID types.ProjectID
	muxName   string
}

// Config wires an Engine.
type Config struct {
	Mux         Mux
	Events      *events.Manager
	Queue       *workqueue.Queue
	Coordinator *useragent.Agent
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		mux:         cfg.Mux,
		events:      cfg.Events,
		queue:       cfg.Queue,
		coordinator: cfg.Coordinator,
		metrics:     cfg.Metrics,
		logger:      logger,
		sessions:    make(map[types.SessionID]*supervised),
	}
}

// AttachSession registers a session agent for supervision and makes
// it reachable for the coordinator's delegation.
func (e *Engine) AttachSession(projectID types.ProjectID, muxName string, agent *sessionagent.Agent) {
	e.mu.Lock()
	e.sessions[agent.SessionID()] = &supervised{agent: agent, projectID: projectID, muxName: muxName}
	e.mu.Unlock()

	if e.coordinator != nil {
		e.coordinator.RegisterSession(agent.SessionID(), agent)
	}
}

// DetachSession removes a session from supervision.
func (e *Engine) DetachSession(id types.SessionID) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()

	if e.coordinator != nil {
		e.coordinator.UnregisterSession(id)
	}
}

// Session returns a supervised session agent, or nil.
func (e *Engine) Session(id types.SessionID) *sessionagent.Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if s, ok := e.sessions[id]; ok {
		return s.agent
	}
	return nil
}

// PollOnce runs one supervision pass for a session: capture
// scrollback, feed it through the smart-change pipeline, and emit an
// event when the change warrants one. Returns the next poll interval
// from the session's adaptive poller.
func (e *Engine) PollOnce(ctx context.Context, id types.SessionID) (time.Duration, error) {
	e.mu.RLock()
	s, ok := e.sessions[id]
	e.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("session not supervised: %s", id)
	}

	output, err := e.mux.CaptureOutput(ctx, s.muxName, "", captureLines)
	if err != nil {
		return s.agent.PollInterval(), fmt.Errorf("capture %s: %w", s.muxName, err)
	}

	notification, err := s.agent.ProcessOutputChange(ctx, output)
	interval := s.agent.PollInterval()
	e.metrics.SetPollInterval(s.muxName, interval.Seconds())
	if err != nil {
		return interval, err
	}

	if notification != nil {
		e.emitNotification(s, notification)
	}
	return interval, nil
}

// Supervise polls one session until ctx is cancelled or the session
// is detached, sleeping the adaptive interval between passes.
func (e *Engine) Supervise(ctx context.Context, id types.SessionID) error {
	for {
		interval, err := e.PollOnce(ctx, id)
		if err != nil {
			if e.Session(id) == nil {
				return nil
			}
			e.logger.Warn("supervision poll failed", "session_id", id, "error", err)
			if interval <= 0 {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// emitNotification converts a change notification into a persisted,
// broadcast event.
func (e *Engine) emitNotification(s *supervised, n *sessionagent.ChangeNotification) {
	if e.events == nil {
		return
	}

	eventType := types.EventStatus
	switch {
	case n.ChangeType == types.ChangeError:
		eventType = types.EventError
	case n.ChangeType == types.ChangeWaitingForInput || n.RequiresAction:
		eventType = types.EventDecisionNeeded
	case n.ChangeType == types.ChangeCompletion:
		eventType = types.EventInfo
	}

	event := types.NewEvent(s.projectID, eventType, n.Summary)
	if _, err := e.events.Emit(event); err != nil {
		e.logger.Error("cannot emit event", "session_id", n.SessionID, "error", err)
	}
}

// DrainWork dequeues ready work items and runs each through the
// coordinator until the queue yields nothing ready. A completed run
// records its summary as the item's result; blockers and check-ins
// fail the item with the reason so it never silently unblocks
// dependents.
func (e *Engine) DrainWork(ctx context.Context) error {
	if e.queue == nil || e.coordinator == nil {
		return errors.New("engine: work draining requires a queue and coordinator")
	}

	for {
		item := e.queue.Dequeue()
		if item == nil {
			return nil
		}

		e.logger.Info("processing work item", "work_id", item.ID, "priority", item.Priority.String())

		result, _, err := e.coordinator.ProcessAutonomous(ctx, item.Content)
		if err != nil {
			if failErr := e.queue.Fail(item.ID, err.Error()); failErr != nil {
				return failErr
			}
			continue
		}

		switch result.Kind {
		case useragent.ResultComplete:
			if err := e.queue.CompleteWithResult(item.ID, result.Summary); err != nil {
				return err
			}
		default:
			reason := result.Reason
			if reason == "" {
				reason = "stopped before completion"
			}
			if err := e.queue.Fail(item.ID, reason); err != nil {
				return err
			}
		}
	}
}
