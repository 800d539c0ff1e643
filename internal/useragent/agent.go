// Package useragent is the process-wide coordinator: it
// speaks to the user, searches memory across agents, delegates tasks
// into session agents, and drives autonomous work through the
// completion driver.
package useragent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/haasonsaas/commander/internal/agentctx"
	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/memory"
	"github.com/haasonsaas/commander/internal/types"
)

// maxToolIterations bounds the coordinator's tool-call loop. Higher
// than the session agent's cap because delegation fans out.
const maxToolIterations = 10

const defaultSystemPrompt = `You are an autonomous AI agent that drives projects to completion.
You coordinate work across coding sessions, search shared memory for context,
and delegate concrete tasks to the session best placed to do them.
Surface blockers instead of guessing; report progress plainly.`

const defaultModel = "gpt-4o-mini"

// Completer issues one chat completion. *llm.Client satisfies it; a
// scripted fake satisfies it in tests.
type Completer interface {
	Complete(ctx context.Context, req *llm.Request) (*llm.Response, error)
}

// Embedder turns text into a vector embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SessionHandle is the slice of a session agent the coordinator
// delegates through.
type SessionHandle interface {
	Process(ctx context.Context, message string, ambient *agentctx.AgentContext) (string, error)
	State() *types.SessionState
}

// Agent is the single user-facing coordinator.
type Agent struct {
	client   Completer
	model    string
	memory   *memory.AccessControlledStore
	embedder Embedder
	window   *agentctx.Window
	logger   *slog.Logger

	sessionsMu sync.RWMutex
	sessions   map[types.SessionID]SessionHandle

	tools []llm.Tool
}

// Config configures the coordinator.
type Config struct {
	// Model overrides the completion model.
	Model string
	// Logger for delegation and autonomous-loop events.
	Logger *slog.Logger
}

// New creates the coordinator. The memory store must be bound with
// AccessAll; the coordinator is the only agent allowed to search
// across sessions.
func New(client Completer, embedder Embedder, mem *memory.AccessControlledStore, cfg Config) *Agent {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		client:   client,
		model:    model,
		memory:   mem,
		embedder: embedder,
		window:   agentctx.NewDefaultWindow(agentctx.TrivialSummarizer{}),
		logger:   logger,
		sessions: make(map[types.SessionID]SessionHandle),
		tools:    coordinatorTools(),
	}
}

// RegisterSession makes a session agent reachable for delegation.
func (a *Agent) RegisterSession(id types.SessionID, handle SessionHandle) {
	a.sessionsMu.Lock()
	a.sessions[id] = handle
	a.sessionsMu.Unlock()
}

// UnregisterSession removes a session from the delegation map.
func (a *Agent) UnregisterSession(id types.SessionID) {
	a.sessionsMu.Lock()
	delete(a.sessions, id)
	a.sessionsMu.Unlock()
}

func (a *Agent) session(id types.SessionID) (SessionHandle, bool) {
	a.sessionsMu.RLock()
	defer a.sessionsMu.RUnlock()
	h, ok := a.sessions[id]
	return h, ok
}

// Window returns the coordinator's context window.
func (a *Agent) Window() *agentctx.Window { return a.window }

// Process runs one message through the coordinator's tool-call loop,
// same shape as the session agent's but with the higher cap and the
// coordinator tool set.
func (a *Agent) Process(ctx context.Context, message string, ambient *agentctx.AgentContext) (string, error) {
	messages := a.buildMessages(message, ambient)

	for iteration := 1; ; iteration++ {
		if iteration > maxToolIterations {
			return "", &MaxIterationsExceededError{Limit: maxToolIterations}
		}

		resp, err := a.client.Complete(ctx, &llm.Request{
			Model:    a.model,
			Messages: messages,
			Tools:    a.tools,
		})
		if err != nil {
			return "", err
		}

		if !resp.HasToolCalls() {
			a.recordTurn(ctx, message, resp.Content)
			return resp.Content, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})

		decoded, err := resp.DecodeToolCalls()
		if err != nil {
			return "", err
		}
		for _, call := range decoded {
			result, err := a.executeTool(ctx, call)
			if err != nil {
				return "", err
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: result, ToolCallID: call.ID})
		}
	}
}

func (a *Agent) buildMessages(userMessage string, ambient *agentctx.AgentContext) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: defaultSystemPrompt}}

	if ambient != nil && ambient.SummarizedHistory != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: "Previous context:\n" + ambient.SummarizedHistory})
	} else if a.window.SummarizedHistory() != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: "Previous context:\n" + a.window.SummarizedHistory()})
	}

	for _, m := range a.window.RecentMessages() {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	return messages
}

func (a *Agent) recordTurn(ctx context.Context, userMessage, assistantContent string) {
	_ = a.window.AddMessage(ctx, *types.NewMessage(types.RoleUser, userMessage))
	_ = a.window.AddMessage(ctx, *types.NewMessage(types.RoleAssistant, assistantContent))
}

// StoreMemory embeds content and stores it against the coordinator's
// agent ID.
func (a *Agent) StoreMemory(ctx context.Context, content string) error {
	embedding, err := a.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed memory content: %w", err)
	}
	return a.memory.Store(ctx, types.NewMemory("", content, embedding))
}
