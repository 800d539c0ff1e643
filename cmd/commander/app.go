package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/commander/internal/config"
	"github.com/haasonsaas/commander/internal/frontend"
	"github.com/haasonsaas/commander/internal/llm"
	"github.com/haasonsaas/commander/internal/memory"
	"github.com/haasonsaas/commander/internal/memory/sqlitestore"
	"github.com/haasonsaas/commander/internal/notify"
	"github.com/haasonsaas/commander/internal/sessionagent"
	"github.com/haasonsaas/commander/internal/store"
	"github.com/haasonsaas/commander/internal/tmux"
	"github.com/haasonsaas/commander/internal/useragent"
)

// app is the wired engine shared by the frontends.
type app struct {
	cfg         *config.Config
	store       *store.Store
	mux         *tmux.Orchestrator
	state       *frontend.State
	pairings    *notify.PairingStore
	coordinator *useragent.Agent
}

// buildCoordinator wires the user agent: the configured memory
// backend behind an all-access wrapper, the embeddings client, and
// the model client.
func (a *app) buildCoordinator(client *llm.Client) (*useragent.Agent, error) {
	var backend memory.Store
	switch a.cfg.Memory.Backend {
	case "sqlite":
		sq, err := sqlitestore.New(sqlitestore.Config{Path: a.dbPath()})
		if err != nil {
			return nil, fmt.Errorf("open memory database: %w", err)
		}
		backend = sq
	default:
		backend = memory.NewInMemoryStore()
	}

	mem := memory.NewAccessControlledStore(backend, "user-agent", memory.AccessAll, slog.Default())
	embedder := sessionagent.NewOpenAIEmbedder(a.cfg.LLM.APIKey, openai.EmbeddingModel(a.cfg.LLM.EmbeddingModel))

	return useragent.New(client, embedder, mem, useragent.Config{
		Model:  a.cfg.LLM.Model,
		Logger: slog.Default(),
	}), nil
}

// coordinatorChatter answers disconnected input through the user
// agent, so chat falls into the same memory and delegation plane as
// autonomous work.
type coordinatorChatter struct {
	agent *useragent.Agent
}

func (c *coordinatorChatter) Chat(ctx context.Context, message string) (string, error) {
	return c.agent.Process(ctx, message, nil)
}

// wireApp builds the engine: state store, config, multiplexer
// orchestrator, model client (when a key is present), and the shared
// frontend state machine.
func wireApp(needMux bool) (*app, error) {
	root, err := store.DefaultRoot()
	if err != nil {
		return nil, err
	}
	st, err := store.New(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadFromStateDir(root)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		store:    st,
		pairings: notify.NewPairingStore(st.StatePath("pairings.json")),
	}

	if needMux {
		mux, err := tmux.New(slog.Default())
		if err != nil {
			return nil, fmt.Errorf("multiplexer unavailable: %w", err)
		}
		a.mux = mux

		stateCfg := frontend.Config{
			Mux:    mux,
			Pairer: a.pairings,
			Logger: slog.Default(),
		}

		var client *llm.Client
		if cfg.HasAPIKey() {
			client, err = llm.New(llm.Config{APIKey: cfg.LLM.APIKey, BaseURL: cfg.LLM.BaseURL})
			if err != nil {
				return nil, err
			}
			stateCfg.Summarizer = frontend.NewModelSummarizer(client, cfg.LLM.Model)
		}

		a.state = frontend.NewState(stateCfg)
		a.state.SetProjects(frontend.NewStoreDirectory(st))
		if client != nil {
			coordinator, err := a.buildCoordinator(client)
			if err != nil {
				return nil, err
			}
			a.coordinator = coordinator
			a.state.SetChatter(&coordinatorChatter{agent: coordinator})
		}
	}

	return a, nil
}

// dbPath resolves the memory backend's database file under db/.
func (a *app) dbPath() string {
	if filepath.IsAbs(a.cfg.Memory.Path) {
		return a.cfg.Memory.Path
	}
	return a.store.DBPath(a.cfg.Memory.Path)
}
