// Package messenger is the transport-agnostic chat backend: a handler
// that gates chats behind one-shot pairing codes and forwards
// authorized messages into multiplexer sessions. A concrete chat
// platform supplies the transport; this package owns the protocol.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/haasonsaas/commander/internal/changedetect"
	"github.com/haasonsaas/commander/internal/notify"
)

// Mux is the multiplexer slice the handler needs.
type Mux interface {
	SessionExists(ctx context.Context, name string) bool
	SendLine(ctx context.Context, session, pane, text string) error
	CaptureOutput(ctx context.Context, session, pane string, lastN int) (string, error)
}

// PairingConsumer consumes one-shot pairing codes.
type PairingConsumer interface {
	Consume(code string) (projectName, sessionName string, err error)
}

// binding is one authorized chat's target.
type binding struct {
	Project string
	Session string
}

// Handler processes inbound chat messages. Authorization is a
// one-shot gate: a chat pairs once with a code, and every later
// message from that chat routes without one.
type Handler struct {
	mux      Mux
	pairings PairingConsumer
	logger   *slog.Logger

	mu         sync.RWMutex
	authorized map[int64]binding
}

// NewHandler creates a Handler.
func NewHandler(mux Mux, pairings PairingConsumer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		mux:        mux,
		pairings:   pairings,
		logger:     logger,
		authorized: make(map[int64]binding),
	}
}

// Authorized reports whether chatID has paired.
func (h *Handler) Authorized(chatID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.authorized[chatID]
	return ok
}

// HandleMessage processes one inbound message and returns the reply
// text to send back to the chat.
func (h *Handler) HandleMessage(ctx context.Context, chatID int64, text string) string {
	text = strings.TrimSpace(text)

	if code, ok := strings.CutPrefix(text, "/pair"); ok {
		return h.handlePair(chatID, strings.TrimSpace(code))
	}

	h.mu.RLock()
	bound, ok := h.authorized[chatID]
	h.mu.RUnlock()
	if !ok {
		return "This chat is not paired. Run /telegram in the terminal UI, then send: /pair CODE"
	}

	switch {
	case text == "/status":
		return h.handleStatus(ctx, bound)
	case text == "/unpair":
		h.mu.Lock()
		delete(h.authorized, chatID)
		h.mu.Unlock()
		return "Unpaired from " + bound.Project
	case text == "":
		return "Send a message to forward it to " + bound.Project
	default:
		return h.handleForward(ctx, bound, text)
	}
}

func (h *Handler) handlePair(chatID int64, code string) string {
	if code == "" {
		return "Usage: /pair CODE"
	}

	project, session, err := h.pairings.Consume(code)
	switch {
	case errors.Is(err, notify.ErrCodeExpired):
		return "That code has expired. Mint a fresh one with /telegram in the terminal UI."
	case errors.Is(err, notify.ErrCodeNotFound):
		return "Unknown code. Codes are single-use; mint a fresh one with /telegram."
	case err != nil:
		h.logger.Error("pairing consume failed", "error", err)
		return "Pairing failed: " + err.Error()
	}

	h.mu.Lock()
	h.authorized[chatID] = binding{Project: project, Session: session}
	h.mu.Unlock()

	h.logger.Info("chat paired", "chat_id", chatID, "project", project, "session", session)
	return fmt.Sprintf("Paired with %s. Messages here now go to %s.", project, session)
}

func (h *Handler) handleStatus(ctx context.Context, bound binding) string {
	if !h.mux.SessionExists(ctx, bound.Session) {
		return bound.Project + ": session is not running"
	}
	output, err := h.mux.CaptureOutput(ctx, bound.Session, "", 50)
	if err != nil {
		return "Cannot read session: " + err.Error()
	}
	if changedetect.IsReady(output) {
		return bound.Project + ": idle at prompt"
	}
	return bound.Project + ": working"
}

func (h *Handler) handleForward(ctx context.Context, bound binding, text string) string {
	if err := h.mux.SendLine(ctx, bound.Session, "", text); err != nil {
		return "Cannot deliver to " + bound.Session + ": " + err.Error()
	}
	return "Sent to " + bound.Project
}
