package messenger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/haasonsaas/commander/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMux records sends and serves canned output.
type fakeMux struct {
	exists map[string]bool
	output string
	sent   map[string][]string
}

func newFakeMux() *fakeMux {
	return &fakeMux{exists: map[string]bool{}, sent: map[string][]string{}}
}

func (m *fakeMux) SessionExists(_ context.Context, name string) bool { return m.exists[name] }

func (m *fakeMux) SendLine(_ context.Context, session, _ string, text string) error {
	m.sent[session] = append(m.sent[session], text)
	return nil
}

func (m *fakeMux) CaptureOutput(_ context.Context, _, _ string, _ int) (string, error) {
	return m.output, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeMux, *notify.PairingStore) {
	t.Helper()
	mux := newFakeMux()
	pairings := notify.NewPairingStore(filepath.Join(t.TempDir(), "pairings.json"))
	return NewHandler(mux, pairings, nil), mux, pairings
}

func TestUnpairedChatIsRejected(t *testing.T) {
	h, mux, _ := newTestHandler(t)

	reply := h.HandleMessage(context.Background(), 1, "run the tests")
	assert.Contains(t, reply, "not paired")
	assert.Empty(t, mux.sent)
}

func TestPairAuthorizesAndForwards(t *testing.T) {
	h, mux, pairings := newTestHandler(t)
	ctx := context.Background()

	code, err := pairings.Mint("p", "commander-p")
	require.NoError(t, err)

	reply := h.HandleMessage(ctx, 7, "/pair "+code)
	assert.Contains(t, reply, "Paired with p")
	assert.True(t, h.Authorized(7))

	// Subsequent messages route without a code.
	reply = h.HandleMessage(ctx, 7, "fix the login bug")
	assert.Contains(t, reply, "Sent to p")
	assert.Equal(t, []string{"fix the login bug"}, mux.sent["commander-p"])
}

func TestPairCodeIsOneShot(t *testing.T) {
	h, _, pairings := newTestHandler(t)
	ctx := context.Background()

	code, err := pairings.Mint("p", "commander-p")
	require.NoError(t, err)

	_ = h.HandleMessage(ctx, 1, "/pair "+code)
	reply := h.HandleMessage(ctx, 2, "/pair "+code)
	assert.Contains(t, reply, "Unknown code")
	assert.False(t, h.Authorized(2))
}

func TestPairWithoutCode(t *testing.T) {
	h, _, _ := newTestHandler(t)
	reply := h.HandleMessage(context.Background(), 1, "/pair")
	assert.Contains(t, reply, "Usage")
}

func TestStatusReportsReadiness(t *testing.T) {
	h, mux, pairings := newTestHandler(t)
	ctx := context.Background()

	code, err := pairings.Mint("p", "commander-p")
	require.NoError(t, err)
	_ = h.HandleMessage(ctx, 3, "/pair "+code)

	reply := h.HandleMessage(ctx, 3, "/status")
	assert.Contains(t, reply, "not running")

	mux.exists["commander-p"] = true
	mux.output = "busy compiling"
	assert.Contains(t, h.HandleMessage(ctx, 3, "/status"), "working")

	mux.output = "done\n❯"
	assert.Contains(t, h.HandleMessage(ctx, 3, "/status"), "idle")
}

func TestUnpair(t *testing.T) {
	h, mux, pairings := newTestHandler(t)
	ctx := context.Background()

	code, err := pairings.Mint("p", "commander-p")
	require.NoError(t, err)
	_ = h.HandleMessage(ctx, 4, "/pair "+code)

	reply := h.HandleMessage(ctx, 4, "/unpair")
	assert.Contains(t, reply, "Unpaired")
	assert.False(t, h.Authorized(4))

	_ = h.HandleMessage(ctx, 4, "hello")
	assert.Empty(t, mux.sent["commander-p"])
}
