// Package repl is the line-oriented frontend: a prompt on stdin, the
// shared frontend state machine behind it, and synchronous response
// collection after each send.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/haasonsaas/commander/internal/frontend"
)

// pollInterval is how often the REPL ticks the state machine while a
// response is being collected.
const pollInterval = 300 * time.Millisecond

// responseTimeout bounds how long one send waits for its summary
// before giving the prompt back.
const responseTimeout = 60 * time.Second

// Repl drives the shared state machine over a line reader/writer.
type Repl struct {
	state *frontend.State
	in    io.Reader
	out   io.Writer

	rendered int
}

// New creates a Repl over the given streams.
func New(state *frontend.State, in io.Reader, out io.Writer) *Repl {
	return &Repl{state: state, in: in, out: out}
}

// Run reads lines until EOF or /quit, dispatching each through the
// state machine and rendering new log messages as they appear.
func (r *Repl) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "commander repl — /help for commands")

	scanner := bufio.NewScanner(r.in)
	for {
		r.prompt()
		if !scanner.Scan() {
			break
		}

		r.state.HandleInput(ctx, scanner.Text())
		r.flush()

		if r.state.Working() {
			r.collect(ctx)
		}

		if r.state.ShouldQuit() {
			break
		}
	}
	return scanner.Err()
}

func (r *Repl) prompt() {
	if conn := r.state.Connection(); conn != nil {
		fmt.Fprintf(r.out, "[%s] ❯ ", conn.Project)
	} else {
		fmt.Fprint(r.out, "❯ ")
	}
}

// collect polls the state machine until the pending response resolves
// or the timeout passes.
func (r *Repl) collect(ctx context.Context) {
	deadline := time.Now().Add(responseTimeout)
	for r.state.Working() && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
		r.state.Tick(ctx)
		r.flush()
	}
	if r.state.Working() {
		fmt.Fprintln(r.out, "(still working; output will land in the session)")
	}
}

// flush renders log messages appended since the last flush.
func (r *Repl) flush() {
	messages := r.state.Messages()
	if r.rendered > len(messages) {
		// The log was cleared.
		r.rendered = 0
	}
	for ; r.rendered < len(messages); r.rendered++ {
		m := messages[r.rendered]
		switch m.Kind {
		case frontend.KindUser:
			// The user already saw their own line.
		case frontend.KindReceived:
			fmt.Fprintln(r.out, m.Text)
		case frontend.KindSystem:
			fmt.Fprintln(r.out, "· "+m.Text)
		case frontend.KindError:
			fmt.Fprintln(r.out, "! "+m.Text)
		}
	}
}
