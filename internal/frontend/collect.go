package frontend

import (
	"context"

	"github.com/haasonsaas/commander/internal/changedetect"
)

// SendToSession runs the send protocol: capture a baseline,
// send the line, and start collecting response output until the idle
// trigger fires summarization.
func (s *State) SendToSession(ctx context.Context, text string) {
	if s.conn == nil {
		s.Error("Not connected")
		return
	}
	muxName := MuxSessionName(s.conn.Project)

	baseline, err := s.mux.CaptureOutput(ctx, muxName, "", captureLines)
	if err != nil {
		s.Error("Cannot capture session output: " + err.Error())
		return
	}
	if err := s.mux.SendLine(ctx, muxName, "", text); err != nil {
		s.Error("Cannot send to " + muxName + ": " + err.Error())
		return
	}

	s.pendingQuery = text
	s.lastOutput = s.detector.CleanLines(baseline)
	s.buffer = nil
	s.lastActivity = s.now()
}

// resetCollection abandons any in-flight response collection. A
// summarization worker that already started is allowed to finish; its
// result is discarded because the channel is detached here.
func (s *State) resetCollection() {
	s.pendingQuery = ""
	s.lastOutput = nil
	s.buffer = nil
	s.summaryCh = nil
	s.isSummarizing = false
}

// Tick advances response collection by one poll: capture fresh
// scrollback, append new non-noise lines, and fire summarization once
// the session is ready and quiet. Frontends call this on every UI
// tick; it is cheap when nothing is pending.
func (s *State) Tick(ctx context.Context) {
	if s.isSummarizing {
		select {
		case summary, ok := <-s.summaryCh:
			if ok {
				s.appendMessage(KindReceived, summary)
			}
			s.resetCollection()
		default:
		}
		return
	}

	if s.pendingQuery == "" || s.conn == nil {
		return
	}
	muxName := MuxSessionName(s.conn.Project)

	output, err := s.mux.CaptureOutput(ctx, muxName, "", captureLines)
	if err != nil {
		s.logger.Debug("capture failed during collection", "session", muxName, "error", err)
		return
	}

	cleaned := s.detector.CleanLines(output)
	fresh := newLines(s.lastOutput, cleaned)
	if len(fresh) > 0 {
		s.buffer = append(s.buffer, fresh...)
		s.lastOutput = cleaned
		s.lastActivity = s.now()
	}

	if changedetect.IsReady(output) &&
		s.now().Sub(s.lastActivity) > idleTrigger &&
		len(s.buffer) > 0 {
		s.startSummarization(ctx)
	}
}

// startSummarization offloads summarization to a worker goroutine
// delivering one result over a one-shot channel. The worker is
// fire-and-forget: if the frontend resets before the result lands, the
// detached channel's buffered send still completes and the value is
// garbage collected.
func (s *State) startSummarization(ctx context.Context) {
	query := s.pendingQuery
	lines := append([]string(nil), s.buffer...)
	ch := make(chan string, 1)
	s.summaryCh = ch
	s.isSummarizing = true

	go func() {
		if s.summarizer == nil {
			ch <- joinLines(lines)
			return
		}
		summary, err := s.summarizer.SummarizeResponse(ctx, query, lines)
		if err != nil {
			// Fall back to the raw collected lines.
			ch <- joinLines(lines)
			return
		}
		ch <- summary
	}()
}

// newLines returns lines in current that are absent from prev, in
// order. Same set-difference rule as the change detector's diff step.
func newLines(prev, current []string) []string {
	seen := make(map[string]struct{}, len(prev))
	for _, l := range prev {
		seen[l] = struct{}{}
	}
	var fresh []string
	for _, l := range current {
		if _, ok := seen[l]; !ok {
			fresh = append(fresh, l)
		}
	}
	return fresh
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
