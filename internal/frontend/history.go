package frontend

// historyCapacity bounds the ring of remembered lines.
const historyCapacity = 100

// History is the submitted-line ring with draft preservation: the
// first Up saves the in-progress draft, Down past the newest entry
// restores it.
type History struct {
	lines []string
	// pos is the navigation cursor: len(lines) means "at the draft".
	pos   int
	draft string
	// navigating is true between the first Prev and the final Next.
	navigating bool
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{}
}

// Push records a submitted line. Consecutive duplicates collapse; an
// empty line is ignored. Navigation state resets.
func (h *History) Push(line string) {
	h.navigating = false
	if line == "" {
		return
	}
	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		h.pos = len(h.lines)
		return
	}
	h.lines = append(h.lines, line)
	if len(h.lines) > historyCapacity {
		h.lines = h.lines[len(h.lines)-historyCapacity:]
	}
	h.pos = len(h.lines)
}

// Prev steps back one entry. On the first step it saves draft, the
// caller's in-progress input. Returns (line, true) or (_, false) at
// the oldest entry already.
func (h *History) Prev(draft string) (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	if !h.navigating {
		h.navigating = true
		h.draft = draft
		h.pos = len(h.lines)
	}
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.lines[h.pos], true
}

// Next steps forward one entry; past the newest it restores the saved
// draft and ends navigation.
func (h *History) Next() (string, bool) {
	if !h.navigating {
		return "", false
	}
	h.pos++
	if h.pos >= len(h.lines) {
		h.pos = len(h.lines)
		h.navigating = false
		return h.draft, true
	}
	return h.lines[h.pos], true
}

// Len returns the number of remembered lines.
func (h *History) Len() int { return len(h.lines) }
