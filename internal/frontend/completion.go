package frontend

import "strings"

// Completion cycles through commands sharing the typed "/" prefix.
// The candidate set is built once per prefix and cached; any input
// edit resets it.
type Completion struct {
	commands []string

	prefix     string
	candidates []string
	index      int
	active     bool
}

// NewCompletion creates a Completion over the given command names, in
// insertion order.
func NewCompletion(commands []string) *Completion {
	return &Completion{commands: commands}
}

// Next returns the next completion for input. Only "/"-prefixed input
// completes; repeated calls with the same cached prefix cycle the
// candidate set.
func (c *Completion) Next(input string) (string, bool) {
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	if !c.active {
		prefix := strings.TrimPrefix(input, "/")
		// Only the command word completes, not arguments.
		if strings.ContainsRune(prefix, ' ') {
			return "", false
		}
		c.prefix = prefix
		c.candidates = nil
		for _, cmd := range c.commands {
			if strings.HasPrefix(cmd, prefix) {
				c.candidates = append(c.candidates, cmd)
			}
		}
		c.index = 0
		c.active = true
	}

	if len(c.candidates) == 0 {
		return "", false
	}

	completed := "/" + c.candidates[c.index]
	c.index = (c.index + 1) % len(c.candidates)
	return completed, true
}

// Reset drops the cached candidate set; called on any input edit.
func (c *Completion) Reset() {
	c.active = false
	c.prefix = ""
	c.candidates = nil
	c.index = 0
}
