package changedetect

import (
	"regexp"

	"github.com/haasonsaas/commander/internal/types"
)

// significantPattern pairs a regex with the ChangeType/Significance it
// implies. Order matters: for a given line, the first matching pattern in
// this table wins, so specific patterns (test-result counts) must precede
// general ones ("failed").
type significantPattern struct {
	re           *regexp.Regexp
	changeType   types.ChangeType
	significance types.Significance
}

// defaultSignificantPatterns is the ordered classification table.
// Order matters: specific patterns come before general ones, so a
// test-result line classifies as progress rather than an error.
func defaultSignificantPatterns() []significantPattern {
	return []significantPattern{
		{regexp.MustCompile(`\d+\s+(tests?\s+)?(passed|failed|skipped|ignored)`), types.ChangeProgress, types.SigMedium},
		{regexp.MustCompile(`(?i)^(all?\s+)?tests?\s+(passed|failed|ok|fail)`), types.ChangeProgress, types.SigMedium},
		{regexp.MustCompile(`(?i)(specs?|checks?)\s+(passed|failed|ok|fail)`), types.ChangeProgress, types.SigMedium},
		{regexp.MustCompile(`(?i)\b(completed?|finished|done|success(ful)?)\b`), types.ChangeCompletion, types.SigHigh},
		{regexp.MustCompile(`(?i)^passed\b`), types.ChangeCompletion, types.SigHigh},
		{regexp.MustCompile(`(?i)\b(error|failed|failure|exception|panic|fatal)\b`), types.ChangeError, types.SigHigh},
		{regexp.MustCompile(`(?i)\b(segfault|segmentation fault|core dumped|killed|oom)\b`), types.ChangeError, types.SigCritical},
		{regexp.MustCompile(`(?i)(waiting for|awaiting|requires?) (input|response|confirmation)`), types.ChangeWaitingForInput, types.SigHigh},
		{regexp.MustCompile(`(?i)\b(confirm|proceed|continue)\s*\?\s*(\[y/n\])?`), types.ChangeWaitingForInput, types.SigHigh},
		{regexp.MustCompile(`(?i)(enter|type|provide)\s+.*\s*(password|passphrase|token|key)`), types.ChangeWaitingForInput, types.SigHigh},
		{regexp.MustCompile(`(?i)(creat(ed|ing)|modif(y|ied)|delet(ed|ing)|writ(e|ing|ten))\s+\S+`), types.ChangeProgress, types.SigLow},
		{regexp.MustCompile(`(?i)(compil|build|link)\w*`), types.ChangeProgress, types.SigLow},
		{regexp.MustCompile(`(?i)(install|download)\w*`), types.ChangeProgress, types.SigLow},
		{regexp.MustCompile(`(?i)(commit|push|pull|merge)\w*`), types.ChangeProgress, types.SigMedium},
	}
}

// defaultIgnorePatterns filters UI noise out of a capture before diffing:
// spinners, box-drawing frames, ANSI escapes, progress bars, prompt
// echoes, and "thinking" style status lines.
func defaultIgnorePatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`^[\x{2800}-\x{28FF}]`),                 // braille spinners
		regexp.MustCompile(`^[⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏]`),                         // arc spinner glyphs
		regexp.MustCompile(`^[◐◑◒◓◴◵◶◷]`),                          // clock spinner glyphs
		regexp.MustCompile(`^[⣾⣽⣻⢿⡿⣟⣯⣷]`),                         // block spinner glyphs
		regexp.MustCompile(`^[─│┌┐└┘├┤┬┴┼╭╮╯╰╱╲╳]`),                 // box-drawing frames (thin)
		regexp.MustCompile(`^[═║╔╗╚╝╠╣╦╩╬]`),                        // box-drawing frames (double)
		regexp.MustCompile("\x1b\\[[0-9;]*[A-Za-z]"),                // ANSI CSI escapes
		regexp.MustCompile(`[\[=\->\s\]]{10,}`),                     // progress bar runs
		regexp.MustCompile(`\d+%\s*[\[█▓▒░\s\]]*`),                  // percentage progress bars
		regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?\s*$`),             // bare timestamps
		regexp.MustCompile(`^\[\S+\]\s*❯\s*.*$`),                    // "[name] ❯ ..." prompt echo
		regexp.MustCompile(`^\S+>\s*.*$`),                           // "name> ..." prompt echo
		regexp.MustCompile(`[▐▛▜▌▝▘]`),                              // brand/logo glyphs
		regexp.MustCompile(`(?i)(thinking|spelunking|processing)\.{0,3}$`),
		regexp.MustCompile(`(?i)ctrl\+[a-z]`),
		regexp.MustCompile(`\(MCP\)\(`), // MCP tool invocation wrapper
	}
}
