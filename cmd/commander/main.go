// Command commander is the multi-agent orchestrator CLI: a local
// terminal UI, a line REPL, and project/adapters listings over the
// shared engine.
//
// Usage:
//
//	commander            # launch the terminal UI
//	commander tui -p x   # launch and auto-connect to project x
//	commander repl       # line-oriented REPL
//	commander list       # list projects
//	commander adapters   # list configured adapters
//
// Environment:
//
//   - OPENAI_API_KEY: model endpoint bearer token
//   - COMMANDER_MODEL: completion model override
//   - COMMANDER_STATE_DIR: state root (default ~/.ai-commander)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbosity int

func main() {
	root := &cobra.Command{
		Use:           "commander",
		Short:         "Supervise AI coding assistants across terminal sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(verbosity)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, "")
		},
	}
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, -vvv)")

	root.AddCommand(newTUICommand())
	root.AddCommand(newREPLCommand())
	root.AddCommand(newListCommand())
	root.AddCommand(newAdaptersCommand())
	root.AddCommand(newRunCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "commander:", err)
		os.Exit(1)
	}
}

// setupLogging installs a JSON slog handler on stderr at a level
// derived from -v flags.
func setupLogging(verbosity int) {
	level := slog.LevelError
	switch {
	case verbosity >= 3:
		level = slog.LevelDebug
	case verbosity == 2:
		level = slog.LevelInfo
	case verbosity == 1:
		level = slog.LevelWarn
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
