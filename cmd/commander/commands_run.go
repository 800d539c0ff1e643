package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/commander/internal/engine"
	"github.com/haasonsaas/commander/internal/events"
	"github.com/haasonsaas/commander/internal/supervisor"
	"github.com/haasonsaas/commander/internal/types"
	"github.com/haasonsaas/commander/internal/workqueue"
)

func newRunCommand() *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "run <request>",
		Short: "Queue a request and drive it autonomously to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(true)
			if err != nil {
				return err
			}
			if a.coordinator == nil {
				return fmt.Errorf("autonomous mode needs an API key; set %s", "OPENAI_API_KEY")
			}

			ctx, cancel := supervisor.NotifyContext(cmd.Context())
			defer cancel()

			queue := workqueue.NewQueue(a.store)
			eng := engine.New(engine.Config{
				Mux:         a.mux,
				Events:      events.NewManager(a.store, nil),
				Queue:       queue,
				Coordinator: a.coordinator,
			})

			item := types.NewWorkItem(strings.Join(args, " "), parsePriority(priority))
			if _, err := queue.Enqueue(item); err != nil {
				return err
			}
			if err := eng.DrainWork(ctx); err != nil {
				return err
			}

			final := queue.Get(item.ID)
			switch final.State {
			case types.WorkCompleted:
				fmt.Fprintln(cmd.OutOrStdout(), final.Result)
			case types.WorkFailed:
				fmt.Fprintln(cmd.OutOrStdout(), "stopped:", final.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&priority, "priority", "medium", "work priority: low, medium, high, critical")
	return cmd
}

func parsePriority(s string) types.Priority {
	switch s {
	case "low":
		return types.PriorityLow
	case "high":
		return types.PriorityHigh
	case "critical":
		return types.PriorityCritical
	default:
		return types.PriorityMedium
	}
}
