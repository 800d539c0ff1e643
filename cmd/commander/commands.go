package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/commander/internal/frontend"
	"github.com/haasonsaas/commander/internal/frontend/repl"
	"github.com/haasonsaas/commander/internal/frontend/tui"
	"github.com/haasonsaas/commander/internal/supervisor"
)

func newTUICommand() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the local terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, project)
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "auto-connect to a project")
	return cmd
}

func runTUI(cmd *cobra.Command, project string) error {
	a, err := wireApp(true)
	if err != nil {
		return err
	}

	ctx, cancel := supervisor.NotifyContext(cmd.Context())
	defer cancel()

	if project != "" {
		a.state.HandleInput(ctx, "/connect "+project)
	}
	return tui.Run(ctx, a.state)
}

func newREPLCommand() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Launch the line-oriented REPL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(true)
			if err != nil {
				return err
			}

			ctx, cancel := supervisor.NotifyContext(cmd.Context())
			defer cancel()

			if project != "" {
				a.state.HandleInput(ctx, "/connect "+project)
			}
			return repl.New(a.state, os.Stdin, os.Stdout).Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&project, "project", "p", "", "auto-connect to a project")
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(false)
			if err != nil {
				return err
			}

			projects, err := frontend.NewStoreDirectory(a.store).List()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects")
				return nil
			}
			sort.Slice(projects, func(i, j int) bool {
				return projects[i].DisplayName < projects[j].DisplayName
			})
			for _, p := range projects {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t[%s]\t%s\t(%s)\n", p.DisplayName, p.State, p.Path, p.Adapter)
			}
			return nil
		},
	}
}

func newAdaptersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List configured assistant adapters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(false)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(a.cfg.Adapters))
			for name := range a.cfg.Adapters {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				adapter := a.cfg.Adapters[name]
				command := "(attach only)"
				if len(adapter.Command) > 0 {
					command = fmt.Sprint(adapter.Command)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, command)
			}
			return nil
		},
	}
}
