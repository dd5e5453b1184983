package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"salesavor/internal/present"
	"salesavor/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and clear saved sessions",
	}
	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionClearCommand(ctx))
	return sessionCmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runtimeOptions{}, func(c context.Context, rt *runtime) error {
				records, err := rt.sessions.List(c)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintln(rt.out, "No saved sessions.")
					return nil
				}
				fmt.Fprintln(rt.out, present.Sessions(rt.formatter, records))
				return nil
			})
		},
	}
}

func newSessionClearCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [name]",
		Short: "Delete a saved session (default: the current one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runtimeOptions{}, func(c context.Context, rt *runtime) error {
				if all {
					removed, err := rt.sessions.Clear(c)
					if err != nil {
						return err
					}
					fmt.Fprintf(rt.out, "Cleared %d sessions\n", removed)
					return nil
				}
				name := rt.name
				if len(args) == 1 {
					name = strings.TrimSpace(args[0])
				}
				lock, err := session.Acquire(rt.cfg.Session.Dir, name)
				if err != nil {
					return err
				}
				defer lock.Release()
				deleted, err := rt.sessions.Delete(c, name)
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintf(rt.out, "No session named %q\n", name)
					return nil
				}
				fmt.Fprintf(rt.out, "Cleared session %q\n", name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete every saved session")
	return cmd
}
