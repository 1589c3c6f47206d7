package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"reelforge/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var session string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the CLI log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			match := func(line string) bool {
				return session == "" || strings.Contains(line, session)
			}

			reader := logs.NewReader(cfg.LogPath())
			tail, offset, err := reader.Last(lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				if match(line) {
					fmt.Fprintln(out, line)
				}
			}
			if !follow {
				return nil
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return reader.Follow(signalCtx, offset, 0, func(line string) {
				if match(line) {
					fmt.Fprintln(out, line)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&session, "session", "", "Only show lines mentioning this session id")
	return cmd
}
