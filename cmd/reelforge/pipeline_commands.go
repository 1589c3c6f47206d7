package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/phase"
	"reelforge/internal/poller"
	"reelforge/internal/services/factory"
	"reelforge/internal/store"
)

func newPipelineCommand(ctx *commandContext) *cobra.Command {
	pipelineCmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run and follow end-to-end sessions on the service",
	}

	pipelineCmd.AddCommand(newPipelineStartCommand(ctx))
	pipelineCmd.AddCommand(newPipelineStatusCommand(ctx))
	pipelineCmd.AddCommand(newPipelineListCommand(ctx))
	pipelineCmd.AddCommand(newPipelineWatchCommand(ctx))

	return pipelineCmd
}

func newPipelineStartCommand(ctx *commandContext) *cobra.Command {
	var skipCheck bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "start [topic]",
		Short: "Start an automatic session (topic defaults to random)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := ""
			if len(args) == 1 {
				topic = args[0]
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			sessionID, err := client.StartPipeline(cmd.Context(), topic, skipCheck)
			if err != nil {
				return err
			}
			if !watch {
				return emit(cmd, ctx, map[string]string{"session_id": sessionID}, func(out io.Writer) error {
					fmt.Fprintf(out, "Session started: %s\n", sessionID)
					return nil
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session started: %s\n", sessionID)
			return watchSession(cmd, ctx, client, sessionID)
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Skip the service's content suitability check")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow the session until it finishes")
	return cmd
}

func newPipelineStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Fetch one status snapshot for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.PipelineStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := recordSnapshot(ctx, args[0], status); err != nil {
				logging.WarnWithContext(ctx.ensureLogger(), "session snapshot not recorded", "session_record_failed",
					logging.Error(err),
					logging.String(logging.FieldSessionID, args[0]),
				)
			}
			return emit(cmd, ctx, status, func(out io.Writer) error {
				return renderSessionDetail(out, args[0], status, shouldColorize(cmd.OutOrStdout()))
			})
		},
	}
}

func newPipelineListCommand(ctx *commandContext) *cobra.Command {
	var local bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions known to the service (or recorded locally)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				return listRecordedSessions(cmd, ctx, limit)
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			sessions, err := poller.New(client).ListKnownSessions(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}
			return emit(cmd, ctx, sessions, func(out io.Writer) error {
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, sessionRow(s.ID, s.PipelineStatus))
				}
				fmt.Fprintln(out, renderTable(sessionHeaders, rows, sessionAligns))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Show sessions recorded by this workspace instead")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of sessions to show")
	return cmd
}

func newPipelineWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Poll a session until it completes or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			return watchSession(cmd, ctx, client, args[0])
		},
	}
}

var (
	sessionHeaders = []string{"Session", "Topic", "Status", "Phase", "Progress", "Started"}
	sessionAligns  = []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
)

func sessionRow(id string, status factory.PipelineStatus) []string {
	return []string{
		id,
		status.Topic,
		status.Status,
		phase.Describe(status.Phase).Label,
		strconv.Itoa(status.Progress) + "%",
		status.StartedAt,
	}
}

func renderSessionDetail(out io.Writer, id string, status factory.PipelineStatus, colorize bool) error {
	fmt.Fprintf(out, "Session %s", id)
	if status.Topic != "" {
		fmt.Fprintf(out, " (%s)", status.Topic)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSessionLine(status, colorize))
	if status.Output != "" {
		fmt.Fprintf(out, "Output: %s\n", status.Output)
	}
	if detail := status.AssetsDetail; detail != nil && len(detail.Keywords) > 0 {
		rows := make([][]string, 0, len(detail.Keywords))
		for _, kw := range detail.Keywords {
			rows = append(rows, []string{kw.Keyword, kw.Source, kw.Status})
		}
		fmt.Fprintln(out, renderTable([]string{"Keyword", "Source", "Status"}, rows, nil))
	}
	return nil
}

func listRecordedSessions(cmd *cobra.Command, ctx *commandContext, limit int) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	records, err := st.ListSessions(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return emit(cmd, ctx, records, func(out io.Writer) error {
		if len(records) == 0 {
			fmt.Fprintln(out, "No sessions recorded")
			return nil
		}
		rows := make([][]string, 0, len(records))
		for _, rec := range records {
			row := sessionRow(rec.SessionID, rec.Snapshot)
			row[len(row)-1] = rec.LastSeen.Local().Format(time.DateTime)
			rows = append(rows, row)
		}
		headers := append(append([]string(nil), sessionHeaders[:len(sessionHeaders)-1]...), "Last seen")
		fmt.Fprintln(out, renderTable(headers, rows, sessionAligns))
		return nil
	})
}

func recordSnapshot(ctx *commandContext, sessionID string, status factory.PipelineStatus) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.RecordSession(context.Background(), sessionID, status)
}

// watchSession polls sessionID until a terminal status, printing a line for
// every change. Only one watcher per workspace may poll at a time.
func watchSession(cmd *cobra.Command, ctx *commandContext, client *factory.Client, sessionID string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := logging.NewComponentLogger(ctx.ensureLogger(), "watch")

	lock := flock.New(cfg.WatchLockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another watcher is already running (lock %s)", cfg.WatchLockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}()

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	structured := ctx.format() != formatTable

	p := poller.New(client,
		poller.WithInterval(cfg.PollInterval()),
		poller.WithTransportRetries(cfg.Poller.TransportRetries),
		poller.WithLogger(logger),
	)
	var lastLine string
	p.Subscribe(func(u poller.Update) {
		if err := st.RecordSession(signalCtx, u.SessionID, u.Status); err != nil {
			logger.Warn("session snapshot not recorded", logging.Error(err))
		}
		if structured {
			return
		}
		line := renderSessionLine(u.Status, colorize)
		if line != lastLine {
			fmt.Fprintln(out, line)
			lastLine = line
		}
	})

	handle := p.Start(signalCtx, sessionID)
	defer p.Stop()
	waitErr := handle.Wait(signalCtx)

	latest, seen := p.Latest()
	if waitErr != nil {
		if errors.Is(waitErr, poller.ErrStopped) || errors.Is(waitErr, context.Canceled) {
			fmt.Fprintln(out, "Stopped watching; the session keeps running on the service")
			return nil
		}
		return waitErr
	}
	if !seen {
		return nil
	}

	publishTerminal(signalCtx, ctx.notifier(), logger, latest)
	if structured {
		if err := emit(cmd, ctx, latest.Status, nil); err != nil {
			return err
		}
	} else if latest.Status.Output != "" {
		fmt.Fprintf(out, "Output: %s\n", latest.Status.Output)
	}
	if phase.ParseStatus(latest.Status.Status) == phase.StatusError {
		return fmt.Errorf("session %s failed: %s", sessionID, latest.Status.Message)
	}
	return nil
}

func publishTerminal(ctx context.Context, notifier notifications.Service, logger *slog.Logger, u poller.Update) {
	event := notifications.EventSessionCompleted
	if phase.ParseStatus(u.Status.Status) == phase.StatusError {
		event = notifications.EventSessionFailed
	}
	payload := notifications.Payload{
		"session_id": u.SessionID,
		"topic":      u.Status.Topic,
		"output":     u.Status.Output,
		"message":    u.Status.Message,
	}
	if err := notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "session notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldSessionID, u.SessionID),
			logging.String(logging.FieldImpact, "operator not alerted"),
		)
	}
}
