package main

import (
	"context"
	"errors"
	"log/slog"

	"reelforge/internal/assets"
	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/services/factory"
	"reelforge/internal/store"
	"reelforge/internal/workbench"
	"reelforge/internal/workflow"
)

// workspace bundles the manual-path components restored from the store.
type workspace struct {
	cfg        *config.Config
	client     *factory.Client
	store      *store.Store
	controller *workflow.Controller
	tracker    *assets.Tracker
	bench      *workbench.Workbench
	logger     *slog.Logger

	saveErr error
}

func openWorkspace(cfg *config.Config, client *factory.Client, notifier notifications.Service, logger *slog.Logger) (*workspace, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	state, err := st.LoadWorkflow(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	keywords, err := st.LoadKeywords(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	controller := workflow.NewController(
		workflow.WithAutoAdvance(cfg.Workflow.AutoAdvance),
		workflow.WithAdvanceDelay(cfg.AdvanceDelay()),
		workflow.WithLogger(logger),
	)
	controller.Restore(state)

	tracker := assets.NewTracker(client, controller,
		assets.WithDefaultSource(cfg.Assets.DefaultSource),
		assets.WithMaxConcurrent(cfg.Assets.MaxConcurrent),
		assets.WithLogger(logger),
	)
	tracker.Restore(keywords)

	ws := &workspace{
		cfg:        cfg,
		client:     client,
		store:      st,
		controller: controller,
		tracker:    tracker,
		logger:     logging.NewComponentLogger(logger, "workspace"),
	}
	ws.bench = workbench.New(client, controller,
		workbench.WithTracker(tracker),
		workbench.WithNotifier(notifier),
		workbench.WithLogger(logger),
	)
	controller.Subscribe(ws.persist)
	return ws, nil
}

func (w *workspace) persist(snap workflow.Snapshot) {
	if err := w.store.SaveWorkflow(context.Background(), snap.State); err != nil {
		w.saveErr = err
		logging.WarnWithContext(w.logger, "workflow state not saved", "workspace_save_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the next command starts from the previous state"),
		)
	}
}

// Close applies any pending auto-advance, saves tracker state and closes the
// store.
func (w *workspace) Close() error {
	if stage, moved := w.controller.Flush(); moved {
		w.logger.Debug("auto-advanced", logging.String(logging.FieldStage, stage.String()))
	}
	saveErr := w.store.SaveKeywords(context.Background(), w.tracker.States())
	closeErr := w.store.Close()
	return errors.Join(w.saveErr, saveErr, closeErr)
}

// reset clears the persisted workflow and in-memory state.
func (w *workspace) reset(ctx context.Context) error {
	w.controller.Reset()
	w.tracker.Reset(nil)
	return w.store.ClearWorkflow(ctx)
}
