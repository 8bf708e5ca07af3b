package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/modalstream/internal/metrics"
	"github.com/san-kum/modalstream/internal/session"
	"github.com/san-kum/modalstream/internal/stream"
	"github.com/san-kum/modalstream/internal/viz"
)

func runStream(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := setupLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := wire(cfg, logger, viz.NewPrinter(cmd.OutOrStdout(), streamEvery))
	if err != nil {
		return err
	}
	defer w.ctrl.Dispose()
	serveMetrics(ctx, settings.GetString("metrics-addr"), w.recorder, logger)

	model, err := cfg.ModelRequest()
	if err != nil {
		return err
	}
	analysis, err := w.client.Analyze(ctx, model)
	if err != nil {
		return err
	}
	if _, err := w.ctrl.ApplyModalSummary(analysis.Summary()); err != nil {
		return err
	}

	peak := metrics.NewPeak()
	drift := metrics.NewDrift(model.Hc, driftLimit)

	if err := w.ctrl.Start(ctx); err != nil {
		return err
	}

loop:
	for {
		select {
		case <-ctx.Done():
			logger.Info("interrupted")
			w.ctrl.Stop()
			break loop
		case ev := <-w.ctrl.Events():
			w.ctrl.Handle(ev)
			if ev.Kind == stream.EventData && w.ctrl.State() == session.Running {
				peak.Observe(ev.Sample)
				drift.Observe(ev.Sample)
				if streamFor > 0 && ev.Sample.T >= streamFor {
					w.ctrl.Stop()
					break loop
				}
			}
			if s := w.ctrl.State(); s == session.Paused || s == session.Error {
				break loop
			}
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "# peak displacement %.6e m, max drift ratio %.6e (%.1f%% of samples over %.3f)\n",
		peak.Value(), drift.Value(), drift.Exceedance()*100, driftLimit)

	id, err := saveRecording(w, peak, drift)
	if err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	if id != "" {
		logger.Info("recording saved", "id", id, "dir", w.store.Dir())
	}

	var ferr *session.FailureError
	if errors.As(w.ctrl.LastError(), &ferr) {
		return ferr
	}
	return nil
}
