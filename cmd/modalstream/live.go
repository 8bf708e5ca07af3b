package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/modalstream/internal/config"
	"github.com/san-kum/modalstream/internal/export"
	"github.com/san-kum/modalstream/internal/metrics"
	"github.com/san-kum/modalstream/internal/viz"
)

// driftLimit is the interstory drift ratio counted as an exceedance.
const driftLimit = 0.005

func runLive(cmd *cobra.Command, args []string) error {
	out, closeOut, err := tuiLogWriter()
	if err != nil {
		return err
	}
	defer closeOut()
	logger, closeLog, err := setupLogger(out)
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

	board := newBoard(cfg)
	w, err := wire(cfg, logger, board)
	if err != nil {
		return err
	}
	defer w.ctrl.Dispose()
	serveMetrics(ctx, settings.GetString("metrics-addr"), w.recorder, logger)

	var configs chan viz.ConfigMsg
	if path := settings.GetString("config"); path != "" {
		configs = make(chan viz.ConfigMsg, 1)
		go func() {
			err := config.Watch(ctx, path, logger, func(next *config.Config, err error) {
				if next != nil {
					applyOverrides(next)
				}
				select {
				case configs <- viz.ConfigMsg{Config: next, Err: err}:
				case <-ctx.Done():
				}
			})
			if err != nil {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	return viz.Run(ctx, viz.Options{
		Config:     cfg,
		Controller: w.ctrl,
		Board:      board,
		Analyzer:   w.client,
		Store:      w.store,
		Logger:     logger,
		Configs:    configs,
		SaveSchematic: func(c *viz.Canvas) (string, error) {
			path := filepath.Join(settings.GetString("data"), "schematic-"+time.Now().Format("20060102-150405")+".svg")
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return "", err
			}
			return path, export.WriteFile(path, export.CanvasToSVG(c, 4))
		},
	})
}

func newBoard(cfg *config.Config) *viz.Board {
	req, err := cfg.ModelRequest()
	if err != nil {
		return viz.NewBoard(cfg.View.Window)
	}
	return viz.NewBoard(cfg.View.Window,
		metrics.NewKineticEnergy(req.FloorMass),
		metrics.NewDrift(req.Hc, driftLimit),
	)
}

