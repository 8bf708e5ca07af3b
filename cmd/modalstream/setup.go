package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/san-kum/modalstream/internal/config"
	"github.com/san-kum/modalstream/internal/metrics"
	"github.com/san-kum/modalstream/internal/modal"
	"github.com/san-kum/modalstream/internal/series"
	"github.com/san-kum/modalstream/internal/session"
	"github.com/san-kum/modalstream/internal/storage"
	"github.com/san-kum/modalstream/internal/stream"
)

// setupLogger builds the process logger. It returns a closer for the log
// file, if one was opened.
func setupLogger(fallback io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	switch strings.ToLower(settings.GetString("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	out, closer := fallback, func() {}
	if path := settings.GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}
	var handler slog.Handler
	if settings.GetBool("log-json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	logger := slog.New(handler).With("service", "modalstream", "pid", os.Getpid())
	slog.SetDefault(logger)
	return logger, closer, nil
}

// tuiLogWriter is where the tui logs when no log file was given; the
// terminal itself is taken.
func tuiLogWriter() (io.Writer, func(), error) {
	if settings.GetString("log-file") != "" {
		return io.Discard, func() {}, nil
	}
	dir := settings.GetString("data")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "modalstream.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// loadConfig resolves the building configuration: a config file wins over
// a preset, which wins over the defaults. The server flag overrides all.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if name := settings.GetString("preset"); name != "" {
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(config.ListPresets(), ", "))
		}
	}
	if path := settings.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if url := settings.GetString("server"); url != "" {
		cfg.Server.URL = url
	}
}

type wiring struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder *metrics.Recorder
	client   *modal.Client
	ctrl     *session.Controller
	store    *storage.Store
}

// wire builds the controller and its collaborators around renderer.
func wire(cfg *config.Config, logger *slog.Logger, renderer session.Renderer) (*wiring, error) {
	url, err := cfg.StreamURL()
	if err != nil {
		return nil, err
	}
	handshake := time.Duration(cfg.Server.HandshakeSeconds * float64(time.Second))

	client := modal.NewClient(cfg.Server.URL, logger)
	if cfg.Server.ModalPath != "" {
		client.Path = cfg.Server.ModalPath
	}

	rec := metrics.NewRecorder()
	ctrl := session.New(session.Options{
		Transport: stream.NewWebSocket(url, handshake, logger),
		Config:    cfg,
		Renderer:  renderer,
		Policy:    series.NewPolicy(cfg.View.Window, cfg.View.Tolerance),
		Logger:    logger,
		Metrics:   rec,
	})

	w := &wiring{cfg: cfg, logger: logger, recorder: rec, client: client, ctrl: ctrl}
	if settings.GetBool("record") {
		w.store = storage.New(settings.GetString("data"))
		if err := w.store.Init(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// serveMetrics exposes the recorder until ctx is done.
func serveMetrics(ctx context.Context, addr string, rec *metrics.Recorder, logger *slog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
}

// saveRecording stores the session's series with the final value of each
// metric. It is a no-op unless --record was given.
func saveRecording(w *wiring, ms ...metrics.Metric) (string, error) {
	set := w.ctrl.Series()
	if w.store == nil || set.Len() == 0 || set.At(0).Len() == 0 {
		return "", nil
	}
	meta := storage.RunMetadata{
		Stories: w.cfg.Model.Stories,
		Dt:      w.cfg.Simulation.Dt,
		Force:   w.cfg.Simulation.Force.Type,
		ForceHz: w.cfg.Simulation.Force.FrequencyHz,
		Metrics: make(map[string]float64, len(ms)),
	}
	for _, m := range ms {
		meta.Metrics[m.Name()] = m.Value()
	}
	return w.store.Save(meta, set)
}
