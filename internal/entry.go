// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/nuage/internal/api"
	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/checksum"
	"github.com/starford/nuage/internal/kv"
	"github.com/starford/nuage/internal/metrics"
	"github.com/starford/nuage/internal/models"
	"github.com/starford/nuage/internal/notestore"
	"github.com/starford/nuage/internal/record"
	"github.com/starford/nuage/internal/sse"
	"github.com/starford/nuage/internal/watcher"
	"github.com/starford/nuage/internal/widget"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg, app.logOut, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("assets_path", cfg.Assets.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Assets.Path, 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer svc.Close()
	svc.prime(ctx)

	broker := sse.NewBroker(cfg.Widget.Throttle)
	defer broker.Close()
	feed := widget.NewFeed(broker, widget.WithCounter(svc.metrics), widget.WithLogger(logger))
	svc.store.OnSaved(feed.OnSaved)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRouter(svc, cfg, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Other processes may edit the data directory of the fs backend.
	if svc.fs != nil {
		w := watcher.New(svc.fs, svc.tracker,
			watcher.WithDebounce(cfg.Widget.Debounce),
			watcher.WithLogger(logger))
		g.Go(func() error {
			if err := w.Run(gCtx, svc.onExternalChange(feed)); err != nil {
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		defer cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func newLogger(cfg *Config, out, fallback io.Writer) *slog.Logger {
	if out == nil {
		out = fallback
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// services holds what every command opens from the config.
type services struct {
	logger   *slog.Logger
	provider kv.Provider
	fs       *kv.FS            // set for the fs driver only
	tracker  *checksum.Tracker // set with fs
	store    *notestore.Store
	factory  *record.Factory
	metrics  *metrics.Metrics
}

func openServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*services, error) {
	raw, err := kv.Open(ctx, cfg.Storage.Options())
	if err != nil {
		return nil, err
	}

	svc := &services{
		logger:   logger,
		provider: raw,
		factory:  record.NewFactory(time.Now),
		metrics:  metrics.New(),
	}

	provider := raw
	if fs, ok := raw.(*kv.FS); ok {
		svc.fs = fs
		svc.tracker = checksum.NewTracker()
		provider = svc.tracker.Wrap(raw)
	}

	svc.store = notestore.New(provider,
		notestore.WithLogger(logger),
		notestore.WithObserver(svc.metrics))
	svc.store.OnSaved(func(_ context.Context, notes []models.Note) {
		svc.factory.IDs().Observe(noteIDs(notes)...)
	})
	return svc, nil
}

// prime loads the collection once so pending legacy data is migrated and new
// ids start above every stored one.
func (s *services) prime(ctx context.Context) {
	notes, err := s.store.LoadAll(ctx)
	if err != nil {
		s.logger.Warn("initial load failed", slog.String("error", err.Error()))
		return
	}
	s.factory.IDs().Observe(noteIDs(notes)...)
	s.logger.Info("notes loaded", slog.Int("count", len(notes)))
}

func (s *services) onExternalChange(feed *widget.Feed) watcher.Callback {
	return func(ctx context.Context, key string, _ []byte) {
		if key != models.NotesKey && key != models.LegacyKey {
			return
		}
		notes, err := s.store.LoadAll(ctx)
		if err != nil {
			s.logger.Warn("reload after outside change failed", slog.String("error", err.Error()))
			return
		}
		s.factory.IDs().Observe(noteIDs(notes)...)
		feed.External(len(notes))
	}
}

func (s *services) Close() {
	if err := s.provider.Close(); err != nil {
		s.logger.Warn("close storage", slog.String("error", err.Error()))
	}
}

func noteIDs(notes []models.Note) []models.ID {
	ids := make([]models.ID, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}

func newRouter(svc *services, cfg *Config, events http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		// A corrupt payload still lets the service answer; only an
		// unreachable backend makes it unready.
		if _, err := svc.store.LoadAll(r.Context()); apperr.IsKind(err, apperr.KindStorageUnavailable) {
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", svc.metrics.Handler())

	r.Mount("/api", api.NewRouter(svc.store, svc.factory,
		cfg.Auth.AuthEnabled(), cfg.Auth.Token, events, cfg.Assets.Path))

	return r
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}
