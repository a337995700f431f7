package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-courses/internal/api"
	"github.com/p-n-ai/pai-courses/internal/course"
	"github.com/p-n-ai/pai-courses/internal/platform/cache"
	"github.com/p-n-ai/pai-courses/internal/platform/config"
	"github.com/p-n-ai/pai-courses/internal/platform/database"
	"github.com/p-n-ai/pai-courses/internal/quality"
	"github.com/p-n-ai/pai-courses/internal/review"
)

// publishLockKey serializes publishes across replicas.
const publishLockKey = "courses:publish"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Database.Store, "cache", cfg.Cache.Enabled())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger. Level and format are validated by config.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

type app struct {
	mux     *http.ServeMux
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp connects the configured backends and wires the publish flow.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	rules, err := quality.LoadRules(cfg.Gate.RulesPath)
	if err != nil {
		return nil, err
	}

	a := &app{}
	checks := map[string]api.Checker{}
	hub := review.NewHub()
	notifiers := course.MultiNotifier{hub}

	var (
		store  course.Store
		events course.EventLogger
		locker course.Locker
	)

	switch cfg.Database.Store {
	case "memory":
		store = course.NewMemoryStore()
		events = course.NewMemoryEventLogger()
		slog.Warn("using in-memory store, data is lost on restart")
	default:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				a.close()
				return nil, err
			}
		}
		pg, err := course.NewPostgresStore(db.Pool)
		if err != nil {
			a.close()
			return nil, err
		}
		store = pg
		events = course.NewPostgresEventLogger(db.Pool)
		checks["database"] = db
	}

	if cfg.Cache.Enabled() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		checks["cache"] = c
		notifiers = append(notifiers, course.NewRedisNotifier(c.Client))
		if cfg.Gate.SerializePublish {
			locker = c.NewMutex(publishLockKey, time.Duration(cfg.Gate.LockTTLSeconds)*time.Second)
		}
	} else if cfg.Gate.SerializePublish {
		locker = course.NewMutexLocker()
	}

	pub := course.NewPublisher(course.PublisherConfig{
		Store:    store,
		Gate:     quality.NewGate(store, rules),
		Events:   events,
		Notifier: notifiers,
		Locker:   locker,
	})

	a.mux = api.NewMux(api.Config{
		Publisher:  pub,
		Feed:       hub,
		Checks:     checks,
		AdminToken: cfg.Admin.Token,
	})
	return a, nil
}
