package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/remediz/internal/catalog"
	"github.com/abhisek/remediz/internal/config"
	"github.com/abhisek/remediz/internal/level"
	"github.com/abhisek/remediz/internal/logger"
	"github.com/abhisek/remediz/internal/notify"
	"github.com/abhisek/remediz/internal/store"
)

// runtime holds what every command needs: settings, a logger and the store.
type runtime struct {
	cfg   config.Config
	log   *logger.Logger
	store *store.Store
}

// setup loads the environment, applies flag overrides, builds the logger
// and opens the store. TUI commands log to a file so the terminal stays
// clean.
func setup(cmd *cobra.Command, logToFile bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, &cfg)

	dbPath, err := resolveDBPath(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	logPath := cfg.Log.File
	if logToFile && logPath == "" {
		logPath = filepath.Join(filepath.Dir(dbPath), "remediz.log")
	}
	log, err := logger.New(cfg.Log.Mode, logPath)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "path", dbPath)
	return &runtime{cfg: cfg, log: log, store: st}, nil
}

// Close prunes the catalog cache and releases the store.
func (r *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.CatalogCache().Prune(ctx, r.cfg.Catalog.CacheKeep); err != nil {
		r.log.Warn("catalog cache prune failed", "error", err)
	}
	if err := r.store.Close(); err != nil {
		r.log.Warn("store close failed", "error", err)
	}
	r.log.Sync()
}

// source builds the catalog source: a local file, or the HTTP API behind
// retries and the SQLite cache.
func (r *runtime) source() (catalog.Source, error) {
	c := r.cfg.Catalog
	switch {
	case c.File != "":
		return catalog.NewFileSource(c.File), nil
	case c.URL != "":
		var src catalog.Source = catalog.NewHTTPSource(c.URL, c.Token, c.Timeout)
		src = catalog.WithRetry(src, r.cfg.Retry())
		return catalog.WithCache(src, r.store.CatalogCache(), r.log), nil
	}
	return nil, errors.New("no catalog configured: pass --catalog or set REMEDIZ_CATALOG_FILE or REMEDIZ_CATALOG_URL")
}

// telemetry records events locally and, when configured, posts them to the
// remote endpoint. Delivery never blocks the caller.
func (r *runtime) telemetry(runID string) *notify.Dispatcher {
	sinks := notify.Multi{notify.NewStoreSink(r.store.TelemetryRepo(), runID)}
	if n := r.cfg.Notify; n.URL != "" {
		sinks = append(sinks, notify.NewHTTPSink(n.URL, n.Token, n.Timeout))
	}
	return notify.NewDispatcher(sinks, r.cfg.Notify.Concurrency, r.cfg.Notify.Timeout, r.log.With("run", runID))
}

// flush waits briefly for in-flight telemetry.
func (r *runtime) flush(d *notify.Dispatcher) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Notify.Timeout)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		r.log.Warn("telemetry flush incomplete", "error", err)
	}
}

// learner returns the configured level, or a zero Level when none is set.
func (r *runtime) learner() level.Level {
	return level.Parse(r.cfg.Learner.Level)
}

// requireSelection fails unless both level and subject are configured.
func (r *runtime) requireSelection() (catalog.Selection, error) {
	l := r.learner()
	if l.IsZero() {
		return catalog.Selection{}, errors.New("--level is required")
	}
	if r.cfg.Learner.Subject == "" {
		return catalog.Selection{}, errors.New("--subject is required")
	}
	return catalog.Selection{Level: l, Subject: r.cfg.Learner.Subject}, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := flags.GetString("catalog"); v != "" {
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			cfg.Catalog.URL, cfg.Catalog.File = v, ""
		} else {
			cfg.Catalog.File = v
		}
	}
	if v, _ := flags.GetString("level"); v != "" {
		cfg.Learner.Level = v
	}
	if v, _ := flags.GetString("track"); v != "" {
		l := level.Parse(cfg.Learner.Level)
		cfg.Learner.Level = level.New(string(l.Stage), v).String()
	}
	if v, _ := flags.GetString("subject"); v != "" {
		cfg.Learner.Subject = v
	}
}

// resolveDBPath returns the database path using --db or REMEDIZ_DB first,
// then the default XDG path.
func resolveDBPath(p string) (string, error) {
	if p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
