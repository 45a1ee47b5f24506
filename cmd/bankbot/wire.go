package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bankbot/internal/cache"
	"bankbot/internal/config"
	"bankbot/internal/convo"
	"bankbot/internal/metrics"
	"bankbot/internal/nlu"
	"bankbot/internal/repo"
	"bankbot/internal/session"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const sessionKeyPrefix = "bankbot:session:"

type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	store    repo.Store
	redis    *cache.Redis
	models   *nlu.Registry
	sweeper  *session.Sweeper
	manager  *session.Manager
}

func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func wireApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg, logOut)
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(cfg.MetricsNamespace, registry),
	}

	if a.store, err = openStore(ctx, cfg, logger); err != nil {
		return nil, err
	}

	if cfg.NeedsRedis() {
		a.redis, err = cache.NewRedis(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	a.models = nlu.NewRegistry(a.modelBuilder(), logger)
	if cfg.ClassifierBackend != nlu.BackendNone {
		if _, err := a.models.Reload(ctx); err != nil {
			a.metrics.Errors.WithLabelValues("classifier_reload").Inc()
			logger.Warn("classifier unavailable, routing with rules only", "error", err)
		}
	}

	faq := convo.DefaultFAQ()
	if cfg.FAQPath != "" {
		custom, err := convo.LoadFAQ(cfg.FAQPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		faq = custom.Merge(faq)
		logger.Info("faq table loaded", "path", cfg.FAQPath, "entries", custom.Len())
	}

	var store session.Store
	switch cfg.SessionBackend {
	case "redis":
		store = session.NewRedisStore(a.redis, sessionKeyPrefix, cfg.SessionIdleTimeout)
	default:
		mem := session.NewMemoryStore()
		a.sweeper = session.NewSweeper(mem, cfg.SessionIdleTimeout, a.metrics, logger)
		store = mem
	}

	engine := convo.New(a.store, a.models, faq, a.metrics, logger, convo.Options{
		Threshold:      cfg.ClassifierThreshold,
		RuleConfidence: cfg.RuleConfidence,
	})
	a.manager = session.NewManager(store, engine, a.metrics, logger)
	return a, nil
}

func (a *app) modelBuilder() nlu.Builder {
	if a.cfg.ClassifierBackend == nlu.BackendNone {
		return nil
	}
	return nlu.NewBuilder(nlu.BuildConfig{
		Backend:        a.cfg.ClassifierBackend,
		CorpusPath:     a.cfg.CorpusPath,
		CorpusEncoding: a.cfg.CorpusEncoding,
		OpenAI: nlu.OpenAIConfig{
			APIKey:  a.cfg.OpenAIAPIKey,
			BaseURL: a.cfg.OpenAIBaseURL,
			Model:   a.cfg.OpenAIModel,
			Timeout: a.cfg.OpenAITimeout,
		},
	}, a.metrics, a.logger)
}

// startSweeper runs the idle-session sweep for the in-memory store.
func (a *app) startSweeper() error {
	if a.sweeper == nil {
		return nil
	}
	return a.sweeper.Start(a.cfg.SessionSweepSchedule)
}

// Close releases every opened collaborator.
func (a *app) Close() {
	if a.sweeper != nil {
		select {
		case <-a.sweeper.Stop().Done():
		case <-time.After(5 * time.Second):
			a.logger.Warn("session sweep still running at shutdown")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed closing redis", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed closing store", "error", err)
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repo.Store, error) {
	switch cfg.StorageDriver {
	case "postgres":
		store, err := repo.NewPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, nil
	default:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		store, err := repo.NewSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	}
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.AppEnv, "production") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
