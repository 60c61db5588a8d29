// Package bootstrap turns a loaded configuration into the process-wide
// collaborators: logger, store, cache, generator and the insight and quiz
// services. Both binaries share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/pkg/alerts"
	"github.com/recallhq/recall/pkg/cache"
	cachemem "github.com/recallhq/recall/pkg/cache/memory"
	cacheredis "github.com/recallhq/recall/pkg/cache/redis"
	"github.com/recallhq/recall/pkg/generator"
	"github.com/recallhq/recall/pkg/generator/anthropic"
	"github.com/recallhq/recall/pkg/generator/openai"
	"github.com/recallhq/recall/pkg/insight"
	"github.com/recallhq/recall/pkg/logger"
	"github.com/recallhq/recall/pkg/metrics"
	"github.com/recallhq/recall/pkg/patterns"
	"github.com/recallhq/recall/pkg/quiz"
	"github.com/recallhq/recall/pkg/relevance"
	"github.com/recallhq/recall/pkg/storage"
	"github.com/recallhq/recall/pkg/storage/badger"
	memstore "github.com/recallhq/recall/pkg/storage/memory"
	"github.com/recallhq/recall/pkg/storage/remote"
	"github.com/recallhq/recall/pkg/storage/sqlite"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 3 * time.Second

// readyProbeTag is listed by the readiness check. It never holds records.
const readyProbeTag = "__ready__"

// NewLogger builds the root logger. Debug mode forces the debug level.
func NewLogger(cfg *config.Config) logger.Logger {
	level := logger.ParseLevel(cfg.Log.Level)
	if cfg.App.Debug {
		level = logger.DebugLevel
	}
	return logger.New(&logger.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Tee:    cfg.Log.Tee,
	})
}

// NewStore opens the configured storage backend.
func NewStore(cfg *config.Config) (storage.Store, error) {
	sc := cfg.Storage
	switch sc.Type {
	case "", "memory":
		return memstore.New(), nil
	case "badger":
		return badger.New(&badger.Config{
			Path:              sc.Badger.Path,
			SyncWrites:        sc.Badger.SyncWrites,
			ValueLogFileSize:  sc.Badger.ValueLogFileSize,
			NumVersionsToKeep: sc.Badger.NumVersionsToKeep,
			L1CacheSize:       sc.Badger.L1CacheSize,
		})
	case "sqlite":
		return sqlite.New(&sqlite.Config{Path: sc.SQLite.Path})
	case "remote":
		return remote.New(&remote.Config{
			BaseURL: sc.Remote.BaseURL,
			APIKey:  sc.Remote.APIKey,
			Timeout: sc.Remote.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", sc.Type)
	}
}

// ReadyCheck probes the store with a one-record listing.
func ReadyCheck(store storage.Store) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := store.List(ctx, readyProbeTag, storage.Filter{Limit: 1})
		return err
	}
}

// NewCache builds the coaching cache. An unreachable Redis degrades to no
// caching rather than failing startup. The returned close func is never nil.
func NewCache(ctx context.Context, cfg *config.Config, log logger.Logger) (cache.Cache, func() error, error) {
	noClose := func() error { return nil }

	cc := cfg.Cache
	switch cc.Type {
	case "", "none":
		return cache.Nop{}, noClose, nil
	case "memory":
		return cachemem.New(cachemem.WithMaxEntries(cc.MaxEntries)), noClose, nil
	case "redis":
		client := NewRedisClient(cfg)
		c := cacheredis.New(client, cc.Redis.KeyPrefix, log)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := c.Ping(pingCtx); err != nil {
			log.Warn("Redis unreachable, coaching cache disabled",
				"address", cc.Redis.Address,
				"error", err,
			)
			_ = client.Close()
			return cache.Nop{}, noClose, nil
		}
		return c, client.Close, nil
	default:
		return nil, noClose, fmt.Errorf("unsupported cache type: %s", cc.Type)
	}
}

// NewRedisClient connects to the Redis server configured under cache.redis.
// The event relay shares it with the cache.
func NewRedisClient(cfg *config.Config) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.Redis.Address,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
}

// NewGenerator builds the configured generator wrapped with a per-call
// timeout, the rate limiter and metrics. Provider "none" yields
// generator.Unavailable so every AI path takes its fallback.
func NewGenerator(cfg *config.Config) (generator.Generator, error) {
	gc := cfg.Generator
	opts := []generator.Option{
		generator.WithAPIKey(gc.APIKey),
		generator.WithModel(gc.Model),
		generator.WithBaseURL(gc.BaseURL),
		generator.WithMaxTokens(gc.MaxTokens),
		generator.WithTemperature(gc.Temperature),
	}

	var gen generator.Generator
	switch gc.Provider {
	case "", "none":
		return generator.Unavailable{}, nil
	case "anthropic":
		if gc.APIKey == "" {
			return nil, errors.New("anthropic provider requires generator.api_key")
		}
		gen = anthropic.NewGenerator(opts...)
	case "openai":
		if gc.APIKey == "" {
			return nil, errors.New("openai provider requires generator.api_key")
		}
		gen = openai.NewGenerator(opts...)
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", gc.Provider)
	}

	gen = generator.WithTimeout(gen, gc.Timeout)
	if gc.RateLimit > 0 {
		burst := gc.Burst
		if burst < 1 {
			burst = 1
		}
		gen = generator.RateLimited(gen, rate.NewLimiter(rate.Limit(gc.RateLimit), burst))
	}
	return generator.Instrumented(gen, gc.Provider), nil
}

// Thresholds maps the insight configuration onto alert rule thresholds.
func Thresholds(ic config.InsightConfig) alerts.Thresholds {
	t := alerts.DefaultThresholds()
	if ic.StaleDays > 0 {
		t.StaleDays = ic.StaleDays
	}
	if ic.StaleBacklogMin > 0 {
		t.StaleBacklogMin = ic.StaleBacklogMin
	}
	if ic.UpcomingDays > 0 {
		t.UpcomingDays = ic.UpcomingDays
	}
	if ic.MaxAlerts > 0 {
		t.MaxAlerts = ic.MaxAlerts
	}
	return t
}

// Services bundles the domain services built over one store.
type Services struct {
	Insight *insight.Service
	Quiz    *quiz.Service
}

// NewServices wires the scorer, detector, rules and coach into the insight
// and quiz services.
func NewServices(cfg *config.Config, store storage.Store, c cache.Cache, gen generator.Generator, log logger.Logger) *Services {
	rules := alerts.NewRules(alerts.WithThresholds(Thresholds(cfg.Insight)))
	detector := patterns.NewDetector()

	coachOpts := []alerts.CoachOption{
		alerts.WithCache(c),
		alerts.WithRules(rules),
		alerts.WithDetector(detector),
		alerts.WithLogger(log),
	}
	if cfg.Cache.TTL > 0 {
		coachOpts = append(coachOpts, alerts.WithCacheTTL(cfg.Cache.TTL))
	}
	coach := alerts.NewCoach(gen, coachOpts...)

	return &Services{
		Insight: insight.NewService(store,
			insight.WithScorer(relevance.NewScorer()),
			insight.WithDetector(detector),
			insight.WithCoach(coach),
			insight.WithGenerator(gen),
			insight.WithLogger(log),
		),
		Quiz: quiz.NewService(store,
			quiz.WithGenerator(gen),
			quiz.WithConcurrency(cfg.Insight.QuizConcurrency),
			quiz.WithLogger(log),
		),
	}
}

// InstallMetrics points every domain package's recorder at m.
func InstallMetrics(m *metrics.Manager) {
	alerts.SetMetricsRecorder(m)
	quiz.SetMetricsRecorder(m)
	insight.SetMetricsRecorder(m)
	generator.SetMetricsRecorder(m)
}
