package main

// @title recall API
// @version 1.0
// @description Personal memory service: notes, retention quizzes, alerts, patterns and digests.

// @contact.name API Support
// @contact.url https://github.com/recallhq/recall

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/internal/bootstrap"
	"github.com/recallhq/recall/pkg/api"
	"github.com/recallhq/recall/pkg/api/events"
	"github.com/recallhq/recall/pkg/api/handlers"
	"github.com/recallhq/recall/pkg/logger"
	"github.com/recallhq/recall/pkg/metrics"
	"github.com/recallhq/recall/pkg/storage"
	"github.com/recallhq/recall/pkg/telemetry/tracing"
	"github.com/recallhq/recall/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	appName     = flag.String("app-name", "", "Override app name")
	serverPort  = flag.Int("port", 0, "Override server port")
	logLevel    = flag.String("log-level", "", "Override log level")
	storageType = flag.String("storage", "", "Override storage backend (memory, badger, sqlite, remote)")
	provider    = flag.String("generator", "", "Override generator provider (none, anthropic, openai)")
	debugMode   = flag.Bool("debug", false, "Enable debug mode")
	watchConfig = flag.Bool("watch", false, "Reload hot-reloadable settings when the config file changes")
)

const shutdownTimeout = 30 * time.Second

func main() {
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath, buildOverrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	log := bootstrap.NewLogger(cfg)
	logger.SetGlobal(log)
	defer log.Close()

	log.Info("Starting recall",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	if *watchConfig && *configPath != "" {
		startWatcher(ctx, *configPath, log)
	}

	if err := a.run(ctx); err != nil {
		log.Error("recall stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("recall stopped gracefully")
}

// app owns the process-wide collaborators and their lifecycles.
type app struct {
	cfg *config.Config
	log logger.Logger

	store       storage.Store
	closeCache  func() error
	metrics     *metrics.Manager
	broadcaster *events.Broadcaster
	ws          *handlers.WebSocketHandler
	relay       *events.Relay
	server      *api.HTTPServer
	tracingStop tracing.ShutdownFunc
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, tracing.Service{
		Name:        cfg.App.Name,
		Version:     version.Version,
		Environment: cfg.App.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	store, err := bootstrap.NewStore(cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Type, err)
	}
	log.Info("Initialized storage", "type", cfg.Storage.Type)

	c, closeCache, err := bootstrap.NewCache(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("init cache: %w", err)
	}

	gen, err := bootstrap.NewGenerator(cfg)
	if err != nil {
		_ = closeCache()
		_ = store.Close()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("init generator: %w", err)
	}
	log.Info("Initialized generator", "provider", cfg.Generator.Provider, "model", cfg.Generator.Model)

	def := metrics.DefaultConfig()
	m := metrics.NewManager(metrics.Config{
		Enabled:                   cfg.Metrics.Enabled,
		Port:                      cfg.Metrics.Port,
		Path:                      cfg.Metrics.Path,
		GenerationDurationBuckets: def.GenerationDurationBuckets,
		HTTPDurationBuckets:       def.HTTPDurationBuckets,
	})
	bootstrap.InstallMetrics(m)

	svc := bootstrap.NewServices(cfg, store, c, gen, log)

	b := events.NewBroadcaster()
	ws := handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		MaxConnections: cfg.WebSocket.MaxConnections,
		PingInterval:   cfg.WebSocket.PingInterval,
		PongTimeout:    cfg.WebSocket.PongTimeout,
	}, m)

	var relay *events.Relay
	if cfg.WebSocket.Relay.Enabled {
		client := bootstrap.NewRedisClient(cfg)
		relay = events.NewRelay(client, cfg.WebSocket.Relay.Channel, b, log)
		prevClose := closeCache
		closeCache = func() error {
			return errors.Join(client.Close(), prevClose())
		}
		log.Info("Event relay enabled", "channel", cfg.WebSocket.Relay.Channel, "origin", relay.Origin())
	}

	h := &api.Handlers{
		Memory:  handlers.NewMemoryHandler(store, b, log),
		Quiz:    handlers.NewQuizHandler(svc.Quiz, b, log),
		Insight: handlers.NewInsightHandler(svc.Insight, b, log),
		Health: handlers.NewHealthHandler(handlers.StatusInfo{
			Storage:   cfg.Storage.Type,
			Cache:     cfg.Cache.Type,
			Generator: cfg.Generator.Provider,
		}, bootstrap.ReadyCheck(store), ws),
		WebSocket: ws,
		Metrics:   m,
	}

	return &app{
		cfg:         cfg,
		log:         log,
		store:       store,
		closeCache:  closeCache,
		metrics:     m,
		broadcaster: b,
		ws:          ws,
		relay:       relay,
		server:      api.NewHTTPServer(cfg, log, h),
		tracingStop: shutdownTracing,
	}, nil
}

// run serves until ctx is cancelled or the HTTP server fails, then shuts
// everything down in reverse order.
func (a *app) run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.ws.Forward(runCtx, a.broadcaster.Subscribe(256))

	if a.relay != nil {
		go func() {
			if err := a.relay.Run(runCtx); err != nil {
				a.log.Error("Event relay stopped", "error", err)
			}
		}()
	}

	if a.metrics.Enabled() {
		go func() {
			a.log.Info("Starting metrics server", "port", a.cfg.Metrics.Port, "path", a.cfg.Metrics.Path)
			if err := a.metrics.StartServer(runCtx, a.cfg.Metrics.Port, a.cfg.Metrics.Path); err != nil {
				a.log.Error("Metrics server error", "error", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start()
	}()

	a.log.Info("recall is running",
		"http_port", a.cfg.Server.Port,
		"metrics_port", a.cfg.Metrics.Port,
		"storage", a.cfg.Storage.Type,
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			a.log.Error("HTTP server error", "error", err)
			runErr = err
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	a.shutdown(shutdownCtx)
	return runErr
}

func (a *app) shutdown(ctx context.Context) {
	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("Error shutting down HTTP server", "error", err)
	}
	a.broadcaster.Close()
	a.ws.Close()

	if err := a.closeCache(); err != nil {
		a.log.Error("Error closing cache", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Error("Error closing storage", "error", err)
	}
	if err := a.tracingStop(ctx); err != nil {
		a.log.Error("Error flushing traces", "error", err)
	}
}

// startWatcher applies log level changes without a restart. Other settings
// are logged and take effect on the next start.
func startWatcher(ctx context.Context, path string, log logger.Logger) {
	w, err := config.NewWatcher(path, nil, config.WithWatcherLogger(log))
	if err != nil {
		log.Warn("Config watcher disabled", "error", err)
		return
	}
	w.OnChange(func(cfg *config.Config) {
		level := logger.ParseLevel(cfg.Log.Level)
		if level != log.GetLevel() {
			log.SetLevel(level)
			log.Info("Log level changed", "level", level.String())
		}
	})
	go func() {
		defer w.Stop()
		if err := w.Watch(ctx); err != nil {
			log.Warn("Config watcher stopped", "error", err)
		}
	}()
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *storageType != "" {
		overrides["storage.type"] = *storageType
	}
	if *provider != "" {
		overrides["generator.provider"] = *provider
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("recall - personal memory service\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("recall - personal memory service with retention quizzes, alerts and digests\n\n")
	fmt.Printf("Usage: recall [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  recall                                   # Run with default config\n")
	fmt.Printf("  recall -config config.yaml -watch        # Use a config file and hot-reload the log level\n")
	fmt.Printf("  recall -port 9090 -storage sqlite        # Override specific options\n")
	fmt.Printf("  recall -version                          # Print version info\n")
}
