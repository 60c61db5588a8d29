package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "recall",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    60 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 15 * time.Second,
				RequestTimeout:  45 * time.Second,
				MaxHeaderBytes:  1 << 20, // 1MB
			},
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
				ExposedHeaders: []string{"X-Request-ID"},
				MaxAge:         300,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Storage: StorageConfig{
			Type: "memory",
			Badger: BadgerConfig{
				Path:              "./data/badger",
				SyncWrites:        true,
				ValueLogFileSize:  1 << 28, // 256MB
				NumVersionsToKeep: 1,
				L1CacheSize:       1000,
			},
			SQLite: SQLiteConfig{
				Path: "./data/recall.db",
			},
			Remote: RemoteConfig{
				Timeout: 10 * time.Second,
			},
		},
		Cache: CacheConfig{
			Type:       "memory",
			TTL:        10 * time.Minute,
			MaxEntries: 1024,
			Redis: RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "recall:cache:",
			},
		},
		Generator: GeneratorConfig{
			Provider:    "none",
			MaxTokens:   1024,
			Temperature: 0.7,
			Timeout:     30 * time.Second,
			RateLimit:   1,
			Burst:       5,
		},
		Insight: InsightConfig{
			StaleDays:       7,
			StaleBacklogMin: 5,
			UpcomingDays:    3,
			MaxAlerts:       5,
			QuizConcurrency: 4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlp",
			Endpoint:   "localhost:4317",
			Timeout:    5 * time.Second,
			Sampler:    "ratio",
			SampleRate: 0.1,
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			MaxConnections: 1000,
			PingInterval:   30 * time.Second,
			PongTimeout:    60 * time.Second,
			Relay: RelayConfig{
				Channel: "recall:events",
			},
		},
	}
}
