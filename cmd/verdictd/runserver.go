package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/verityhq/verdict/pkg/api"
	"github.com/verityhq/verdict/pkg/audit"
	"github.com/verityhq/verdict/pkg/cache"
	"github.com/verityhq/verdict/pkg/compliance"
	"github.com/verityhq/verdict/pkg/config"
	"github.com/verityhq/verdict/pkg/contracts"
	"github.com/verityhq/verdict/pkg/engine"
	"github.com/verityhq/verdict/pkg/modules"
	"github.com/verityhq/verdict/pkg/observability"
	"github.com/verityhq/verdict/pkg/receipt"
	"github.com/verityhq/verdict/pkg/results"
	"github.com/verityhq/verdict/pkg/rules"
	"github.com/verityhq/verdict/pkg/store"
)

// serverVersion is stamped on spans and registered modules.
const serverVersion = "1.0.0"

//nolint:gocognit,gocyclo
func runServer() {
	log.Println("[verdict] pipeline starting")
	ctx := context.Background()
	cfg := config.Load()

	logger := setupLogger(cfg.LogLevel)

	// Observability (config-gated; disabled provider records nothing)
	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "verdict",
		ServiceVersion: serverVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Enabled:        cfg.TracingEnabled,
		Insecure:       cfg.Environment == "development",
	})
	if err != nil {
		log.Fatalf("Failed to init observability: %v", err)
	}
	if cfg.TracingEnabled {
		log.Printf("[verdict] tracing: exporting to %s", cfg.OTLPEndpoint)
	}

	// Result store: postgres when DATABASE_URL is set, embedded sqlite
	// otherwise.
	var (
		resultStore results.ResultStore
		recent      api.RecentLister
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open postgres: %v", err)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Postgres ping failed: %v", err)
		}
		pg := store.NewPostgresResultStore(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("Postgres migration failed: %v", err)
		}
		resultStore, recent = pg, pg
		log.Println("[verdict] store: postgres")
	} else {
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open sqlite: %v", err)
		}
		lite, err := store.NewSQLiteResultStore(db)
		if err != nil {
			log.Fatalf("SQLite migration failed: %v", err)
		}
		resultStore, recent = lite, lite
		log.Printf("[verdict] store: sqlite (%s)", cfg.SQLitePath)
	}

	// Result cache: redis when REDIS_ADDR is set, in-process otherwise.
	var resultCache cache.Cache
	if cfg.RedisAddr != "" {
		redis := cache.NewRedis(cfg.RedisAddr, os.Getenv("REDIS_PASSWORD"), 0, cfg.CacheTTL)
		defer redis.Close()
		resultCache = redis
		log.Printf("[verdict] cache: redis (%s)", cfg.RedisAddr)
	} else {
		resultCache = cache.NewMemory(cfg.CacheSize, cfg.CacheTTL)
		log.Println("[verdict] cache: memory")
	}

	// Scoring policy, optionally from a named YAML profile.
	policy := results.DefaultPolicy()
	if cfg.ScoringProfile != "" {
		profile, err := config.LoadScoringProfile(cfg.ProfilesDir, cfg.ScoringProfile)
		if err != nil {
			log.Fatalf("Failed to load scoring profile %q: %v", cfg.ScoringProfile, err)
		}
		policy = profile.Policy()
		log.Printf("[verdict] scoring profile: %s", profile.Name)
	}

	processor := results.NewProcessor(results.Config{
		Cache:  resultCache,
		Store:  resultStore,
		Policy: policy,
		Logger: logger,
	})

	// Audit sinks: structured log always, hash chain for evidence export,
	// kafka when brokers are configured.
	chain := audit.NewChainStore()
	sinks := []audit.Sink{audit.NewSlogSink(logger), chain}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Fatalf("Failed to init kafka sink: %v", err)
		}
		defer kafka.Close()
		sinks = append(sinks, kafka)
		log.Printf("[verdict] audit: kafka (%s)", strings.Join(cfg.KafkaBrokers, ","))
	}

	// Compliance rules and one module per domain.
	ruleSet, err := rules.LoadDir(cfg.RulesDir)
	if err != nil {
		log.Fatalf("Failed to load rules from %s: %v", cfg.RulesDir, err)
	}
	if len(ruleSet) == 0 {
		log.Printf("[verdict] rules: none found in %s; modules start empty", cfg.RulesDir)
	} else {
		log.Printf("[verdict] rules: %d loaded", len(ruleSet))
	}
	ruleStore := rules.NewMemoryStore()
	ruleStore.PutAll(ruleSet)

	scorer, err := compliance.NewScorer(ruleStore, compliance.DefaultPolicy(), logger)
	if err != nil {
		log.Fatalf("Failed to init scorer: %v", err)
	}
	registry := modules.NewRegistry()
	for _, domain := range contracts.Domains() {
		module := compliance.NewModule(scorer, domain, cfg.Jurisdiction, serverVersion)
		if err := registry.Register(module); err != nil {
			log.Fatalf("Failed to register %s module: %v", domain, err)
		}
	}

	eng := engine.New(engine.Config{
		Registry:      registry,
		Processor:     processor,
		Sink:          audit.Fanout(sinks...),
		Logger:        logger,
		MaxConcurrent: cfg.MaxConcurrent,
		ModuleTimeout: cfg.ModuleTimeout,
	})

	// Receipts. Keys are ephemeral; restarting the server invalidates
	// receipts issued before the restart.
	keys, err := receipt.NewInMemoryKeySet()
	if err != nil {
		log.Fatalf("Failed to init receipt keys: %v", err)
	}
	issuer := receipt.NewIssuer(keys, cfg.ReceiptIssuer, cfg.ReceiptAudience, cfg.ReceiptTTL)

	limiter := api.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	defer limiter.Close()

	server := api.NewServer(api.Config{
		Engine:   &tracedEngine{Engine: eng, obs: obs},
		Results:  processor,
		Recent:   recent,
		Receipts: issuer,
		Limiter:  limiter,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[verdict] ready: http://localhost:%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("[verdict] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[verdict] http shutdown: %v", err)
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Printf("[verdict] observability shutdown: %v", err)
	}
}

// setupLogger installs a JSON slog logger at the configured level as the
// process default and returns it.
func setupLogger(level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel maps a level name to a slog.Level. Unknown names fall back
// to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
