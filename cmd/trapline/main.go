// Command trapline runs the scam-baiting honeypot service: an HTTP
// API that detects scam messages, engages the sender with a believable
// victim persona, and mines the conversation for actionable fraud
// indicators.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/trapline-dev/trapline/internal/api"
	"github.com/trapline-dev/trapline/internal/detect"
	"github.com/trapline-dev/trapline/internal/engage"
	"github.com/trapline-dev/trapline/internal/honeypot"
	"github.com/trapline-dev/trapline/internal/llm/provider"
	"github.com/trapline-dev/trapline/internal/session"
	"github.com/trapline-dev/trapline/pkg/config"
	"github.com/trapline-dev/trapline/pkg/observability"
)

// Version information (set via ldflags)
var Version = "dev"

var (
	configFile = flag.String("config", getEnv("CONFIG_FILE", ""), "Configuration file (YAML)")
	httpPort   = flag.Int("http-port", getEnvInt("PORT", 0), "API port (overrides config)")
	logLevel   = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *httpPort != 0 {
		cfg.Server.Port = *httpPort
	}

	logger.Info("starting trapline", "version", Version, "port", cfg.Server.Port, "provider", cfg.Provider.Name)

	observability.InitMetrics()

	tracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "trapline",
		Enabled:      cfg.Tracing.Enabled,
		ExporterType: cfg.Tracing.ExporterType,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Model provider: one backend serves both detection and replies.
	llm, err := provider.New(cfg.Provider.Name, provider.Config{
		APIKey:    cfg.Provider.APIKey,
		BaseURL:   cfg.Provider.BaseURL,
		ProjectID: cfg.Provider.GCPProject,
		Location:  cfg.Provider.GCPLocation,
	})
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	defer llm.Close()

	// Session storage: Redis primary with in-memory failover. A dead
	// Redis at boot is survivable; the failover layer keeps retrying it.
	store := buildStore(startCtx, cfg, logger)
	defer store.Close()

	var detectOpts []detect.Option
	if cfg.Provider.ClassifierModel != "" {
		detectOpts = append(detectOpts, detect.WithModel(cfg.Provider.ClassifierModel))
	}
	if cfg.Detection.Threshold > 0 {
		detectOpts = append(detectOpts, detect.WithThreshold(cfg.Detection.Threshold))
	}
	detector := detect.New(llm, logger, detectOpts...)

	var engineOpts []engage.EngineOption
	if cfg.Provider.ReplyModel != "" {
		engineOpts = append(engineOpts, engage.WithReplyModel(cfg.Provider.ReplyModel))
	}
	engine := engage.NewEngine(llm, logger, engineOpts...)

	serviceOpts := []honeypot.ServiceOption{
		honeypot.WithTracer(tracing.Tracer()),
		honeypot.WithDegradedFunc(store.Degraded),
	}

	checker := observability.NewHealthChecker(Version)
	checker.RegisterCheck(observability.StoreCheck(store.Ping))

	// Optional Postgres audit trail.
	if cfg.PostgresDSN != "" {
		audit, err := session.NewAuditStore(startCtx, cfg.PostgresDSN, logger)
		if err != nil {
			// Audit is best-effort by contract; boot without it.
			logger.Warn("audit store unavailable, continuing without it", "error", err)
		} else {
			defer audit.Close()
			serviceOpts = append(serviceOpts, honeypot.WithAuditor(audit))
			checker.RegisterCheck(observability.AuditCheck(audit.Ping))
		}
	}

	service := honeypot.NewService(detector, engine, store, logger, serviceOpts...)
	server := api.NewServer(cfg.Server, service, checker, logger)

	errChan := make(chan error, 2)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	var obsServer *observability.Server
	if cfg.ObservabilityPort != 0 {
		obsServer = observability.NewServer(cfg.ObservabilityPort, checker)
		go func() {
			logger.Info("observability server starting", "port", cfg.ObservabilityPort)
			if err := obsServer.Start(); err != nil {
				errChan <- fmt.Errorf("observability server: %w", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Error("server failed", "error", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("observability shutdown error", "error", err)
		}
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", "error", err)
	}

	logger.Info("stopped")
	return nil
}

// buildStore connects the Redis primary and wraps it with the
// in-memory failover layer.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) *session.FailoverStore {
	fallback := session.NewMemoryStore(cfg.Redis.TTL)

	primary, err := session.NewRedisStore(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unreachable at startup, sessions are in-memory until it recovers",
			"addr", cfg.Redis.Addr, "error", err)
		// Dial lazily: the client reconnects once Redis is back.
		primary = session.NewRedisStoreFromClient(session.NewRedisClient(cfg.Redis), cfg.Redis)
	}

	return session.NewFailoverStore(primary, fallback, logger)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
