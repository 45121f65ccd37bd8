package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/patientshare/internal/audit"
	"github.com/MrSnakeDoc/patientshare/internal/config"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver"
	"github.com/MrSnakeDoc/patientshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/ratelimit"
	"github.com/MrSnakeDoc/patientshare/internal/redis"
	"github.com/MrSnakeDoc/patientshare/internal/scheduler"
	"github.com/MrSnakeDoc/patientshare/internal/share"
	"github.com/MrSnakeDoc/patientshare/internal/signer"
	"github.com/MrSnakeDoc/patientshare/internal/store"
	redisstore "github.com/MrSnakeDoc/patientshare/internal/store/redis"
	"github.com/MrSnakeDoc/patientshare/internal/utils"
	"github.com/MrSnakeDoc/patientshare/internal/version"
)

// adminRate throttles the admin endpoints per client.
var adminRate = ratelimit.Config{Points: 30, Window: time.Minute}

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	store       store.Store
	audit       audit.Recorder
	sweeper     *scheduler.Sweeper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis is only dialled when a component needs it - fail fast if unavailable
	var redisClient *goredis.Client
	if cfg.NeedsRedis() {
		client, err := redis.Connect(context.Background(), redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
	}

	// Share store
	storeOpts := store.Options{TTL: cfg.ShareTTL, Retention: cfg.ShareRetention}
	var st store.Store
	switch cfg.StoreBackend {
	case config.StoreRedis:
		st = redisstore.NewStore(redisClient, storeOpts)
	default:
		st = store.NewMemory(storeOpts)
	}

	// Ingestion rate limiter
	limitCfg := ratelimit.Config{Points: cfg.RateLimitPoints, Window: cfg.RateLimitWindow}
	var limiter ratelimit.Limiter
	switch cfg.RateLimitBackend {
	case config.StoreRedis:
		limiter = ratelimit.NewRedis(redisClient, limitCfg, ratelimit.DefaultKeyPrefix)
	default:
		limiter = ratelimit.NewMemory(ratelimit.MemoryConfig{
			Config:     limitCfg,
			MaxEntries: cfg.RateLimitMaxEntries,
		})
	}

	// Audit log
	var rec audit.Recorder
	switch cfg.AuditDriver {
	case config.AuditMemory:
		rec = audit.NewMemory(cfg.AuditCapacity)
	default:
		g, err := audit.OpenSQLite(cfg.AuditDSN)
		if err != nil {
			loggerClient.Errorf("Failed to open audit log: %v", err)
			os.Exit(1)
		}
		rec = g
	}

	sig, err := signer.New(cfg.WebhookSecret)
	if err != nil {
		loggerClient.Errorf("Invalid webhook secret: %v", err)
		os.Exit(1)
	}

	shares := share.New(st, limiter, sig, rec, loggerClient, cfg.BaseURL)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		CORSOrigins:     cfg.CORSOrigins,
		Shares:          shares,
		Store:           st,
		Audit:           rec,
		Signer:          sig,
		RateLimitPoints: cfg.RateLimitPoints,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		SigningEndpoint: cfg.SigningEndpoint,
		Backends: map[string]string{
			"store":      cfg.StoreBackend,
			"rate_limit": cfg.RateLimitBackend,
			"audit":      cfg.AuditDriver,
		},
		AdminLimiter: ratelimit.NewMemory(ratelimit.MemoryConfig{Config: adminRate, MaxEntries: 10_000}),
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		store:       st,
		audit:       rec,
		sweeper:     scheduler.NewSweeper(st, loggerClient, cfg.SweepInterval),
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting patientshare v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("patientshare %s", version.String())
	a.logger.Info("share settings",
		logger.String("store", a.cfg.StoreBackend),
		logger.String("rate_limit", a.cfg.RateLimitBackend),
		logger.String("audit", a.cfg.AuditDriver),
		logger.Duration("ttl", a.cfg.ShareTTL),
		logger.Int("rate_limit_points", a.cfg.RateLimitPoints),
		logger.Duration("rate_limit_window", a.cfg.RateLimitWindow))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.sweeper.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.sweeper.Stop()
		return err
	}

	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// In-flight requests are done; close what they were writing to.
	utils.CloseLogged("store", a.store, a.logger)
	utils.CloseLogged("audit", a.audit, a.logger)
	if a.redisClient != nil {
		utils.CloseLogged("redis", a.redisClient, a.logger)
	}

	a.logger.Info("✅ patientshare stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
