package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disblox/disblox/internal/auth"
	"github.com/disblox/disblox/internal/bootstrap"
	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/config"
	"github.com/disblox/disblox/internal/database"
	"github.com/disblox/disblox/internal/discord"
	"github.com/disblox/disblox/internal/identity"
	"github.com/disblox/disblox/internal/roblox"
	"github.com/disblox/disblox/internal/scheduler"
	"github.com/disblox/disblox/internal/server"
	"github.com/disblox/disblox/internal/setup"
	"github.com/disblox/disblox/internal/sync"
	"github.com/disblox/disblox/internal/worker"
)

const (
	// CacheMaxSize bounds the shared TTL cache behind profiles, OAuth state, and guild lists
	CacheMaxSize = 10000

	// WorkerCount is the number of background job workers
	WorkerCount = 4

	// WorkerQueueSize bounds the background job queue
	WorkerQueueSize = 64

	// ShutdownTimeout is the grace period for draining in-flight work
	ShutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		slog.Error("Logger setup failed", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	if err := run(cfg); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// Database
	connString := cfg.GetDBConnString()
	if err := database.Migrate(connString); err != nil {
		return err
	}
	dbPool, err := database.NewPool(connString, database.DefaultMaxConnections, database.DefaultMaxIdleTime, database.DefaultMaxLifetime)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	// Event system
	eventBus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		return err
	}

	// Persistence and shared caches
	repos := bootstrap.InitializeRepositories(dbPool)
	dataCache := cache.New(CacheMaxSize)
	limiter := cache.NewRateLimiter()

	// External clients
	robloxClient := roblox.NewClient(dataCache, limiter)
	robloxOAuth := roblox.NewOAuth(cfg.RobloxClientID, cfg.RobloxClientSecret, cfg.RobloxRedirectURI)
	discordOAuth := auth.NewDiscordOAuth(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURI, limiter)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// The bot owns the gateway session; the guild provider wraps it
	bot, err := bootstrap.NewDiscordBot(cfg, eventBus)
	if err != nil {
		return err
	}
	provider := bot.Provider

	// Services
	authSvc := auth.NewService(discordOAuth, tokens, repos.User, dataCache)
	identitySvc := identity.NewService(robloxOAuth, robloxClient, repos.User, dataCache)
	engine := sync.NewEngine(provider, robloxClient, repos.ServerConfig)
	syncer := sync.NewService(engine, bot, provider, repos.ServerConfig, repos.User, repos.Membership, identitySvc)
	wizard := setup.NewService(repos.ServerConfig, provider, robloxClient)
	notifier := discord.NewNotifier(bot.Session, cfg.FrontendURL)

	// Event subscribers
	if err := bootstrap.RegisterEventHandlers(bootstrap.EventHandlerDependencies{
		EventBus: eventBus,
		Syncer:   syncer,
		Notifier: notifier,
		Repos:    repos,
	}); err != nil {
		return err
	}

	// Gateway
	if err := bootstrap.StartDiscord(ctx, cfg, bot, syncer, wizard); err != nil {
		return err
	}

	// Background jobs
	pool := worker.NewPool(WorkerCount, WorkerQueueSize)
	mirrorJob := worker.NewGuildMirrorJob(provider, repos.GuildRegistry)
	sched := scheduler.New(pool)
	sched.Schedule(cfg.MassSyncInterval, worker.NewMassSyncJob(syncer, provider))
	sched.Schedule(cfg.GuildRegistryRefresh, mirrorJob)
	sched.Schedule(cfg.CacheSweepInterval, worker.NewCacheSweepJob(dataCache))

	// HTTP API
	srv := server.NewServer(server.Config{
		Port:             cfg.Port,
		FrontendURL:      cfg.FrontendURL,
		TrustedProxies:   cfg.TrustedProxies,
		RobloxConfigured: cfg.RobloxConfigured(),
	}, dbPool, authSvc, identitySvc, wizard, provider, dataCache, repos.ServerConfig, mirrorJob, bot, eventBus)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-stop:
		slog.Info("Shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:             srv,
		Scheduler:          sched,
		WorkerPool:         pool,
		Bot:                bot,
		Provider:           provider,
		ResilientPublisher: publisher,
	})

	return nil
}
