package bootstrap

import (
	"context"
	"log/slog"

	"github.com/disblox/disblox/internal/discord"
	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/guild"
	"github.com/disblox/disblox/internal/scheduler"
	"github.com/disblox/disblox/internal/server"
	"github.com/disblox/disblox/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
type ShutdownComponents struct {
	Server             *server.Server
	Scheduler          *scheduler.Scheduler
	WorkerPool         *worker.Pool
	Bot                *discord.Bot
	Provider           *guild.Provider
	ResilientPublisher *event.ResilientPublisher
}

// GracefulShutdown stops all application components in order:
// 1. HTTP server (stop accepting new requests)
// 2. Scheduler, then worker pool (drain queued background jobs)
// 3. Discord bot and guild provider (close the gateway session)
// 4. Event publisher (flush pending events to ensure consistency)
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	slog.Info(LogMsgShuttingDownServer)

	if err := components.Server.Stop(ctx); err != nil {
		slog.Error(LogMsgServerForcedShutdown, "error", err)
	}

	// Stop the scheduler before the pool so no new jobs are enqueued
	// while the pool drains.
	if components.Scheduler != nil {
		components.Scheduler.Stop()
	}
	if components.WorkerPool != nil {
		components.WorkerPool.Stop()
	}

	if components.Bot != nil {
		components.Bot.Stop(ctx)
	}
	if components.Provider != nil {
		components.Provider.Stop()
	}

	// Flush pending events last so handlers above could still publish.
	slog.Info(LogMsgShuttingDownEventPublisher)
	if err := components.ResilientPublisher.Shutdown(ctx); err != nil {
		slog.Error(LogMsgResilientPublisherFailed, "error", err)
	}

	slog.Info(LogMsgServerStopped)
}
