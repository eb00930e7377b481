package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/metrics"
	"github.com/disblox/disblox/internal/sync"
)

// EventHandlerDependencies holds the dependencies needed for event handler registration.
type EventHandlerDependencies struct {
	EventBus event.Bus
	Syncer   sync.Service
	Notifier sync.Notifier
	Repos    *Repositories
}

// RegisterEventHandlers sets up all event subscribers:
// - Sync dispatcher (member joins and leaves, guild adds and removes, reconcile requests)
// - Metrics collector (event-based counters)
func RegisterEventHandlers(deps EventHandlerDependencies) error {
	syncHandler := sync.NewEventHandler(
		deps.Syncer,
		deps.Notifier,
		deps.Repos.ServerConfig,
		deps.Repos.User,
		deps.Repos.Membership,
		deps.Repos.GuildRegistry,
	)
	syncHandler.Register(deps.EventBus)
	slog.Info(LogMsgSyncHandlerRegistered)

	metricsCollector := metrics.NewEventMetricsCollector()
	if err := metricsCollector.Register(deps.EventBus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRegisterMetrics, err)
	}
	slog.Info(LogMsgMetricsCollectorRegistered)

	return nil
}
