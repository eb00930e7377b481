package metrics

import (
	"context"

	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	eventTypes := []event.Type{
		event.MemberJoined,
		event.MemberLeft,
		event.GuildAdded,
		event.GuildRemoved,
		event.ReconcileRequested,
	}

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	// Always increment event counter
	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.MemberJoined:
		MembersJoined.Inc()

	case event.MemberLeft:
		MembersLeft.Inc()

	case event.GuildAdded:
		GuildsAdded.Inc()

	case event.GuildRemoved:
		GuildsRemoved.Inc()

	case event.ReconcileRequested:
		payload, err := event.DecodePayload[event.ReconcileRequestedPayloadV1](evt.Payload)
		if err != nil {
			logger.FromContext(ctx).Debug(LogMsgBadEventPayload, "type", evt.Type, "error", err)
			return nil
		}
		ReconcilesRequested.WithLabelValues(payload.Source).Inc()
	}

	return nil
}
