package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/logger"
	"github.com/disblox/disblox/internal/metrics"
)

// Notifier delivers reconciliation outcomes to members via DM.
type Notifier interface {
	SendLinkPrompt(ctx context.Context, userID string)
	SendReport(ctx context.Context, userID string, result domain.ReconciliationResult, isUpdate bool)
}

// UserStore covers the user lookups and cleanup the dispatcher needs.
type UserStore interface {
	GetUserByDiscordID(ctx context.Context, discordID string) (*domain.User, error)
	GetLinkedAccounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error)
	DeleteUser(ctx context.Context, userID int64) error
}

// MembershipStore maintains per-guild membership rows.
type MembershipStore interface {
	DeleteMember(ctx context.Context, userID int64, serverID string) error
	GetMembersForUser(ctx context.Context, userID int64) ([]domain.ServerMember, error)
	DeleteMembersForServer(ctx context.Context, serverID string) error
}

// ConfigAdmin extends config reads with deletion, used when the bot is
// removed from a guild.
type ConfigAdmin interface {
	ConfigSource
	DeleteConfig(ctx context.Context, serverID string) error
}

// GuildRegistry mirrors the bot's guild list into persistence.
type GuildRegistry interface {
	UpsertGuild(ctx context.Context, guild *domain.BotServer) error
	DeleteGuild(ctx context.Context, serverID string) error
}

// EventHandler reacts to gateway events: reconciling joining members,
// cleaning up after departures, and keeping the guild registry current.
type EventHandler struct {
	syncer      Service
	notifier    Notifier
	configs     ConfigAdmin
	users       UserStore
	memberships MembershipStore
	registry    GuildRegistry
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(syncer Service, notifier Notifier, configs ConfigAdmin, users UserStore, memberships MembershipStore, registry GuildRegistry) *EventHandler {
	return &EventHandler{
		syncer:      syncer,
		notifier:    notifier,
		configs:     configs,
		users:       users,
		memberships: memberships,
		registry:    registry,
	}
}

// Register registers the event handlers to the bus
func (h *EventHandler) Register(bus event.Bus) {
	bus.Subscribe(event.MemberJoined, h.HandleMemberJoined)
	bus.Subscribe(event.MemberLeft, h.HandleMemberLeft)
	bus.Subscribe(event.GuildAdded, h.HandleGuildAdded)
	bus.Subscribe(event.GuildRemoved, h.HandleGuildRemoved)
	bus.Subscribe(event.ReconcileRequested, h.HandleReconcileRequested)
}

// HandleMemberJoined reconciles a freshly joined member. Members without a
// linked identity get a DM pointing them at the dashboard instead.
func (h *EventHandler) HandleMemberJoined(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.MemberJoinedPayloadV1](evt.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload for %s event: %w", evt.Type, err)
	}

	log := logger.FromContext(ctx)
	log.Debug(LogMsgMemberJoined, "guild_id", payload.GuildID, "user_id", payload.UserID)

	result, err := h.syncer.SyncMember(ctx, payload.GuildID, payload.UserID)
	switch {
	case errors.Is(err, domain.ErrServerNotConfigured):
		return nil
	case errors.Is(err, domain.ErrNoLinkedIdentity):
		metrics.LinkPromptsSent.Inc()
		h.notifier.SendLinkPrompt(ctx, payload.UserID)
		return nil
	case err != nil:
		metrics.SyncFailures.Inc()
		return fmt.Errorf("failed to sync joining member: %w", err)
	}

	recordSyncMetrics(result)
	h.notifier.SendReport(ctx, payload.UserID, result, false)
	return nil
}

// recordSyncMetrics counts what a successful reconciliation changed
func recordSyncMetrics(result domain.ReconciliationResult) {
	metrics.MembersSynced.Inc()
	metrics.RolesAssigned.Add(float64(len(result.RolesAdded) + len(result.GroupRolesAdded)))
	metrics.RolesRemoved.Add(float64(len(result.RolesRemoved) + len(result.GroupRolesRemoved)))
	if result.NicknameUpdated != "" {
		metrics.NicknamesUpdated.Inc()
	}
}

// HandleMemberLeft drops the member's membership row and garbage-collects
// the user record once nothing references it.
func (h *EventHandler) HandleMemberLeft(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.MemberLeftPayloadV1](evt.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload for %s event: %w", evt.Type, err)
	}

	user, err := h.users.GetUserByDiscordID(ctx, payload.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up departing member: %w", err)
	}

	if err := h.memberships.DeleteMember(ctx, user.ID, payload.GuildID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	accounts, err := h.users.GetLinkedAccounts(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to check linked accounts: %w", err)
	}
	if len(accounts) > 0 {
		return nil
	}

	memberships, err := h.memberships.GetMembersForUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to check remaining memberships: %w", err)
	}
	if len(memberships) > 0 {
		return nil
	}

	logger.FromContext(ctx).Info(LogMsgOrphanedUserDeleted, "user_id", user.ID, "discord_id", user.DiscordID)
	if err := h.users.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete orphaned user: %w", err)
	}

	return nil
}

// HandleGuildAdded mirrors the new guild into the registry
func (h *EventHandler) HandleGuildAdded(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.GuildAddedPayloadV1](evt.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload for %s event: %w", evt.Type, err)
	}

	if err := h.registry.UpsertGuild(ctx, &domain.BotServer{
		ServerID:    payload.GuildID,
		ServerName:  payload.GuildName,
		ServerIcon:  payload.GuildIcon,
		OwnerID:     payload.OwnerID,
		MemberCount: payload.MemberCount,
	}); err != nil {
		return fmt.Errorf("failed to register guild: %w", err)
	}

	return nil
}

// HandleGuildRemoved removes everything the bot stored for a guild. Group
// role mappings go with the config via the database cascade.
func (h *EventHandler) HandleGuildRemoved(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.GuildRemovedPayloadV1](evt.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload for %s event: %w", evt.Type, err)
	}

	log := logger.FromContext(ctx)
	log.Info(LogMsgGuildCleanup, "guild_id", payload.GuildID)

	if err := h.configs.DeleteConfig(ctx, payload.GuildID); err != nil && !errors.Is(err, domain.ErrServerNotConfigured) {
		return fmt.Errorf("failed to delete server config: %w", err)
	}
	if err := h.memberships.DeleteMembersForServer(ctx, payload.GuildID); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}
	if err := h.registry.DeleteGuild(ctx, payload.GuildID); err != nil {
		return fmt.Errorf("failed to deregister guild: %w", err)
	}

	return nil
}

// HandleReconcileRequested runs a reconcile triggered outside the gateway,
// typically from the dashboard.
func (h *EventHandler) HandleReconcileRequested(ctx context.Context, evt event.Event) error {
	payload, err := event.DecodePayload[event.ReconcileRequestedPayloadV1](evt.Payload)
	if err != nil {
		return fmt.Errorf("invalid payload for %s event: %w", evt.Type, err)
	}

	log := logger.FromContext(ctx)
	log.Debug(LogMsgReconcileRequested, "guild_id", payload.GuildID, "user_id", payload.UserID, "source", payload.Source)

	result, err := h.syncer.SyncMember(ctx, payload.GuildID, payload.UserID)
	if errors.Is(err, domain.ErrNoLinkedIdentity) {
		metrics.LinkPromptsSent.Inc()
		h.notifier.SendLinkPrompt(ctx, payload.UserID)
		return nil
	}
	if err != nil {
		metrics.SyncFailures.Inc()
		return fmt.Errorf("failed to sync requested member: %w", err)
	}

	recordSyncMetrics(result)
	h.notifier.SendReport(ctx, payload.UserID, result, payload.IsUpdate)
	return nil
}
