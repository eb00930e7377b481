package event

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Type represents the type of an event
type Type string

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Gateway and reconciliation event types
const (
	MemberJoined       Type = "guild.member_joined"
	MemberLeft         Type = "guild.member_left"
	GuildAdded         Type = "guild.added"
	GuildRemoved       Type = "guild.removed"
	ReconcileRequested Type = "sync.reconcile_requested"
)

// Typed event payloads

// MemberJoinedPayloadV1 fires when a member enters a guild the bot serves
type MemberJoinedPayloadV1 struct {
	GuildID   string `json:"guild_id"`
	GuildName string `json:"guild_name"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// MemberLeftPayloadV1 fires when a member leaves a guild
type MemberLeftPayloadV1 struct {
	GuildID   string `json:"guild_id"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}

// GuildAddedPayloadV1 fires when the bot joins a guild
type GuildAddedPayloadV1 struct {
	GuildID     string `json:"guild_id"`
	GuildName   string `json:"guild_name"`
	GuildIcon   string `json:"guild_icon,omitempty"`
	OwnerID     string `json:"owner_id"`
	MemberCount int    `json:"member_count"`
	Timestamp   int64  `json:"timestamp"`
}

// GuildRemovedPayloadV1 fires when the bot is removed from a guild
type GuildRemovedPayloadV1 struct {
	GuildID   string `json:"guild_id"`
	Timestamp int64  `json:"timestamp"`
}

// ReconcileRequestedPayloadV1 asks for one member to be reconciled.
// Source distinguishes commands, HTTP calls and joins for logging.
type ReconcileRequestedPayloadV1 struct {
	GuildID   string `json:"guild_id"`
	UserID    string `json:"user_id"`
	IsUpdate  bool   `json:"is_update"`
	Source    string `json:"source"`
	Timestamp int64  `json:"timestamp"`
}

// Type-safe event constructors

// NewMemberJoinedEvent creates a member joined event
func NewMemberJoinedEvent(guildID, guildName, userID, username string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    MemberJoined,
		Payload: MemberJoinedPayloadV1{
			GuildID:   guildID,
			GuildName: guildName,
			UserID:    userID,
			Username:  username,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewMemberLeftEvent creates a member left event
func NewMemberLeftEvent(guildID, userID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    MemberLeft,
		Payload: MemberLeftPayloadV1{
			GuildID:   guildID,
			UserID:    userID,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewGuildAddedEvent creates a guild added event
func NewGuildAddedEvent(guildID, guildName, guildIcon, ownerID string, memberCount int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    GuildAdded,
		Payload: GuildAddedPayloadV1{
			GuildID:     guildID,
			GuildName:   guildName,
			GuildIcon:   guildIcon,
			OwnerID:     ownerID,
			MemberCount: memberCount,
			Timestamp:   time.Now().Unix(),
		},
	}
}

// NewGuildRemovedEvent creates a guild removed event
func NewGuildRemovedEvent(guildID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    GuildRemoved,
		Payload: GuildRemovedPayloadV1{
			GuildID:   guildID,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewReconcileRequestedEvent creates a reconcile request event
func NewReconcileRequestedEvent(guildID, userID, source string, isUpdate bool) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ReconcileRequested,
		Payload: ReconcileRequestedPayloadV1{
			GuildID:   guildID,
			UserID:    userID,
			IsUpdate:  isUpdate,
			Source:    source,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers synchronously
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
