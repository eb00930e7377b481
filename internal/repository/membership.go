package repository

import (
	"context"

	"github.com/disblox/disblox/internal/domain"
)

// Membership defines the interface for per-guild membership persistence
type Membership interface {
	UpsertMember(ctx context.Context, member *domain.ServerMember) error
	GetMember(ctx context.Context, userID int64, serverID string) (*domain.ServerMember, error)
	GetMembersForUser(ctx context.Context, userID int64) ([]domain.ServerMember, error)
	DeleteMember(ctx context.Context, userID int64, serverID string) error
	DeleteMembersForServer(ctx context.Context, serverID string) error
}

// GuildRegistry defines the interface for the bot's guild mirror table
type GuildRegistry interface {
	UpsertGuild(ctx context.Context, guild *domain.BotServer) error
	GetGuild(ctx context.Context, serverID string) (*domain.BotServer, error)
	ListGuilds(ctx context.Context) ([]domain.BotServer, error)
	DeleteGuild(ctx context.Context, serverID string) error
}
