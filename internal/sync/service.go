package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
)

// MemberSource reads guild member state from Discord.
type MemberSource interface {
	GuildMember(guildID, userID string) (*discordgo.Member, error)
	GuildMembers(guildID, after string, limit int) ([]*discordgo.Member, error)
}

// GuildSnapshot resolves guild metadata from the provider's snapshot.
type GuildSnapshot interface {
	Guild(guildID string) (*discordgo.Guild, error)
}

// IdentityResolver selects the linked identity reconciliation acts on.
type IdentityResolver interface {
	Primary(ctx context.Context, userID int64) (*domain.LinkedAccount, error)
}

// ConfigSource loads a guild's stored configuration.
type ConfigSource interface {
	GetConfig(ctx context.Context, serverID string) (*domain.ServerConfig, error)
}

// UserSource resolves registered users by Discord ID.
type UserSource interface {
	GetUserByDiscordID(ctx context.Context, discordID string) (*domain.User, error)
}

// MembershipRecorder persists which guilds a user has been reconciled in.
type MembershipRecorder interface {
	UpsertMember(ctx context.Context, member *domain.ServerMember) error
}

// GuildSyncReport summarizes a whole-guild sync pass.
type GuildSyncReport struct {
	GuildID string `json:"guild_id"`
	Total   int    `json:"total"`
	Synced  int    `json:"synced"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// Service orchestrates reconciliation: it resolves the guild's config, the
// member's linked identity and current Discord state, runs the engine, and
// records the membership row.
type Service interface {
	// SyncMember reconciles one member of a guild
	SyncMember(ctx context.Context, guildID, discordUserID string) (domain.ReconciliationResult, error)

	// SyncGuild reconciles every non-bot member of a guild
	SyncGuild(ctx context.Context, guildID string) (*GuildSyncReport, error)
}

type service struct {
	engine      *Engine
	members     MemberSource
	snapshot    GuildSnapshot
	configs     ConfigSource
	users       UserSource
	memberships MembershipRecorder
	identities  IdentityResolver
}

// NewService creates a new sync service
func NewService(engine *Engine, members MemberSource, snapshot GuildSnapshot, configs ConfigSource, users UserSource, memberships MembershipRecorder, identities IdentityResolver) Service {
	return &service{
		engine:      engine,
		members:     members,
		snapshot:    snapshot,
		configs:     configs,
		users:       users,
		memberships: memberships,
		identities:  identities,
	}
}

func (s *service) SyncMember(ctx context.Context, guildID, discordUserID string) (domain.ReconciliationResult, error) {
	var result domain.ReconciliationResult

	cfg, err := s.configs.GetConfig(ctx, guildID)
	if err != nil {
		return result, err
	}
	if !cfg.SetupCompleted {
		return result, domain.ErrServerNotConfigured
	}

	return s.syncWithConfig(ctx, cfg, guildID, discordUserID)
}

func (s *service) SyncGuild(ctx context.Context, guildID string) (*GuildSyncReport, error) {
	cfg, err := s.configs.GetConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if !cfg.SetupCompleted {
		return nil, domain.ErrServerNotConfigured
	}

	log := logger.FromContext(ctx)
	report := &GuildSyncReport{GuildID: guildID}

	after := ""
	for {
		page, err := s.members.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return report, fmt.Errorf("%w: %v", domain.ErrExternalServiceUnavailable, err)
		}
		if len(page) == 0 {
			break
		}

		for _, m := range page {
			if m.User == nil || m.User.Bot {
				continue
			}
			report.Total++

			_, err := s.syncWithConfig(ctx, cfg, guildID, m.User.ID)
			switch {
			case err == nil:
				report.Synced++
			case errors.Is(err, domain.ErrNoLinkedIdentity):
				report.Skipped++
			default:
				report.Failed++
				log.Warn(LogMsgMemberSyncFailed,
					"guild_id", guildID, "user_id", m.User.ID, "error", err)
			}
		}

		if len(page) < memberPageSize {
			break
		}
		// The cursor needs a user id; a trailing partial member ends the walk
		last := page[len(page)-1]
		if last.User == nil {
			break
		}
		after = last.User.ID
	}

	log.Info(LogMsgGuildSyncDone,
		"guild_id", guildID,
		"total", report.Total,
		"synced", report.Synced,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, nil
}

func (s *service) syncWithConfig(ctx context.Context, cfg *domain.ServerConfig, guildID, discordUserID string) (domain.ReconciliationResult, error) {
	var result domain.ReconciliationResult

	dm, err := s.members.GuildMember(guildID, discordUserID)
	if err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrMemberNotFound, err)
	}

	user, err := s.users.GetUserByDiscordID(ctx, discordUserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return result, domain.ErrNoLinkedIdentity
	}
	if err != nil {
		return result, err
	}

	identity, err := s.identities.Primary(ctx, user.ID)
	if err != nil {
		return result, err
	}

	result, err = s.engine.Reconcile(ctx, memberFromDiscord(guildID, dm), cfg, identity)
	if err != nil {
		return result, err
	}

	s.recordMembership(ctx, user.ID, guildID)
	return result, nil
}

// recordMembership upserts the server_members row. Best effort: a failed
// write never undoes a completed reconciliation.
func (s *service) recordMembership(ctx context.Context, userID int64, guildID string) {
	serverName := ""
	if g, err := s.snapshot.Guild(guildID); err == nil {
		serverName = g.Name
	}

	err := s.memberships.UpsertMember(ctx, &domain.ServerMember{
		UserID:     userID,
		ServerID:   guildID,
		ServerName: serverName,
	})
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgMembershipWriteFailed,
			"guild_id", guildID, "user_id", userID, "error", err)
	}
}

func memberFromDiscord(guildID string, m *discordgo.Member) Member {
	member := Member{
		GuildID:  guildID,
		Nickname: m.Nick,
		RoleIDs:  m.Roles,
	}
	if m.User != nil {
		member.UserID = m.User.ID
		member.Username = m.User.Username
		member.DisplayName = m.User.GlobalName
	}
	return member
}
