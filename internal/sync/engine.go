package sync

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
)

// Member is the engine's view of one guild member at reconcile time.
type Member struct {
	GuildID     string
	UserID      string
	Username    string
	DisplayName string
	Nickname    string
	RoleIDs     []string
}

// GuildProvider is the slice of the guild provider the engine mutates
// Discord through.
type GuildProvider interface {
	EditNickname(ctx context.Context, guildID, userID, nickname string) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	FindRole(guildID, roleID string) (*discordgo.Role, error)
	FindRoleByName(guildID, name string) (*discordgo.Role, error)
}

// RobloxClient is the slice of the Roblox client the engine reads from.
type RobloxClient interface {
	GetProfile(ctx context.Context, robloxID string) (*domain.RobloxProfile, error)
	MembershipIn(ctx context.Context, robloxID, groupID string) (*domain.GroupMembership, error)
}

// MappingSource loads the configured group role mappings.
type MappingSource interface {
	GetGroupRoleMappings(ctx context.Context, serverConfigID int64) ([]domain.GroupRoleMapping, error)
}

// Engine applies a guild's configuration to one member: nickname, then
// verified role, then group role. Each step is independently guarded; a
// failed Discord or Roblox call is logged and skipped so the remaining
// steps still run. Reconciling twice against unchanged external state
// yields an empty result.
type Engine struct {
	provider GuildProvider
	roblox   RobloxClient
	mappings MappingSource
}

// NewEngine creates a reconciliation engine
func NewEngine(provider GuildProvider, roblox RobloxClient, mappings MappingSource) *Engine {
	return &Engine{
		provider: provider,
		roblox:   roblox,
		mappings: mappings,
	}
}

// Reconcile brings one member in line with the guild's configuration.
// The config must have completed setup and identity must be the member's
// primary linked account.
func (e *Engine) Reconcile(ctx context.Context, member Member, cfg *domain.ServerConfig, identity *domain.LinkedAccount) (domain.ReconciliationResult, error) {
	var result domain.ReconciliationResult

	if cfg == nil || !cfg.SetupCompleted {
		return result, domain.ErrServerNotConfigured
	}
	if identity == nil {
		return result, domain.ErrNoLinkedIdentity
	}

	log := logger.FromContext(ctx)
	log.Debug(LogMsgReconcileStarted,
		"guild_id", member.GuildID,
		"user_id", member.UserID,
		"roblox_id", identity.RobloxID)

	held := make(map[string]bool, len(member.RoleIDs))
	for _, id := range member.RoleIDs {
		held[id] = true
	}

	e.reconcileNickname(ctx, member, cfg, identity, &result)
	e.reconcileVerifiedRole(ctx, member, cfg, held, &result)
	e.reconcileGroupRole(ctx, member, cfg, identity, held, &result)

	log.Info(LogMsgReconcileFinished,
		"guild_id", member.GuildID,
		"user_id", member.UserID,
		"changed", !result.Empty())
	return result, nil
}

func (e *Engine) reconcileNickname(ctx context.Context, member Member, cfg *domain.ServerConfig, identity *domain.LinkedAccount, result *domain.ReconciliationResult) {
	if cfg.NicknamePolicy == domain.NicknameNone {
		return
	}

	desired := e.desiredNickname(ctx, member, cfg.NicknamePolicy, identity)
	if desired == "" || desired == member.Nickname {
		return
	}

	if err := e.provider.EditNickname(ctx, member.GuildID, member.UserID, desired); err != nil {
		logger.FromContext(ctx).Warn(LogMsgNicknameFailed,
			"guild_id", member.GuildID, "user_id", member.UserID, "error", err)
		return
	}
	result.NicknameUpdated = desired
}

func (e *Engine) desiredNickname(ctx context.Context, member Member, policy domain.NicknamePolicy, identity *domain.LinkedAccount) string {
	switch policy {
	case domain.NicknameRobloxDisplay:
		profile, err := e.roblox.GetProfile(ctx, identity.RobloxID)
		if err != nil || profile.DisplayName == "" {
			return identity.RobloxUsername
		}
		return profile.DisplayName
	case domain.NicknameDiscordDisplay:
		return member.DisplayName
	case domain.NicknameDiscordUsername:
		return member.Username
	case domain.NicknameDiscordWithRoblox:
		return fmt.Sprintf("%s (@%s)", member.DisplayName, identity.RobloxUsername)
	default:
		// roblox_username, plus any unrecognized stored value
		return identity.RobloxUsername
	}
}

func (e *Engine) reconcileVerifiedRole(ctx context.Context, member Member, cfg *domain.ServerConfig, held map[string]bool, result *domain.ReconciliationResult) {
	if !cfg.VerifiedRoleEnabled || cfg.VerifiedRoleID == "" {
		return
	}
	log := logger.FromContext(ctx)

	role, err := e.provider.FindRole(member.GuildID, cfg.VerifiedRoleID)
	if err != nil {
		// Role was deleted out from under the config; nothing to do
		return
	}
	if held[role.ID] {
		return
	}

	for _, removeID := range cfg.RolesToRemove {
		if !held[removeID] {
			continue
		}
		removed, err := e.provider.FindRole(member.GuildID, removeID)
		if err != nil {
			continue
		}
		if err := e.provider.RemoveRole(ctx, member.GuildID, member.UserID, removeID); err != nil {
			log.Warn(LogMsgRoleRemovalFailed,
				"guild_id", member.GuildID, "role_id", removeID, "error", err)
			continue
		}
		held[removeID] = false
		result.RolesRemoved = append(result.RolesRemoved, removed.Name)
	}

	if err := e.provider.AddRole(ctx, member.GuildID, member.UserID, role.ID); err != nil {
		log.Warn(LogMsgVerifiedRoleFailed,
			"guild_id", member.GuildID, "user_id", member.UserID, "error", err)
		return
	}
	held[role.ID] = true
	result.RolesAdded = append(result.RolesAdded, role.Name)
}

func (e *Engine) reconcileGroupRole(ctx context.Context, member Member, cfg *domain.ServerConfig, identity *domain.LinkedAccount, held map[string]bool, result *domain.ReconciliationResult) {
	if !cfg.GroupRolesEnabled || cfg.GroupID == "" {
		return
	}
	log := logger.FromContext(ctx)

	mappings, err := e.mappings.GetGroupRoleMappings(ctx, cfg.ID)
	if err != nil {
		log.Warn(LogMsgGroupRoleFailed, "guild_id", member.GuildID, "error", err)
		return
	}

	membership, err := e.roblox.MembershipIn(ctx, identity.RobloxID, cfg.GroupID)
	if err != nil {
		log.Warn(LogMsgGroupLookupFailed,
			"guild_id", member.GuildID, "user_id", member.UserID, "error", err)
		return
	}

	// The Discord role this member should end up with, if any
	var target *discordgo.Role
	if membership != nil {
		for _, m := range mappings {
			if m.RobloxRoleID == membership.RoleID && m.DiscordRoleID != "" {
				if role, err := e.provider.FindRole(member.GuildID, m.DiscordRoleID); err == nil {
					target = role
				}
				break
			}
		}
	}

	// Mutual exclusivity: a member holds at most one mapped group role
	for _, m := range mappings {
		if m.DiscordRoleID == "" || !held[m.DiscordRoleID] {
			continue
		}
		if target != nil && m.DiscordRoleID == target.ID {
			continue
		}
		role, err := e.provider.FindRole(member.GuildID, m.DiscordRoleID)
		if err != nil {
			continue
		}
		if err := e.provider.RemoveRole(ctx, member.GuildID, member.UserID, m.DiscordRoleID); err != nil {
			log.Warn(LogMsgRoleRemovalFailed,
				"guild_id", member.GuildID, "role_id", m.DiscordRoleID, "error", err)
			continue
		}
		held[m.DiscordRoleID] = false
		result.GroupRolesRemoved = append(result.GroupRolesRemoved, role.Name)
	}

	if membership == nil {
		e.assignDefaultGroupRole(ctx, member, cfg, held, result)
		return
	}
	if target == nil || held[target.ID] {
		return
	}

	if err := e.provider.AddRole(ctx, member.GuildID, member.UserID, target.ID); err != nil {
		log.Warn(LogMsgGroupRoleFailed,
			"guild_id", member.GuildID, "role_id", target.ID, "error", err)
		return
	}
	held[target.ID] = true
	result.GroupRolesAdded = append(result.GroupRolesAdded, target.Name)
}

// assignDefaultGroupRole gives members outside the group the first guild
// role that exists from: the group's name, then the stock fallbacks.
func (e *Engine) assignDefaultGroupRole(ctx context.Context, member Member, cfg *domain.ServerConfig, held map[string]bool, result *domain.ReconciliationResult) {
	log := logger.FromContext(ctx)

	names := make([]string, 0, len(DefaultGroupRoleNames)+1)
	if cfg.GroupName != "" {
		names = append(names, cfg.GroupName)
	}
	names = append(names, DefaultGroupRoleNames...)

	for _, name := range names {
		role, err := e.provider.FindRoleByName(member.GuildID, name)
		if err != nil {
			continue
		}
		if held[role.ID] {
			return
		}
		if err := e.provider.AddRole(ctx, member.GuildID, member.UserID, role.ID); err != nil {
			log.Warn(LogMsgGroupRoleFailed,
				"guild_id", member.GuildID, "role_id", role.ID, "error", err)
			continue
		}
		held[role.ID] = true
		result.GroupRolesAdded = append(result.GroupRolesAdded, role.Name)
		return
	}
}
