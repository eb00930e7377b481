package setup

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
	"github.com/disblox/disblox/internal/repository"
)

// GuildProvider is the slice of the guild snapshot provider the wizard needs
// to materialize Discord roles.
type GuildProvider interface {
	CreateRole(ctx context.Context, guildID, name string) (*discordgo.Role, error)
	EditRole(ctx context.Context, guildID, roleID, name string) (*discordgo.Role, error)
}

// GroupResolver fetches Roblox group metadata during the group step.
type GroupResolver interface {
	GetGroup(ctx context.Context, groupID string) (*domain.GroupInfo, []domain.GroupRole, error)
}

// Status reports where a guild is in the setup wizard.
type Status struct {
	Phase     domain.SetupPhase    `json:"phase"`
	Completed bool                 `json:"completed"`
	Config    *domain.ServerConfig `json:"config,omitempty"`
}

// VerifiedRoleParams carries the verified-role step inputs. Nil/empty fields
// leave the stored value untouched.
type VerifiedRoleParams struct {
	Enabled       *bool    `json:"enabled,omitempty"`
	Name          string   `json:"name,omitempty"`
	RoleID        string   `json:"role_id,omitempty"`
	RolesToRemove []string `json:"roles_to_remove,omitempty"`
}

// GroupParams carries the group step inputs. Skip disables group roles.
type GroupParams struct {
	Skip     bool   `json:"skip,omitempty"`
	GroupURL string `json:"group_url,omitempty"`
	GroupID  string `json:"group_id,omitempty"`
}

// Service walks a guild through configuration: nickname policy, verified
// role, then group role mapping.
type Service interface {
	// Status reports the guild's wizard progress; an unconfigured guild
	// starts at the nickname phase
	Status(ctx context.Context, serverID string) (*Status, error)

	// Config returns the stored configuration
	Config(ctx context.Context, serverID string) (*domain.ServerConfig, error)

	// GroupRoleMappings lists the configured group role mappings by rank
	GroupRoleMappings(ctx context.Context, serverID string) ([]domain.GroupRoleMapping, error)

	// SetNicknamePolicy starts or resumes the wizard with the nickname step
	SetNicknamePolicy(ctx context.Context, serverID string, policy domain.NicknamePolicy) (*domain.ServerConfig, error)

	// SetVerifiedRole records the verified-role step
	SetVerifiedRole(ctx context.Context, serverID string, params VerifiedRoleParams) (*domain.ServerConfig, error)

	// ConfigureGroup finishes the wizard: resolves the group, replaces the
	// mapping set, creates Discord roles, and marks setup complete
	ConfigureGroup(ctx context.Context, serverID string, params GroupParams) (*domain.ServerConfig, error)

	// EditNicknamePolicy updates the policy on a configured guild
	EditNicknamePolicy(ctx context.Context, serverID string, policy domain.NicknamePolicy) error

	// EditVerifiedRole updates the verified role, renaming the Discord role
	// when one was created
	EditVerifiedRole(ctx context.Context, serverID string, params VerifiedRoleParams) error

	// EditGroup reconfigures or disables group role mapping
	EditGroup(ctx context.Context, serverID string, params GroupParams) error

	// Reset deletes the configuration; mappings cascade
	Reset(ctx context.Context, serverID string) error
}

type service struct {
	configs repository.ServerConfig
	guilds  GuildProvider
	groups  GroupResolver
	caser   cases.Caser
}

// NewService creates a new setup service
func NewService(configs repository.ServerConfig, guilds GuildProvider, groups GroupResolver) Service {
	return &service{
		configs: configs,
		guilds:  guilds,
		groups:  groups,
		caser:   cases.Title(language.English, cases.NoLower),
	}
}

func (s *service) Status(ctx context.Context, serverID string) (*Status, error) {
	cfg, err := s.configs.GetConfig(ctx, serverID)
	if errors.Is(err, domain.ErrServerNotConfigured) {
		return &Status{Phase: domain.SetupPhaseNickname}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Status{Phase: cfg.SetupPhase, Completed: cfg.SetupCompleted, Config: cfg}, nil
}

func (s *service) Config(ctx context.Context, serverID string) (*domain.ServerConfig, error) {
	return s.configs.GetConfig(ctx, serverID)
}

func (s *service) GroupRoleMappings(ctx context.Context, serverID string) ([]domain.GroupRoleMapping, error) {
	cfg, err := s.configs.GetConfig(ctx, serverID)
	if err != nil {
		return nil, err
	}
	return s.configs.GetGroupRoleMappings(ctx, cfg.ID)
}

func (s *service) SetNicknamePolicy(ctx context.Context, serverID string, policy domain.NicknamePolicy) (*domain.ServerConfig, error) {
	if !domain.ValidNicknamePolicy(policy) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidNicknamePolicy, policy)
	}

	cfg, err := s.configs.GetConfig(ctx, serverID)
	if errors.Is(err, domain.ErrServerNotConfigured) {
		cfg = &domain.ServerConfig{ServerID: serverID, SetupPhase: domain.SetupPhaseNickname}
	} else if err != nil {
		return nil, err
	}

	cfg.NicknamePolicy = policy
	cfg.SetupPhase = domain.SetupPhaseVerifiedRole
	if err := s.configs.UpsertConfig(ctx, cfg); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgPhaseAdvanced, "server_id", serverID, "phase", cfg.SetupPhase)
	return cfg, nil
}

func (s *service) SetVerifiedRole(ctx context.Context, serverID string, params VerifiedRoleParams) (*domain.ServerConfig, error) {
	cfg, err := s.configs.GetConfig(ctx, serverID)
	if errors.Is(err, domain.ErrServerNotConfigured) {
		return nil, fmt.Errorf("%s: %w", ErrMsgNicknameFirst, domain.ErrServerNotConfigured)
	}
	if err != nil {
		return nil, err
	}

	applyVerifiedRoleParams(cfg, params)
	cfg.SetupPhase = domain.SetupPhaseGroup
	if err := s.configs.UpsertConfig(ctx, cfg); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgPhaseAdvanced, "server_id", serverID, "phase", cfg.SetupPhase)
	return cfg, nil
}

func (s *service) ConfigureGroup(ctx context.Context, serverID string, params GroupParams) (*domain.ServerConfig, error) {
	cfg, err := s.configs.GetConfig(ctx, serverID)
	if errors.Is(err, domain.ErrServerNotConfigured) {
		return nil, fmt.Errorf("%s: %w", ErrMsgNicknameFirst, domain.ErrServerNotConfigured)
	}
	if err != nil {
		return nil, err
	}

	if params.Skip {
		cfg.GroupRolesEnabled = false
	} else {
		if err := s.applyGroup(ctx, cfg, params); err != nil {
			return nil, err
		}
	}

	s.ensureVerifiedRole(ctx, cfg)

	cfg.SetupPhase = domain.SetupPhaseCompleted
	cfg.SetupCompleted = true
	if err := s.configs.UpsertConfig(ctx, cfg); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgSetupCompleted, "server_id", serverID, "group_roles", cfg.GroupRolesEnabled)
	return cfg, nil
}

func (s *service) EditNicknamePolicy(ctx context.Context, serverID string, policy domain.NicknamePolicy) error {
	if !domain.ValidNicknamePolicy(policy) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidNicknamePolicy, policy)
	}

	cfg, err := s.configs.GetConfig(ctx, serverID)
	if err != nil {
		return err
	}

	cfg.NicknamePolicy = policy
	return s.configs.UpsertConfig(ctx, cfg)
}

func (s *service) EditVerifiedRole(ctx context.Context, serverID string, params VerifiedRoleParams) error {
	cfg, err := s.configs.GetConfig(ctx, serverID)
	if err != nil {
		return err
	}

	if params.Name != "" && params.Name != cfg.VerifiedRoleName && cfg.VerifiedRoleID != "" {
		if _, err := s.guilds.EditRole(ctx, serverID, cfg.VerifiedRoleID, params.Name); err != nil {
			logger.FromContext(ctx).Warn(LogMsgRoleRenameFailed,
				"server_id", serverID, "role_id", cfg.VerifiedRoleID, "error", err)
		}
	}

	applyVerifiedRoleParams(cfg, params)
	return s.configs.UpsertConfig(ctx, cfg)
}

func (s *service) EditGroup(ctx context.Context, serverID string, params GroupParams) error {
	cfg, err := s.configs.GetConfig(ctx, serverID)
	if err != nil {
		return err
	}

	if params.Skip {
		cfg.GroupRolesEnabled = false
		cfg.GroupID = ""
		cfg.GroupName = ""
		if err := s.configs.ReplaceGroupRoleMappings(ctx, cfg.ID, nil); err != nil {
			return err
		}
		return s.configs.UpsertConfig(ctx, cfg)
	}

	if err := s.applyGroup(ctx, cfg, params); err != nil {
		return err
	}
	s.ensureVerifiedRole(ctx, cfg)

	cfg.SetupPhase = domain.SetupPhaseCompleted
	cfg.SetupCompleted = true
	return s.configs.UpsertConfig(ctx, cfg)
}

func (s *service) Reset(ctx context.Context, serverID string) error {
	if _, err := s.configs.GetConfig(ctx, serverID); err != nil {
		return err
	}
	if err := s.configs.DeleteConfig(ctx, serverID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info(LogMsgConfigReset, "server_id", serverID)
	return nil
}

// applyGroup resolves the group, rebuilds the mapping set (ranks above
// guest only, highest rank first) and creates a Discord role per mapping.
func (s *service) applyGroup(ctx context.Context, cfg *domain.ServerConfig, params GroupParams) error {
	groupID := params.GroupID
	if params.GroupURL != "" {
		extracted, err := ExtractGroupID(params.GroupURL)
		if err != nil {
			return err
		}
		groupID = extracted
	}
	if groupID == "" {
		return fmt.Errorf("%s: %w", ErrMsgGroupSourceEmpty, domain.ErrInvalidGroup)
	}

	info, roles, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidGroup, err)
	}

	cfg.GroupID = groupID
	cfg.GroupName = info.Name
	cfg.GroupRolesEnabled = true

	mappings := buildMappings(cfg.ID, roles, s.caser)
	s.createMappedRoles(ctx, cfg.ServerID, mappings)

	if err := s.configs.ReplaceGroupRoleMappings(ctx, cfg.ID, mappings); err != nil {
		return err
	}

	logger.FromContext(ctx).Info(LogMsgMappingsReplaced,
		"server_id", cfg.ServerID, "group_id", groupID, "mappings", len(mappings))
	return nil
}

// createMappedRoles materializes one Discord role per mapping. Failures are
// logged and leave the mapping without a Discord role; reconciliation treats
// those mappings as unassignable.
func (s *service) createMappedRoles(ctx context.Context, serverID string, mappings []domain.GroupRoleMapping) {
	log := logger.FromContext(ctx)
	for i := range mappings {
		role, err := s.guilds.CreateRole(ctx, serverID, mappings[i].DiscordRoleName)
		if err != nil {
			log.Warn(LogMsgRoleCreateFailed,
				"server_id", serverID, "role_name", mappings[i].DiscordRoleName, "error", err)
			continue
		}
		mappings[i].DiscordRoleID = role.ID
	}
}

// ensureVerifiedRole creates the verified Discord role when the step enabled
// one and no role exists yet. Best effort.
func (s *service) ensureVerifiedRole(ctx context.Context, cfg *domain.ServerConfig) {
	if !cfg.VerifiedRoleEnabled || cfg.VerifiedRoleName == "" || cfg.VerifiedRoleID != "" {
		return
	}

	role, err := s.guilds.CreateRole(ctx, cfg.ServerID, cfg.VerifiedRoleName)
	if err != nil {
		logger.FromContext(ctx).Warn(LogMsgRoleCreateFailed,
			"server_id", cfg.ServerID, "role_name", cfg.VerifiedRoleName, "error", err)
		return
	}
	cfg.VerifiedRoleID = role.ID
}

func applyVerifiedRoleParams(cfg *domain.ServerConfig, params VerifiedRoleParams) {
	if params.Enabled != nil {
		cfg.VerifiedRoleEnabled = *params.Enabled
	}
	if params.Name != "" {
		cfg.VerifiedRoleName = params.Name
	}
	if params.RoleID != "" {
		cfg.VerifiedRoleID = params.RoleID
	}
	if len(params.RolesToRemove) > 0 {
		cfg.RolesToRemove = params.RolesToRemove
	}
}

func buildMappings(serverConfigID int64, roles []domain.GroupRole, caser cases.Caser) []domain.GroupRoleMapping {
	filtered := make([]domain.GroupRole, 0, len(roles))
	for _, role := range roles {
		if role.Rank > 0 {
			filtered = append(filtered, role)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Rank > filtered[j].Rank })

	mappings := make([]domain.GroupRoleMapping, 0, len(filtered))
	for _, role := range filtered {
		mappings = append(mappings, domain.GroupRoleMapping{
			ServerConfigID:  serverConfigID,
			RobloxRoleID:    role.ID,
			RobloxRoleName:  role.Name,
			RobloxRoleRank:  role.Rank,
			DiscordRoleName: caser.String(role.Name),
		})
	}
	return mappings
}
