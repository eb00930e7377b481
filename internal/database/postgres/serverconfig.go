package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/disblox/disblox/internal/domain"
)

// ServerConfigRepository implements repository.ServerConfig
type ServerConfigRepository struct {
	db *pgxpool.Pool
}

// NewServerConfigRepository creates a new server config repository
func NewServerConfigRepository(db *pgxpool.Pool) *ServerConfigRepository {
	return &ServerConfigRepository{db: db}
}

// UpsertConfig inserts or updates the config for cfg.ServerID.
// The generated id and timestamps are written back into cfg.
func (r *ServerConfigRepository) UpsertConfig(ctx context.Context, cfg *domain.ServerConfig) error {
	query := `
		INSERT INTO server_configs (
			server_id, nickname_policy,
			verified_role_enabled, verified_role_name, verified_role_id, roles_to_remove,
			group_roles_enabled, group_id, group_name,
			setup_phase, setup_completed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (server_id) DO UPDATE
		SET nickname_policy = EXCLUDED.nickname_policy,
		    verified_role_enabled = EXCLUDED.verified_role_enabled,
		    verified_role_name = EXCLUDED.verified_role_name,
		    verified_role_id = EXCLUDED.verified_role_id,
		    roles_to_remove = EXCLUDED.roles_to_remove,
		    group_roles_enabled = EXCLUDED.group_roles_enabled,
		    group_id = EXCLUDED.group_id,
		    group_name = EXCLUDED.group_name,
		    setup_phase = EXCLUDED.setup_phase,
		    setup_completed = EXCLUDED.setup_completed,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		cfg.ServerID,
		string(cfg.NicknamePolicy),
		cfg.VerifiedRoleEnabled,
		cfg.VerifiedRoleName,
		cfg.VerifiedRoleID,
		joinRoles(cfg.RolesToRemove),
		cfg.GroupRolesEnabled,
		cfg.GroupID,
		cfg.GroupName,
		string(cfg.SetupPhase),
		cfg.SetupCompleted,
	).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert server config: %w", err)
	}
	return nil
}

// GetConfig retrieves the config for a guild
func (r *ServerConfigRepository) GetConfig(ctx context.Context, serverID string) (*domain.ServerConfig, error) {
	query := `
		SELECT id, server_id, nickname_policy,
		       verified_role_enabled, verified_role_name, COALESCE(verified_role_id, ''),
		       COALESCE(roles_to_remove, ''),
		       group_roles_enabled, COALESCE(group_id, ''), COALESCE(group_name, ''),
		       setup_phase, setup_completed,
		       created_at, updated_at
		FROM server_configs
		WHERE server_id = $1
	`
	var (
		cfg           domain.ServerConfig
		policy        string
		phase         string
		rolesToRemove string
	)
	err := r.db.QueryRow(ctx, query, serverID).Scan(
		&cfg.ID, &cfg.ServerID, &policy,
		&cfg.VerifiedRoleEnabled, &cfg.VerifiedRoleName, &cfg.VerifiedRoleID,
		&rolesToRemove,
		&cfg.GroupRolesEnabled, &cfg.GroupID, &cfg.GroupName,
		&phase, &cfg.SetupCompleted,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrServerNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}
	cfg.NicknamePolicy = domain.NicknamePolicy(policy)
	cfg.SetupPhase = domain.SetupPhase(phase)
	cfg.RolesToRemove = splitRoles(rolesToRemove)
	return &cfg, nil
}

// DeleteConfig removes a guild's config; group role mappings cascade
func (r *ServerConfigRepository) DeleteConfig(ctx context.Context, serverID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM server_configs WHERE server_id = $1`, serverID)
	return err
}

// ReplaceGroupRoleMappings swaps the full mapping set for a config in one transaction
func (r *ServerConfigRepository) ReplaceGroupRoleMappings(ctx context.Context, serverConfigID int64, mappings []domain.GroupRoleMapping) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM group_roles WHERE server_config_id = $1`, serverConfigID); err != nil {
		return fmt.Errorf("failed to clear group role mappings: %w", err)
	}

	query := `
		INSERT INTO group_roles (server_config_id, roblox_role_id, roblox_role_name, roblox_role_rank, discord_role_id, discord_role_name)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range mappings {
		m := &mappings[i]
		if _, err := tx.Exec(ctx, query,
			serverConfigID, m.RobloxRoleID, m.RobloxRoleName, m.RobloxRoleRank, m.DiscordRoleID, m.DiscordRoleName,
		); err != nil {
			return fmt.Errorf("failed to insert group role mapping: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetGroupRoleMappings returns mappings for a config ordered by group rank
func (r *ServerConfigRepository) GetGroupRoleMappings(ctx context.Context, serverConfigID int64) ([]domain.GroupRoleMapping, error) {
	query := `
		SELECT id, server_config_id, roblox_role_id, roblox_role_name, roblox_role_rank,
		       COALESCE(discord_role_id, ''), discord_role_name
		FROM group_roles
		WHERE server_config_id = $1
		ORDER BY roblox_role_rank ASC
	`
	rows, err := r.db.Query(ctx, query, serverConfigID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group role mappings: %w", err)
	}
	defer rows.Close()

	var mappings []domain.GroupRoleMapping
	for rows.Next() {
		var m domain.GroupRoleMapping
		if err := rows.Scan(&m.ID, &m.ServerConfigID, &m.RobloxRoleID, &m.RobloxRoleName, &m.RobloxRoleRank, &m.DiscordRoleID, &m.DiscordRoleName); err != nil {
			return nil, fmt.Errorf("failed to scan group role mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// roles_to_remove is stored as a comma separated list
func joinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func splitRoles(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
