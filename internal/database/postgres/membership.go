package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/disblox/disblox/internal/domain"
)

// MembershipRepository implements repository.Membership
type MembershipRepository struct {
	db *pgxpool.Pool
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// UpsertMember records a user's presence in a guild
func (r *MembershipRepository) UpsertMember(ctx context.Context, member *domain.ServerMember) error {
	query := `
		INSERT INTO server_members (user_id, server_id, server_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, server_id) DO UPDATE
		SET server_name = EXCLUDED.server_name
		RETURNING id, added_at
	`
	err := r.db.QueryRow(ctx, query,
		member.UserID, member.ServerID, member.ServerName,
	).Scan(&member.ID, &member.AddedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert server member: %w", err)
	}
	return nil
}

// GetMember retrieves a single membership record
func (r *MembershipRepository) GetMember(ctx context.Context, userID int64, serverID string) (*domain.ServerMember, error) {
	query := `
		SELECT id, user_id, server_id, server_name, added_at
		FROM server_members
		WHERE user_id = $1 AND server_id = $2
	`
	var m domain.ServerMember
	err := r.db.QueryRow(ctx, query, userID, serverID).Scan(
		&m.ID, &m.UserID, &m.ServerID, &m.ServerName, &m.AddedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server member: %w", err)
	}
	return &m, nil
}

// GetMembersForUser lists every guild the user is recorded in
func (r *MembershipRepository) GetMembersForUser(ctx context.Context, userID int64) ([]domain.ServerMember, error) {
	query := `
		SELECT id, user_id, server_id, server_name, added_at
		FROM server_members
		WHERE user_id = $1
		ORDER BY added_at ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query server members: %w", err)
	}
	defer rows.Close()

	var members []domain.ServerMember
	for rows.Next() {
		var m domain.ServerMember
		if err := rows.Scan(&m.ID, &m.UserID, &m.ServerID, &m.ServerName, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan server member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// DeleteMember removes one membership record
func (r *MembershipRepository) DeleteMember(ctx context.Context, userID int64, serverID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM server_members WHERE user_id = $1 AND server_id = $2`,
		userID, serverID,
	)
	return err
}

// DeleteMembersForServer removes all membership records for a guild
func (r *MembershipRepository) DeleteMembersForServer(ctx context.Context, serverID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM server_members WHERE server_id = $1`, serverID)
	return err
}

// GuildRegistryRepository implements repository.GuildRegistry
type GuildRegistryRepository struct {
	db *pgxpool.Pool
}

// NewGuildRegistryRepository creates a new guild registry repository
func NewGuildRegistryRepository(db *pgxpool.Pool) *GuildRegistryRepository {
	return &GuildRegistryRepository{db: db}
}

// UpsertGuild records or refreshes a guild the bot is joined to
func (r *GuildRegistryRepository) UpsertGuild(ctx context.Context, guild *domain.BotServer) error {
	query := `
		INSERT INTO bot_servers (server_id, server_name, server_icon, owner_id, member_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (server_id) DO UPDATE
		SET server_name = EXCLUDED.server_name,
		    server_icon = EXCLUDED.server_icon,
		    owner_id = EXCLUDED.owner_id,
		    member_count = EXCLUDED.member_count
		RETURNING id, joined_at
	`
	err := r.db.QueryRow(ctx, query,
		guild.ServerID, guild.ServerName, guild.ServerIcon, guild.OwnerID, guild.MemberCount,
	).Scan(&guild.ID, &guild.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert bot server: %w", err)
	}
	return nil
}

// GetGuild retrieves a registered guild by Discord id
func (r *GuildRegistryRepository) GetGuild(ctx context.Context, serverID string) (*domain.BotServer, error) {
	query := `
		SELECT id, server_id, server_name, COALESCE(server_icon, ''), owner_id, member_count, joined_at
		FROM bot_servers
		WHERE server_id = $1
	`
	var g domain.BotServer
	err := r.db.QueryRow(ctx, query, serverID).Scan(
		&g.ID, &g.ServerID, &g.ServerName, &g.ServerIcon, &g.OwnerID, &g.MemberCount, &g.JoinedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGuildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bot server: %w", err)
	}
	return &g, nil
}

// ListGuilds returns every guild the bot is registered in
func (r *GuildRegistryRepository) ListGuilds(ctx context.Context) ([]domain.BotServer, error) {
	query := `
		SELECT id, server_id, server_name, COALESCE(server_icon, ''), owner_id, member_count, joined_at
		FROM bot_servers
		ORDER BY joined_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bot servers: %w", err)
	}
	defer rows.Close()

	var guilds []domain.BotServer
	for rows.Next() {
		var g domain.BotServer
		if err := rows.Scan(&g.ID, &g.ServerID, &g.ServerName, &g.ServerIcon, &g.OwnerID, &g.MemberCount, &g.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bot server: %w", err)
		}
		guilds = append(guilds, g)
	}
	return guilds, rows.Err()
}

// DeleteGuild removes a guild from the registry
func (r *GuildRegistryRepository) DeleteGuild(ctx context.Context, serverID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bot_servers WHERE server_id = $1`, serverID)
	return err
}
