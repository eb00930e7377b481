package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/disblox/disblox/internal/domain"
)

// UserRepository implements repository.User
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser inserts or updates a user keyed by discord_id.
// The generated id and timestamps are written back into user.
func (r *UserRepository) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (discord_id, username, discriminator, avatar)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (discord_id) DO UPDATE
		SET username = EXCLUDED.username,
		    discriminator = EXCLUDED.discriminator,
		    avatar = EXCLUDED.avatar,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.DiscordID,
		user.Username,
		user.Discriminator,
		user.Avatar,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUserByDiscordID retrieves a user by their Discord snowflake
func (r *UserRepository) GetUserByDiscordID(ctx context.Context, discordID string) (*domain.User, error) {
	query := `
		SELECT id, discord_id, username, COALESCE(discriminator, ''), COALESCE(avatar, ''),
		       created_at, updated_at
		FROM users
		WHERE discord_id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, discordID))
}

// GetUserByID retrieves a user by internal id
func (r *UserRepository) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	query := `
		SELECT id, discord_id, username, COALESCE(discriminator, ''), COALESCE(avatar, ''),
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, userID))
}

// DeleteUser removes a user; linked accounts and memberships cascade
func (r *UserRepository) DeleteUser(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}

// CreateLinkedAccount stores a new Roblox identity for a user
func (r *UserRepository) CreateLinkedAccount(ctx context.Context, account *domain.LinkedAccount) error {
	query := `
		INSERT INTO linked_accounts (user_id, roblox_id, roblox_username, roblox_avatar, verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, linked_at
	`
	err := r.db.QueryRow(ctx, query,
		account.UserID,
		account.RobloxID,
		account.RobloxUsername,
		account.RobloxAvatar,
		account.Verified,
	).Scan(&account.ID, &account.LinkedAt)
	if err != nil {
		return fmt.Errorf("failed to create linked account: %w", err)
	}
	return nil
}

// GetLinkedAccounts returns a user's accounts ordered by creation
func (r *UserRepository) GetLinkedAccounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error) {
	query := `
		SELECT id, user_id, roblox_id, roblox_username, COALESCE(roblox_avatar, ''), verified, linked_at
		FROM linked_accounts
		WHERE user_id = $1
		ORDER BY linked_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.LinkedAccount
	for rows.Next() {
		var a domain.LinkedAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.RobloxID, &a.RobloxUsername, &a.RobloxAvatar, &a.Verified, &a.LinkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan linked account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetLinkedAccountByRobloxID finds an account by Roblox id, across all users
func (r *UserRepository) GetLinkedAccountByRobloxID(ctx context.Context, robloxID string) (*domain.LinkedAccount, error) {
	query := `
		SELECT id, user_id, roblox_id, roblox_username, COALESCE(roblox_avatar, ''), verified, linked_at
		FROM linked_accounts
		WHERE roblox_id = $1
	`
	var a domain.LinkedAccount
	err := r.db.QueryRow(ctx, query, robloxID).Scan(
		&a.ID, &a.UserID, &a.RobloxID, &a.RobloxUsername, &a.RobloxAvatar, &a.Verified, &a.LinkedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query linked account: %w", err)
	}
	return &a, nil
}

// DeleteLinkedAccount removes one of a user's accounts
func (r *UserRepository) DeleteLinkedAccount(ctx context.Context, userID, accountID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM linked_accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.DiscordID, &u.Username, &u.Discriminator, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}
