package repository

import (
	"context"

	"github.com/disblox/disblox/internal/domain"
)

// User defines the interface for user and linked-account persistence
type User interface {
	UpsertUser(ctx context.Context, user *domain.User) error
	GetUserByDiscordID(ctx context.Context, discordID string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	DeleteUser(ctx context.Context, userID int64) error

	CreateLinkedAccount(ctx context.Context, account *domain.LinkedAccount) error
	GetLinkedAccounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error)
	GetLinkedAccountByRobloxID(ctx context.Context, robloxID string) (*domain.LinkedAccount, error)
	DeleteLinkedAccount(ctx context.Context, userID, accountID int64) error
}
