package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
	"github.com/disblox/disblox/internal/metrics"
	"github.com/disblox/disblox/internal/repository"
	"github.com/disblox/disblox/internal/roblox"
)

// linkState ties an in-flight PKCE flow to the user who started it
type linkState struct {
	DiscordID    string
	CodeVerifier string
}

// Service manages a user's linked Roblox identities.
type Service interface {
	// BeginLink issues the Roblox authorize URL for a user
	BeginLink(ctx context.Context, user *domain.User) (authURL, state string, err error)

	// PendingUser resolves which user started the link flow for a state
	// value. The OAuth callback arrives unauthenticated, so this is how
	// the callback handler recovers the session.
	PendingUser(ctx context.Context, state string) (*domain.User, error)

	// CompleteLink exchanges the OAuth callback into a verified identity
	CompleteLink(ctx context.Context, user *domain.User, code, state string) (*domain.LinkedAccount, error)

	// Unlink removes one of the user's identities
	Unlink(ctx context.Context, user *domain.User, accountID int64) error

	// Accounts lists the user's identities in creation order
	Accounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error)

	// Primary selects the identity reconciliation acts on:
	// first verified, else first linked. ErrNoLinkedIdentity when none.
	Primary(ctx context.Context, userID int64) (*domain.LinkedAccount, error)
}

type service struct {
	oauth  *roblox.OAuth
	client *roblox.Client
	users  repository.User
	cache  *cache.Cache
}

// NewService creates a new identity service
func NewService(oauth *roblox.OAuth, client *roblox.Client, users repository.User, dataCache *cache.Cache) Service {
	return &service{
		oauth:  oauth,
		client: client,
		users:  users,
		cache:  dataCache,
	}
}

// BeginLink issues the Roblox authorize URL for a user
func (s *service) BeginLink(ctx context.Context, user *domain.User) (string, string, error) {
	if !s.oauth.Configured() {
		return "", "", fmt.Errorf("%s: %w", ErrMsgRobloxNotConfigured, domain.ErrExternalServiceUnavailable)
	}

	state := roblox.GenerateState()
	verifier, challenge := roblox.GeneratePKCE()

	s.cache.Set(cache.OAuthStateKey(state), linkState{
		DiscordID:    user.DiscordID,
		CodeVerifier: verifier,
	}, cache.OAuthStateTTL)

	logger.FromContext(ctx).Info(LogMsgLinkStarted, "discord_id", user.DiscordID)
	return s.oauth.AuthCodeURL(state, challenge), state, nil
}

// PendingUser resolves which user started the link flow for a state value
func (s *service) PendingUser(ctx context.Context, state string) (*domain.User, error) {
	cached, ok := s.cache.Get(cache.OAuthStateKey(state))
	if !ok {
		return nil, fmt.Errorf("%s: %w", ErrMsgStateMismatch, domain.ErrInvalidState)
	}

	pending := cached.(linkState)
	return s.users.GetUserByDiscordID(ctx, pending.DiscordID)
}

// CompleteLink exchanges the OAuth callback into a verified identity
func (s *service) CompleteLink(ctx context.Context, user *domain.User, code, state string) (*domain.LinkedAccount, error) {
	log := logger.FromContext(ctx)

	cached, ok := s.cache.Get(cache.OAuthStateKey(state))
	if !ok {
		return nil, fmt.Errorf("%s: %w", ErrMsgStateMismatch, domain.ErrInvalidState)
	}
	s.cache.Delete(cache.OAuthStateKey(state))

	pending := cached.(linkState)
	if pending.DiscordID != user.DiscordID {
		return nil, fmt.Errorf("%s: %w", ErrMsgStateMismatch, domain.ErrInvalidState)
	}

	token, err := s.oauth.ExchangeCode(ctx, code, pending.CodeVerifier)
	if err != nil {
		return nil, err
	}

	info, err := s.oauth.GetUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	// One Roblox account may be linked to at most one Discord account.
	// Not-found is the happy path; any other lookup failure must not fall
	// through to the insert.
	existing, err := s.users.GetLinkedAccountByRobloxID(ctx, info.Sub)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check existing link: %w", err)
	}
	if existing != nil {
		if existing.UserID == user.ID {
			return nil, fmt.Errorf("%s: %w", ErrMsgAlreadyLinkedSelf, domain.ErrAlreadyLinked)
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgAlreadyLinkedOther, domain.ErrAlreadyLinked)
	}

	account := &domain.LinkedAccount{
		UserID:         user.ID,
		RobloxID:       info.Sub,
		RobloxUsername: info.Username(),
		RobloxAvatar:   s.client.GetAvatarURL(ctx, info.Sub),
		Verified:       true,
	}
	if err := s.users.CreateLinkedAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to store linked account: %w", err)
	}

	// Only the linking user's cached profile can be stale now
	s.cache.Delete(cache.ProfileKey(info.Sub))

	metrics.AccountsLinked.Inc()

	log.Info(LogMsgAccountLinked,
		"discord_id", user.DiscordID,
		"roblox_id", account.RobloxID,
		"roblox_username", account.RobloxUsername)
	return account, nil
}

// Unlink removes one of the user's identities
func (s *service) Unlink(ctx context.Context, user *domain.User, accountID int64) error {
	accounts, err := s.users.GetLinkedAccounts(ctx, user.ID)
	if err != nil {
		return err
	}

	var target *domain.LinkedAccount
	for i := range accounts {
		if accounts[i].ID == accountID {
			target = &accounts[i]
			break
		}
	}
	if target == nil {
		return domain.ErrAccountNotFound
	}

	if err := s.users.DeleteLinkedAccount(ctx, user.ID, accountID); err != nil {
		return err
	}

	s.cache.Delete(cache.ProfileKey(target.RobloxID))

	logger.FromContext(ctx).Info(LogMsgAccountRemoved,
		"discord_id", user.DiscordID,
		"roblox_id", target.RobloxID)
	return nil
}

// Accounts lists the user's identities in creation order
func (s *service) Accounts(ctx context.Context, userID int64) ([]domain.LinkedAccount, error) {
	return s.users.GetLinkedAccounts(ctx, userID)
}

// Primary selects the identity reconciliation acts on
func (s *service) Primary(ctx context.Context, userID int64) (*domain.LinkedAccount, error) {
	accounts, err := s.users.GetLinkedAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	primary := domain.PrimaryAccount(accounts)
	if primary == nil {
		return nil, domain.ErrNoLinkedIdentity
	}
	return primary, nil
}
