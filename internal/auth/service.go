package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
	"github.com/disblox/disblox/internal/repository"
	"github.com/disblox/disblox/internal/roblox"
)

// Session is the token bundle returned on login and refresh.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *domain.User `json:"user"`
}

// Service defines the Discord login and session lifecycle
type Service interface {
	// AuthorizationURL issues a state value and the Discord authorize URL
	AuthorizationURL(ctx context.Context) (url, state string, err error)

	// Login exchanges the OAuth callback code for a session
	Login(ctx context.Context, code, state string) (*Session, error)

	// Refresh rotates both tokens from a valid refresh token
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	// Authenticate resolves an access token to the stored user
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)

	// UserGuilds lists the guilds visible to the user's Discord token
	UserGuilds(ctx context.Context, user *domain.User) ([]DiscordGuild, error)

	// Logout drops the user's cached Discord data
	Logout(ctx context.Context, user *domain.User) error
}

type service struct {
	oauth  *DiscordOAuth
	tokens *TokenManager
	users  repository.User
	cache  *cache.Cache
}

// NewService creates a new auth service
func NewService(oauth *DiscordOAuth, tokens *TokenManager, users repository.User, dataCache *cache.Cache) Service {
	return &service{
		oauth:  oauth,
		tokens: tokens,
		users:  users,
		cache:  dataCache,
	}
}

func discordTokenKey(discordID string) string {
	return "discord_token:" + discordID
}

// AuthorizationURL issues a state value and the Discord authorize URL
func (s *service) AuthorizationURL(ctx context.Context) (string, string, error) {
	state := roblox.GenerateState()
	s.cache.Set(cache.OAuthStateKey(state), struct{}{}, cache.OAuthStateTTL)
	return s.oauth.AuthCodeURL(state), state, nil
}

// Login exchanges the OAuth callback code for a session
func (s *service) Login(ctx context.Context, code, state string) (*Session, error) {
	log := logger.FromContext(ctx)

	if _, ok := s.cache.Get(cache.OAuthStateKey(state)); !ok {
		return nil, fmt.Errorf("%s: %w", ErrMsgStateMismatch, domain.ErrInvalidState)
	}
	s.cache.Delete(cache.OAuthStateKey(state))

	token, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	info, err := s.oauth.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		DiscordID:     info.ID,
		Username:      info.Username,
		Discriminator: info.Discriminator,
		Avatar:        info.Avatar,
	}
	if err := s.users.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	// Fresh login invalidates only this user's cached Discord data
	s.invalidateUser(info.ID)
	s.cache.Set(discordTokenKey(info.ID), token, DiscordTokenTTL)

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	log.Info(LogMsgUserLoggedIn, "discord_id", user.DiscordID, "username", user.Username)
	return session, nil
}

// Refresh rotates both tokens from a valid refresh token
func (s *service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	log := logger.FromContext(ctx)

	discordID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByDiscordID(ctx, discordID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	log.Info(LogMsgSessionRefreshed, "discord_id", discordID)
	return session, nil
}

// Authenticate resolves an access token to the stored user
func (s *service) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	discordID, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByDiscordID(ctx, discordID)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

// UserGuilds lists the guilds visible to the user's Discord token
func (s *service) UserGuilds(ctx context.Context, user *domain.User) ([]DiscordGuild, error) {
	log := logger.FromContext(ctx)

	if cached, ok := s.cache.Get(cache.UserGuildsKey(user.DiscordID)); ok {
		log.Debug(LogMsgGuildsServedCache, "discord_id", user.DiscordID)
		return cached.([]DiscordGuild), nil
	}

	stored, ok := s.cache.Get(discordTokenKey(user.DiscordID))
	if !ok {
		return nil, fmt.Errorf("%s: %w", ErrMsgNoDiscordToken, domain.ErrInvalidToken)
	}

	// TokenSource refreshes the Discord token transparently when expired
	token, err := s.oauth.TokenSource(ctx, stored.(*oauth2.Token)).Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgNoDiscordToken, domain.ErrInvalidToken)
	}
	s.cache.Set(discordTokenKey(user.DiscordID), token, DiscordTokenTTL)

	guilds, err := s.oauth.GetUserGuilds(ctx, token)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cache.UserGuildsKey(user.DiscordID), guilds, cache.UserGuildsTTL)
	return guilds, nil
}

// Logout drops the user's cached Discord data
func (s *service) Logout(ctx context.Context, user *domain.User) error {
	s.invalidateUser(user.DiscordID)
	s.cache.Delete(discordTokenKey(user.DiscordID))
	logger.FromContext(ctx).Info(LogMsgUserLoggedOut, "discord_id", user.DiscordID)
	return nil
}

// invalidateUser clears cached Discord data for one user only
func (s *service) invalidateUser(discordID string) {
	s.cache.Delete(cache.UserKey(discordID))
	s.cache.Delete(cache.UserGuildsKey(discordID))
}

func (s *service) issueSession(user *domain.User) (*Session, error) {
	access, err := s.tokens.IssueAccessToken(user.DiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.DiscordID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user,
	}, nil
}
