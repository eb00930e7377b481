package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/domain"
)

// DiscordUser is the /users/@me payload subset the service needs.
type DiscordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
	Email         string `json:"email,omitempty"`
}

// DiscordGuild is one entry from /users/@me/guilds.
type DiscordGuild struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions"`
}

// CanManage reports whether the user owns the guild or holds the
// administrator permission bit, which gates dashboard management.
func (g DiscordGuild) CanManage() bool {
	if g.Owner {
		return true
	}
	perms, err := strconv.ParseInt(g.Permissions, 10, 64)
	return err == nil && perms&ManageGuildPermission != 0
}

// DiscordOAuth drives the Discord authorization code flow and the two
// user-scoped API reads it unlocks.
type DiscordOAuth struct {
	config  *oauth2.Config
	http    *http.Client
	limiter *cache.RateLimiter

	apiBaseURL string
}

// DiscordOption customizes the OAuth client, primarily for tests
type DiscordOption func(*DiscordOAuth)

// WithDiscordEndpoints overrides the OAuth and API URLs
func WithDiscordEndpoints(authURL, tokenURL, apiBaseURL string) DiscordOption {
	return func(d *DiscordOAuth) {
		d.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		d.apiBaseURL = apiBaseURL
	}
}

// WithDiscordHTTPClient overrides the underlying HTTP client
func WithDiscordHTTPClient(h *http.Client) DiscordOption {
	return func(d *DiscordOAuth) {
		d.http = h
	}
}

// NewDiscordOAuth creates the Discord OAuth flow
func NewDiscordOAuth(clientID, clientSecret, redirectURL string, limiter *cache.RateLimiter, opts ...DiscordOption) *DiscordOAuth {
	d := &DiscordOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  DefaultAuthURL,
				TokenURL: DefaultTokenURL,
			},
			Scopes: []string{"identify", "email", "guilds"},
		},
		http:       &http.Client{Timeout: RequestTimeout},
		limiter:    limiter,
		apiBaseURL: DefaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AuthCodeURL builds the Discord authorization URL for a state value
func (d *DiscordOAuth) AuthCodeURL(state string) string {
	return d.config.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a Discord token
func (d *DiscordOAuth) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.http)
	token, err := d.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgTokenExchangeFailed, err)
	}
	return token, nil
}

// GetUser fetches the token owner's Discord profile
func (d *DiscordOAuth) GetUser(ctx context.Context, token *oauth2.Token) (*DiscordUser, error) {
	if !d.limiter.Allow(EndpointUserInfo, DiscordAPILimit, DiscordAPIWindow) {
		return nil, domain.ErrRateLimited
	}

	var user DiscordUser
	if err := d.getJSON(ctx, token, "/users/@me", &user); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgUserInfoFailed, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%s: empty user id", ErrMsgUserInfoFailed)
	}
	return &user, nil
}

// GetUserGuilds fetches the guilds visible to the token owner
func (d *DiscordOAuth) GetUserGuilds(ctx context.Context, token *oauth2.Token) ([]DiscordGuild, error) {
	if !d.limiter.Allow(EndpointUserGuilds, DiscordAPILimit, DiscordAPIWindow) {
		return nil, domain.ErrRateLimited
	}

	var guilds []DiscordGuild
	if err := d.getJSON(ctx, token, "/users/@me/guilds", &guilds); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgGuildsFailed, err)
	}
	return guilds, nil
}

// TokenSource wraps a stored token so expired ones refresh transparently
func (d *DiscordOAuth) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, d.http)
	return d.config.TokenSource(ctx, token)
}

func (d *DiscordOAuth) getJSON(ctx context.Context, token *oauth2.Token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	token.SetAuthHeader(req)

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return domain.ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrExternalServiceUnavailable, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
