package roblox

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/disblox/disblox/internal/domain"
)

// OAuth implements the Roblox OAuth 2.0 authorization code flow with PKCE.
type OAuth struct {
	config      *oauth2.Config
	userInfoURL string
}

// UserInfo is the OIDC userinfo payload Roblox returns for a linked account.
type UserInfo struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Picture           string `json:"picture"`
}

// Username returns the best display handle from the userinfo claims
func (u UserInfo) Username() string {
	if u.PreferredUsername != "" {
		return u.PreferredUsername
	}
	return u.Name
}

// OAuthOption customizes the flow, primarily for tests
type OAuthOption func(*OAuth)

// WithOAuthEndpoints overrides the authorize, token and userinfo URLs
func WithOAuthEndpoints(authURL, tokenURL, userInfoURL string) OAuthOption {
	return func(o *OAuth) {
		o.config.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		o.userInfoURL = userInfoURL
	}
}

// NewOAuth creates the Roblox OAuth flow. Credentials may be empty when
// linking is disabled; callers gate on Configured().
func NewOAuth(clientID, clientSecret, redirectURL string, opts ...OAuthOption) *OAuth {
	o := &OAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  AuthURL,
				TokenURL: TokenURL,
			},
			Scopes: []string{"openid", "profile"},
		},
		userInfoURL: UserInfoURL,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Configured reports whether Roblox OAuth credentials are present
func (o *OAuth) Configured() bool {
	return o.config.ClientID != "" && o.config.ClientSecret != ""
}

// GeneratePKCE returns a fresh code verifier and its S256 challenge
func GeneratePKCE() (verifier, challenge string) {
	b := make([]byte, 32)
	_, _ = rand.Read(b)

	verifier = base64.RawURLEncoding.EncodeToString(b)

	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])

	return verifier, challenge
}

// GenerateState returns an unguessable OAuth state value
func GenerateState() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// AuthCodeURL builds the authorization URL carrying the PKCE challenge
func (o *OAuth) AuthCodeURL(state, codeChallenge string) string {
	return o.config.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode trades an authorization code and verifier for a token
func (o *OAuth) ExchangeCode(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	token, err := o.config.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgTokenExchangeFailed, err)
	}
	return token, nil
}

// GetUserInfo fetches the userinfo claims for an access token
func (o *OAuth) GetUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	client := o.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgUserInfoFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", ErrMsgUserInfoFailed, resp.StatusCode)
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgUserInfoFailed, err)
	}

	if info.Sub == "" || info.Username() == "" {
		return nil, errors.Join(domain.ErrInvalidToken, errors.New("userinfo missing required claims"))
	}
	return &info, nil
}
