package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/disblox/disblox/internal/domain"
)

const refreshTokenType = "refresh"

// Claims carries the session identity inside access and refresh tokens.
// Subject is the user's Discord id; TokenType is set on refresh tokens only.
type Claims struct {
	TokenType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager mints and verifies HS256 session tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a token manager with the given signing secret and TTLs
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL returns the configured access token lifetime
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// IssueAccessToken mints a short-lived access token for a Discord user
func (m *TokenManager) IssueAccessToken(discordID string) (string, error) {
	return m.sign(discordID, "", m.accessTTL)
}

// IssueRefreshToken mints a long-lived refresh token for a Discord user
func (m *TokenManager) IssueRefreshToken(discordID string) (string, error) {
	return m.sign(discordID, refreshTokenType, m.refreshTTL)
}

func (m *TokenManager) sign(discordID, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   discordID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// VerifyAccessToken validates an access token and returns the Discord id.
// Refresh tokens are rejected here so they cannot authenticate API calls.
func (m *TokenManager) VerifyAccessToken(tokenString string) (string, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

// VerifyRefreshToken validates a refresh token and returns the Discord id
func (m *TokenManager) VerifyRefreshToken(tokenString string) (string, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != refreshTokenType {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (m *TokenManager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
