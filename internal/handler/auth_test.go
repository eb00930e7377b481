package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disblox/disblox/internal/auth"
	"github.com/disblox/disblox/internal/domain"
)

func TestAuthHandlers_Login(t *testing.T) {
	svc := &fakeAuthService{authURL: "https://discord.com/oauth2/authorize?client_id=1"}
	h := NewAuthHandlers(svc, "https://app.example")

	rec := httptest.NewRecorder()
	h.HandleLogin()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, svc.authURL, rec.Header().Get("Location"))
}

func TestAuthHandlers_Callback(t *testing.T) {
	session := &auth.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         &domain.User{ID: 1, DiscordID: "d1"},
	}

	t.Run("success redirects with tokens", func(t *testing.T) {
		h := NewAuthHandlers(&fakeAuthService{session: session}, "https://app.example")

		rec := httptest.NewRecorder()
		h.HandleCallback()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?code=abc&state=xyz", nil))

		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		location := rec.Header().Get("Location")
		assert.Contains(t, location, "https://app.example/auth/callback")
		assert.Contains(t, location, "access_token=access-1")
		assert.Contains(t, location, "refresh_token=refresh-1")
	})

	t.Run("denied authorization bounces to login", func(t *testing.T) {
		h := NewAuthHandlers(&fakeAuthService{}, "https://app.example")

		rec := httptest.NewRecorder()
		h.HandleCallback()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?error=access_denied", nil))

		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "https://app.example/login?error=")
	})

	t.Run("login failure bounces to login", func(t *testing.T) {
		h := NewAuthHandlers(&fakeAuthService{loginErr: domain.ErrInvalidState}, "https://app.example")

		rec := httptest.NewRecorder()
		h.HandleCallback()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/callback?code=abc", nil))

		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "error=")
	})
}

func TestAuthHandlers_Me(t *testing.T) {
	h := NewAuthHandlers(&fakeAuthService{}, "https://app.example")
	user := &domain.User{ID: 1, DiscordID: "d1", Username: "tester"}

	t.Run("authenticated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		r = r.WithContext(WithUser(r.Context(), user))
		rec := httptest.NewRecorder()

		h.HandleMe()(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"discord_id":"d1"`)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleMe()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandlers_Refresh(t *testing.T) {
	session := &auth.Session{AccessToken: "new-access", RefreshToken: "new-refresh"}

	t.Run("rotates tokens", func(t *testing.T) {
		h := NewAuthHandlers(&fakeAuthService{session: session}, "https://app.example")

		body := bytes.NewBufferString(`{"refresh_token":"old-refresh"}`)
		rec := httptest.NewRecorder()
		h.HandleRefresh()(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", body))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "new-access")
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		h := NewAuthHandlers(&fakeAuthService{session: session}, "https://app.example")

		body := bytes.NewBufferString(`{}`)
		rec := httptest.NewRecorder()
		h.HandleRefresh()(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid token maps to 401", func(t *testing.T) {
		h := NewAuthHandlers(&fakeAuthService{refreshErr: domain.ErrInvalidToken}, "https://app.example")

		body := bytes.NewBufferString(`{"refresh_token":"stale"}`)
		rec := httptest.NewRecorder()
		h.HandleRefresh()(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", body))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandlers_Logout(t *testing.T) {
	svc := &fakeAuthService{}
	h := NewAuthHandlers(svc, "https://app.example")

	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	r = r.WithContext(WithUser(r.Context(), &domain.User{ID: 1, DiscordID: "d1"}))
	rec := httptest.NewRecorder()

	h.HandleLogout()(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"d1"}, svc.loggedOut)
}
