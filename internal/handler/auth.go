package handler

import (
	"net/http"
	"net/url"

	"github.com/disblox/disblox/internal/auth"
	"github.com/disblox/disblox/internal/logger"
)

// AuthHandlers contains handlers for Discord login and session management
type AuthHandlers struct {
	svc         auth.Service
	frontendURL string
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(svc auth.Service, frontendURL string) *AuthHandlers {
	return &AuthHandlers{svc: svc, frontendURL: frontendURL}
}

// RefreshRequest is the request body for rotating tokens
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// HandleLogin handles GET /auth/login
// @Summary Start Discord login
// @Description Redirects the browser to the Discord authorization page
// @Tags auth
// @Success 307
// @Router /api/v1/auth/login [get]
func (h *AuthHandlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, _, err := h.svc.AuthorizationURL(r.Context())
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to generate authorization URL", "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgGenericServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	}
}

// HandleCallback handles GET /auth/callback. Discord redirects the browser
// here; success and failure both bounce back to the frontend.
func (h *AuthHandlers) HandleCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		query := r.URL.Query()

		if oauthErr := query.Get("error"); oauthErr != "" || query.Get("code") == "" {
			msg := "Authorization was cancelled or failed"
			if oauthErr == "access_denied" {
				msg = "Authorization was cancelled by the user"
			} else if oauthErr != "" {
				msg = "Discord authorization failed: " + query.Get("error_description")
			}
			h.redirectWithError(w, r, msg)
			return
		}

		session, err := h.svc.Login(r.Context(), query.Get("code"), query.Get("state"))
		if err != nil {
			log.Error("Discord login failed", "error", err)
			h.redirectWithError(w, r, "authentication failed")
			return
		}

		dest, _ := url.Parse(h.frontendURL + "/auth/callback")
		values := dest.Query()
		values.Set("access_token", session.AccessToken)
		values.Set("refresh_token", session.RefreshToken)
		if guildID := query.Get("guild_id"); guildID != "" {
			values.Set("guild_id", guildID)
		}
		dest.RawQuery = values.Encode()

		http.Redirect(w, r, dest.String(), http.StatusTemporaryRedirect)
	}
}

// HandleMe handles GET /auth/me
func (h *AuthHandlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{
			Success: true,
			Data: map[string]interface{}{
				"discord_id": user.DiscordID,
				"username":   user.Username,
				"avatar":     user.Avatar,
				"created_at": user.CreatedAt,
			},
		})
	}
}

// HandleLogout handles POST /auth/logout
func (h *AuthHandlers) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		if err := h.svc.Logout(r.Context(), user); err != nil {
			logger.FromContext(r.Context()).Error("Logout failed", "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgGenericServerError)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Logged out successfully"})
	}
}

// HandleRefresh handles POST /auth/refresh
func (h *AuthHandlers) HandleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Refresh token"); err != nil {
			return
		}

		session, err := h.svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			logger.FromContext(r.Context()).Warn("Token refresh failed", "error", err)
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{
			Success: true,
			Message: "Token refreshed successfully",
			Data:    session,
		})
	}
}

// redirectWithError bounces the browser to the frontend login page with a
// readable error string.
func (h *AuthHandlers) redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	dest := h.frontendURL + "/login?error=" + url.QueryEscape(msg)
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}
