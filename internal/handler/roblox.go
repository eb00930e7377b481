package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/disblox/disblox/internal/identity"
	"github.com/disblox/disblox/internal/logger"
)

// RobloxHandlers contains handlers for the Roblox account linking flow
type RobloxHandlers struct {
	svc         identity.Service
	frontendURL string
	configured  bool
}

// NewRobloxHandlers creates new Roblox linking handlers
func NewRobloxHandlers(svc identity.Service, frontendURL string, configured bool) *RobloxHandlers {
	return &RobloxHandlers{svc: svc, frontendURL: frontendURL, configured: configured}
}

// HandleBeginAuth handles GET /roblox/auth
// @Summary Start Roblox account linking
// @Description Issues the Roblox authorization URL with a PKCE challenge
// @Tags roblox
// @Produce json
// @Success 200 {object} DataResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/roblox/auth [get]
func (h *RobloxHandlers) HandleBeginAuth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.configured {
			respondError(w, http.StatusServiceUnavailable, ErrMsgRobloxNotConfigured)
			return
		}

		user := requireUser(w, r)
		if user == nil {
			return
		}

		authURL, state, err := h.svc.BeginLink(r.Context(), user)
		if err != nil {
			logger.FromContext(r.Context()).Error("Failed to start Roblox link", "error", err)
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{
			Success: true,
			Message: "Roblox authorization URL generated",
			Data: map[string]string{
				"auth_url": authURL,
				"state":    state,
			},
		})
	}
}

// HandleCallback handles GET /roblox/callback. Roblox redirects the browser
// here without our JWT, so the user is recovered from the cached state.
func (h *RobloxHandlers) HandleCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())
		query := r.URL.Query()

		if oauthErr := query.Get("error"); oauthErr != "" {
			h.redirectWithError(w, r, oauthErr)
			return
		}
		if !h.configured {
			h.redirectWithError(w, r, ErrMsgRobloxNotConfigured)
			return
		}

		code, state := query.Get("code"), query.Get("state")
		if code == "" || state == "" {
			h.redirectWithError(w, r, ErrMsgInvalidStateError)
			return
		}

		user, err := h.svc.PendingUser(r.Context(), state)
		if err != nil {
			log.Warn("Roblox callback with unknown state", "error", err)
			h.redirectWithError(w, r, ErrMsgInvalidStateError)
			return
		}

		account, err := h.svc.CompleteLink(r.Context(), user, code, state)
		if err != nil {
			log.Error("Roblox link failed", "discord_id", user.DiscordID, "error", err)
			_, userMsg := mapServiceErrorToUserMessage(err)
			h.redirectWithError(w, r, userMsg)
			return
		}

		log.Info("Roblox account linked via dashboard",
			"discord_id", user.DiscordID,
			"roblox_username", account.RobloxUsername)
		http.Redirect(w, r, h.frontendURL+"/roblox/callback?code=success&state=linked", http.StatusTemporaryRedirect)
	}
}

// HandleUnlink handles DELETE /roblox/unlink/{accountID}
func (h *RobloxHandlers) HandleUnlink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		if err := h.svc.Unlink(r.Context(), user, accountID); err != nil {
			logger.FromContext(r.Context()).Error("Unlink failed", "account_id", accountID, "error", err)
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Account unlinked"})
	}
}

// HandleStatus handles GET /roblox/status
func (h *RobloxHandlers) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		accounts, err := h.svc.Accounts(r.Context(), user.ID)
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{
			Success: true,
			Data: map[string]interface{}{
				"configured": h.configured,
				"linked":     len(accounts) > 0,
				"accounts":   accounts,
			},
		})
	}
}

func (h *RobloxHandlers) redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	dest := h.frontendURL + "/roblox/callback?error=" + url.QueryEscape(msg)
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}
