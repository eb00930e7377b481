package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/disblox/disblox/internal/auth"
	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/guild"
	"github.com/disblox/disblox/internal/identity"
	"github.com/disblox/disblox/internal/logger"
)

// ConfigSource loads a guild's stored configuration
type ConfigSource interface {
	GetConfig(ctx context.Context, serverID string) (*domain.ServerConfig, error)
}

// GuildMirror pushes the bot's current guild list into persistence
type GuildMirror interface {
	SyncGuilds(ctx context.Context) error
}

// CommandStatsSource reports slash command throughput
type CommandStatsSource interface {
	CommandStats() (handled int64, lastAt time.Time)
}

// DashboardHandlers contains handlers for the user dashboard
type DashboardHandlers struct {
	authSvc     auth.Service
	identitySvc identity.Service
	provider    *guild.Provider
	dataCache   *cache.Cache
	configs     ConfigSource
	mirror      GuildMirror
	botStats    CommandStatsSource
	bus         event.Bus
}

// NewDashboardHandlers creates new dashboard handlers
func NewDashboardHandlers(authSvc auth.Service, identitySvc identity.Service, provider *guild.Provider, dataCache *cache.Cache, configs ConfigSource, mirror GuildMirror, botStats CommandStatsSource, bus event.Bus) *DashboardHandlers {
	return &DashboardHandlers{
		authSvc:     authSvc,
		identitySvc: identitySvc,
		provider:    provider,
		dataCache:   dataCache,
		configs:     configs,
		mirror:      mirror,
		botStats:    botStats,
		bus:         bus,
	}
}

// VerifyInServerRequest is the request body for a dashboard-triggered verify
type VerifyInServerRequest struct {
	ServerID  string `json:"server_id" validate:"required,numeric"`
	AccountID int64  `json:"account_id" validate:"required"`
}

// userServerView is one guild row on the dashboard
type userServerView struct {
	ServerID   string `json:"server_id"`
	ServerName string `json:"server_name"`
	ServerIcon string `json:"server_icon,omitempty"`
	Owner      bool   `json:"owner"`
	CanManage  bool   `json:"can_manage"`
	BotPresent bool   `json:"bot_present"`
}

// HandleGetUser handles GET /dashboard/user
func (h *DashboardHandlers) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		accounts, err := h.identitySvc.Accounts(r.Context(), user.ID)
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		servers := h.userServers(r.Context(), user)
		withBot := 0
		for _, s := range servers {
			if s.BotPresent {
				withBot++
			}
		}

		respondJSON(w, http.StatusOK, DataResponse{
			Success: true,
			Data: map[string]interface{}{
				"user":                  user,
				"linked_accounts":       accounts,
				"servers":               servers,
				"total_linked_accounts": len(accounts),
				"total_servers":         len(servers),
				"servers_with_bot":      withBot,
			},
		})
	}
}

// HandleGetUserServers handles GET /dashboard/user/servers
func (h *DashboardHandlers) HandleGetUserServers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Data: h.userServers(r.Context(), user)})
	}
}

// HandleGetLinkedAccounts handles GET /dashboard/user/linked-accounts
func (h *DashboardHandlers) HandleGetLinkedAccounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		accounts, err := h.identitySvc.Accounts(r.Context(), user.ID)
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Data: accounts})
	}
}

// HandleBotStatus handles GET /dashboard/bot/status/{serverID}
func (h *DashboardHandlers) HandleBotStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		serverID := chi.URLParam(r, "serverID")

		guilds, err := h.authSvc.UserGuilds(r.Context(), user)
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		var userGuild *auth.DiscordGuild
		for i := range guilds {
			if guilds[i].ID == serverID {
				userGuild = &guilds[i]
				break
			}
		}
		if userGuild == nil {
			respondError(w, http.StatusNotFound, "Server not found or you don't have access")
			return
		}

		_, guildErr := h.provider.Guild(serverID)

		respondJSON(w, http.StatusOK, DataResponse{
			Success: true,
			Data: map[string]interface{}{
				"server_id":   serverID,
				"server_name": userGuild.Name,
				"bot_present": guildErr == nil,
				"can_add_bot": userGuild.CanManage(),
				"permissions": userGuild.Permissions,
			},
		})
	}
}

// HandleBotReady handles GET /dashboard/bot/ready
func (h *DashboardHandlers) HandleBotReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handled, lastAt := h.botStats.CommandStats()

		data := map[string]interface{}{
			"ready":            h.provider.IsReady(),
			"guilds":           len(h.provider.Guilds()),
			"latency_ms":       h.provider.Latency().Milliseconds(),
			"uptime_seconds":   int64(h.provider.Uptime().Seconds()),
			"commands_handled": handled,
		}
		if botUser := h.provider.CurrentUser(); botUser != nil {
			data["bot_user"] = botUser.Username
		}
		if !lastAt.IsZero() {
			data["last_command_at"] = lastAt
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Data: data})
	}
}

// HandleCacheStats handles GET /dashboard/cache/stats
func (h *DashboardHandlers) HandleCacheStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := requireUser(w, r); user == nil {
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Data: h.dataCache.GetStats()})
	}
}

// HandleCacheClear handles POST /dashboard/cache/clear
func (h *DashboardHandlers) HandleCacheClear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		h.dataCache.Clear()
		logger.FromContext(r.Context()).Info("Cache cleared via dashboard", "discord_id", user.DiscordID)
		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Cache cleared"})
	}
}

// HandleManualSync handles POST /dashboard/bot/manual-sync
func (h *DashboardHandlers) HandleManualSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := requireUser(w, r); user == nil {
			return
		}

		if !h.provider.IsReady() {
			respondError(w, http.StatusServiceUnavailable, ErrMsgBotNotReadyError)
			return
		}

		if err := h.mirror.SyncGuilds(r.Context()); err != nil {
			logger.FromContext(r.Context()).Error("Manual guild sync failed", "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgGenericServerError)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Bot guilds synced to database"})
	}
}

// HandleVerifyInServer handles POST /dashboard/bot/verify-in-server.
// Preconditions are checked synchronously, then the reconcile itself goes
// through the event bus so the member gets the usual DM report.
func (h *DashboardHandlers) HandleVerifyInServer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := requireUser(w, r)
		if user == nil {
			return
		}

		var req VerifyInServerRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Verify in server"); err != nil {
			return
		}

		accounts, err := h.identitySvc.Accounts(r.Context(), user.ID)
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}
		owned := false
		for _, a := range accounts {
			if a.ID == req.AccountID {
				owned = true
				break
			}
		}
		if !owned {
			respondError(w, http.StatusNotFound, ErrMsgAccountNotFoundError)
			return
		}

		if _, err := h.configs.GetConfig(r.Context(), req.ServerID); err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		if !h.provider.IsReady() {
			respondError(w, http.StatusServiceUnavailable, ErrMsgBotNotReadyError)
			return
		}
		if _, err := h.provider.Guild(req.ServerID); err != nil {
			respondError(w, http.StatusNotFound, ErrMsgGuildNotFoundError)
			return
		}

		evt := event.NewReconcileRequestedEvent(req.ServerID, user.DiscordID, "dashboard", true)
		if err := h.bus.Publish(r.Context(), evt); err != nil {
			logger.FromContext(r.Context()).Error("Failed to publish reconcile request", "error", err)
			respondError(w, http.StatusInternalServerError, ErrMsgGenericServerError)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "User verified in server successfully"})
	}
}

// userServers resolves the user's guilds and marks which ones the bot is in.
// Discord API failures degrade to an empty list rather than failing the page.
func (h *DashboardHandlers) userServers(ctx context.Context, user *domain.User) []userServerView {
	guilds, err := h.authSvc.UserGuilds(ctx, user)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to list user guilds", "discord_id", user.DiscordID, "error", err)
		return []userServerView{}
	}

	views := make([]userServerView, 0, len(guilds))
	for _, g := range guilds {
		_, guildErr := h.provider.Guild(g.ID)
		views = append(views, userServerView{
			ServerID:   g.ID,
			ServerName: g.Name,
			ServerIcon: g.Icon,
			Owner:      g.Owner,
			CanManage:  g.CanManage(),
			BotPresent: guildErr == nil,
		})
	}
	return views
}
