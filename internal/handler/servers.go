package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/disblox/disblox/internal/auth"
	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
	"github.com/disblox/disblox/internal/setup"
)

// ServerHandlers contains handlers for server configuration and the setup wizard
type ServerHandlers struct {
	wizard  setup.Service
	authSvc auth.Service
}

// NewServerHandlers creates new server configuration handlers
func NewServerHandlers(wizard setup.Service, authSvc auth.Service) *ServerHandlers {
	return &ServerHandlers{wizard: wizard, authSvc: authSvc}
}

// NicknameRequest is the request body for the nickname policy step
type NicknameRequest struct {
	Policy string `json:"policy" validate:"required,nickname_policy"`
}

// VerifiedRoleRequest is the request body for the verified role step
type VerifiedRoleRequest struct {
	Enabled       *bool    `json:"enabled,omitempty"`
	Name          string   `json:"name,omitempty" validate:"omitempty,max=100"`
	RoleID        string   `json:"role_id,omitempty" validate:"omitempty,numeric"`
	RolesToRemove []string `json:"roles_to_remove,omitempty"`
}

// GroupRequest is the request body for the group step
type GroupRequest struct {
	Skip     bool   `json:"skip,omitempty"`
	GroupURL string `json:"group_url,omitempty" validate:"omitempty,max=200"`
	GroupID  string `json:"group_id,omitempty" validate:"omitempty,numeric"`
}

// requireManage authorizes the caller for a guild: the user must own it or
// hold the administrator bit on their Discord account. Returns the server ID,
// or "" when the response has already been written.
func (h *ServerHandlers) requireManage(w http.ResponseWriter, r *http.Request) string {
	user := requireUser(w, r)
	if user == nil {
		return ""
	}

	serverID := chi.URLParam(r, "serverID")
	if serverID == "" {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return ""
	}

	guilds, err := h.authSvc.UserGuilds(r.Context(), user)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list user guilds", "error", err)
		statusCode, userMsg := mapServiceErrorToUserMessage(err)
		respondError(w, statusCode, userMsg)
		return ""
	}

	for _, g := range guilds {
		if g.ID == serverID && g.CanManage() {
			return serverID
		}
	}

	respondError(w, http.StatusForbidden, ErrMsgForbidden)
	return ""
}

// HandleGetConfig handles GET /server/{serverID}/config
func (h *ServerHandlers) HandleGetConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		cfg, err := h.wizard.Config(r.Context(), serverID)
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Data: cfg})
	}
}

// HandleGetSetup handles GET /server/{serverID}/setup
func (h *ServerHandlers) HandleGetSetup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		status, err := h.wizard.Status(r.Context(), serverID)
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Data: status})
	}
}

// HandleSetupNickname handles POST /server/{serverID}/setup/nickname
func (h *ServerHandlers) HandleSetupNickname() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		var req NicknameRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Setup nickname"); err != nil {
			return
		}

		cfg, err := h.wizard.SetNicknamePolicy(r.Context(), serverID, domain.NicknamePolicy(req.Policy))
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Message: "Nickname policy saved", Data: cfg})
	}
}

// HandleSetupVerifiedRole handles POST /server/{serverID}/setup/verified-role
func (h *ServerHandlers) HandleSetupVerifiedRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		var req VerifiedRoleRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Setup verified role"); err != nil {
			return
		}

		cfg, err := h.wizard.SetVerifiedRole(r.Context(), serverID, setup.VerifiedRoleParams{
			Enabled:       req.Enabled,
			Name:          req.Name,
			RoleID:        req.RoleID,
			RolesToRemove: req.RolesToRemove,
		})
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Message: "Verified role saved", Data: cfg})
	}
}

// HandleSetupGroup handles POST /server/{serverID}/setup/group
func (h *ServerHandlers) HandleSetupGroup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		var req GroupRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Setup group"); err != nil {
			return
		}

		cfg, err := h.wizard.ConfigureGroup(r.Context(), serverID, setup.GroupParams{
			Skip:     req.Skip,
			GroupURL: req.GroupURL,
			GroupID:  req.GroupID,
		})
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Message: "Setup completed", Data: cfg})
	}
}

// HandleGetGroupRoles handles GET /server/{serverID}/group-roles
func (h *ServerHandlers) HandleGetGroupRoles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		mappings, err := h.wizard.GroupRoleMappings(r.Context(), serverID)
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Success: true, Data: mappings})
	}
}

// HandleEditNickname handles PUT /server/{serverID}/edit/nickname
func (h *ServerHandlers) HandleEditNickname() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		var req NicknameRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Edit nickname"); err != nil {
			return
		}

		if err := h.wizard.EditNicknamePolicy(r.Context(), serverID, domain.NicknamePolicy(req.Policy)); err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Nickname policy updated"})
	}
}

// HandleEditVerifiedRole handles PUT /server/{serverID}/edit/verified-role
func (h *ServerHandlers) HandleEditVerifiedRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		var req VerifiedRoleRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Edit verified role"); err != nil {
			return
		}

		err := h.wizard.EditVerifiedRole(r.Context(), serverID, setup.VerifiedRoleParams{
			Enabled:       req.Enabled,
			Name:          req.Name,
			RoleID:        req.RoleID,
			RolesToRemove: req.RolesToRemove,
		})
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Verified role updated"})
	}
}

// HandleEditGroup handles PUT /server/{serverID}/edit/group
func (h *ServerHandlers) HandleEditGroup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		var req GroupRequest
		if err := DecodeAndValidateRequest(r, w, &req, "Edit group"); err != nil {
			return
		}

		err := h.wizard.EditGroup(r.Context(), serverID, setup.GroupParams{
			Skip:     req.Skip,
			GroupURL: req.GroupURL,
			GroupID:  req.GroupID,
		})
		if err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Group configuration updated"})
	}
}

// HandleReset handles DELETE /server/{serverID}/config
func (h *ServerHandlers) HandleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serverID := h.requireManage(w, r)
		if serverID == "" {
			return
		}

		if err := h.wizard.Reset(r.Context(), serverID); err != nil {
			statusCode, userMsg := mapServiceErrorToUserMessage(err)
			respondError(w, statusCode, userMsg)
			return
		}

		logger.FromContext(r.Context()).Info("Server configuration reset", "server_id", serverID)
		respondJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Configuration reset"})
	}
}
