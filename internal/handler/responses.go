package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/disblox/disblox/internal/domain"
)

// Standard response types for consistent API responses

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// ValidationErrorResponse carries per-field validation failures
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		// Headers are already written, nothing to send to the client
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages for service errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgInvalidRequest      = "Invalid request. Please check your inputs."
	ErrMsgMethodNotAllowed    = "Method not allowed"
	ErrMsgUnauthorized        = "Authentication required"
	ErrMsgForbidden           = "You don't have permission to manage this server"
	ErrMsgTooManyRequests     = "Too many requests. Please try again later."
	ErrMsgRobloxUnavailable   = "Roblox is temporarily unavailable. Please try again later."
	ErrMsgRobloxNotConfigured = "Roblox linking is not configured"

	ErrMsgUserNotFoundError     = "User not found"
	ErrMsgAccountNotFoundError  = "Linked account not found"
	ErrMsgAlreadyLinkedError    = "That Roblox account is already linked"
	ErrMsgNoLinkedIdentityError = "No linked Roblox account. Link one on the dashboard first."
	ErrMsgInvalidStateError     = "Invalid or expired state parameter"
	ErrMsgInvalidTokenError     = "Invalid or expired token"

	ErrMsgServerNotConfiguredError = "Server is not configured"
	ErrMsgInvalidGroupError        = "Invalid Roblox group URL or ID"
	ErrMsgInvalidNicknameError     = "Invalid nickname policy"
	ErrMsgMemberNotFoundError      = "Member not found in this server"
	ErrMsgGuildNotFoundError       = "The bot is not in that server"
	ErrMsgBotNotReadyError         = "The bot is not connected to Discord yet"
)

// mapServiceErrorToUserMessage maps domain errors to user-friendly HTTP responses
func mapServiceErrorToUserMessage(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, ErrMsgUserNotFoundError
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, ErrMsgAccountNotFoundError
	case errors.Is(err, domain.ErrAlreadyLinked):
		return http.StatusConflict, ErrMsgAlreadyLinkedError
	case errors.Is(err, domain.ErrNoLinkedIdentity):
		return http.StatusBadRequest, ErrMsgNoLinkedIdentityError
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, ErrMsgInvalidStateError
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, ErrMsgInvalidTokenError
	case errors.Is(err, domain.ErrServerNotConfigured):
		return http.StatusNotFound, ErrMsgServerNotConfiguredError
	case errors.Is(err, domain.ErrInvalidGroup):
		return http.StatusBadRequest, ErrMsgInvalidGroupError
	case errors.Is(err, domain.ErrInvalidNicknamePolicy):
		return http.StatusBadRequest, ErrMsgInvalidNicknameError
	case errors.Is(err, domain.ErrMemberNotFound):
		return http.StatusNotFound, ErrMsgMemberNotFoundError
	case errors.Is(err, domain.ErrGuildNotFound):
		return http.StatusNotFound, ErrMsgGuildNotFoundError
	case errors.Is(err, domain.ErrBotNotReady):
		return http.StatusServiceUnavailable, ErrMsgBotNotReadyError
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, ErrMsgTooManyRequests
	case errors.Is(err, domain.ErrExternalServiceUnavailable):
		return http.StatusServiceUnavailable, ErrMsgRobloxUnavailable
	default:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}
}
