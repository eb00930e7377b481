package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
)

// contextKey is a private type for context keys defined by this package
type contextKey string

// userContextKey holds the authenticated user resolved by the auth middleware
const userContextKey contextKey = "auth_user"

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated user, or nil outside
// authenticated routes.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// requireUser extracts the authenticated user or writes a 401.
// Returns nil when the response has already been written.
func requireUser(w http.ResponseWriter, r *http.Request) *domain.User {
	user := UserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return nil
	}
	return user
}

// DecodeAndValidateRequest decodes a JSON request body, validates it, and
// returns appropriate errors. If this function returns an error, the HTTP
// response has already been written and the handler should return.
func DecodeAndValidateRequest(r *http.Request, w http.ResponseWriter, req interface{}, actionName string) error {
	log := logger.FromContext(r.Context())

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error(fmt.Sprintf("Failed to decode %s request", actionName), "error", err)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return err
	}

	log.Debug(fmt.Sprintf("%s request decoded", actionName))

	if err := GetValidator().ValidateStruct(req); err != nil {
		validationErrs := FormatValidationError(err)
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequest,
			Fields: validationErrs,
		})
		return err
	}

	return nil
}
