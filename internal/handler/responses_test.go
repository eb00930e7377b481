package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/disblox/disblox/internal/domain"
)

func TestMapServiceErrorToUserMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"nil error", nil, http.StatusInternalServerError, ErrMsgUnknownError},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, ErrMsgUserNotFoundError},
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound, ErrMsgAccountNotFoundError},
		{"already linked", domain.ErrAlreadyLinked, http.StatusConflict, ErrMsgAlreadyLinkedError},
		{"no identity", domain.ErrNoLinkedIdentity, http.StatusBadRequest, ErrMsgNoLinkedIdentityError},
		{"invalid state", domain.ErrInvalidState, http.StatusBadRequest, ErrMsgInvalidStateError},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnauthorized, ErrMsgInvalidTokenError},
		{"expired token", domain.ErrTokenExpired, http.StatusUnauthorized, ErrMsgInvalidTokenError},
		{"not configured", domain.ErrServerNotConfigured, http.StatusNotFound, ErrMsgServerNotConfiguredError},
		{"invalid group", domain.ErrInvalidGroup, http.StatusBadRequest, ErrMsgInvalidGroupError},
		{"invalid policy", domain.ErrInvalidNicknamePolicy, http.StatusBadRequest, ErrMsgInvalidNicknameError},
		{"bot not ready", domain.ErrBotNotReady, http.StatusServiceUnavailable, ErrMsgBotNotReadyError},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, ErrMsgTooManyRequests},
		{"roblox down", domain.ErrExternalServiceUnavailable, http.StatusServiceUnavailable, ErrMsgRobloxUnavailable},
		{"wrapped error", fmt.Errorf("lookup: %w", domain.ErrGuildNotFound), http.StatusNotFound, ErrMsgGuildNotFoundError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, ErrMsgGenericServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := mapServiceErrorToUserMessage(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusCreated, SuccessResponse{Success: true, Message: "done"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"message":"done"}`, rec.Body.String())
}

func TestUserFromContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, UserFromContext(r.Context()))

	user := &domain.User{ID: 1, DiscordID: "d1"}
	ctx := WithUser(r.Context(), user)
	assert.Equal(t, user, UserFromContext(ctx))
}
