package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Precondition errors (surfaced to callers)
	ErrMsgServerNotConfigured = "server not configured"
	ErrMsgNoLinkedIdentity    = "no linked identity"

	// Non-fatal reconciliation errors (absorbed inside the engine)
	ErrMsgPermissionDenied           = "permission denied"
	ErrMsgExternalServiceUnavailable = "external service unavailable"
	ErrMsgNotFound                   = "not found"

	// User errors
	ErrMsgUserNotFound    = "user not found"
	ErrMsgAccountNotFound = "linked account not found"
	ErrMsgAlreadyLinked   = "account already linked"

	// Guild errors
	ErrMsgGuildNotFound  = "guild not found"
	ErrMsgMemberNotFound = "member not found"
	ErrMsgRoleNotFound   = "role not found"
	ErrMsgBotNotReady    = "bot is not ready"

	// Setup errors
	ErrMsgInvalidGroup          = "invalid group"
	ErrMsgInvalidNicknamePolicy = "invalid nickname policy"

	// Auth errors
	ErrMsgInvalidToken = "invalid token"
	ErrMsgTokenExpired = "token expired"
	ErrMsgInvalidState = "invalid or expired state"

	// Input errors
	ErrMsgInvalidInput = "invalid input"

	// Rate limiting
	ErrMsgRateLimited = "rate limited"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Precondition errors - the only reconciliation errors surfaced to callers
	ErrServerNotConfigured = errors.New(ErrMsgServerNotConfigured)
	ErrNoLinkedIdentity    = errors.New(ErrMsgNoLinkedIdentity)

	// Non-fatal reconciliation errors - absorbed at the engine boundary
	ErrPermissionDenied           = errors.New(ErrMsgPermissionDenied)
	ErrExternalServiceUnavailable = errors.New(ErrMsgExternalServiceUnavailable)
	ErrNotFound                   = errors.New(ErrMsgNotFound)

	// User errors
	ErrUserNotFound    = errors.New(ErrMsgUserNotFound)
	ErrAccountNotFound = errors.New(ErrMsgAccountNotFound)
	ErrAlreadyLinked   = errors.New(ErrMsgAlreadyLinked)

	// Guild errors
	ErrGuildNotFound  = errors.New(ErrMsgGuildNotFound)
	ErrMemberNotFound = errors.New(ErrMsgMemberNotFound)
	ErrRoleNotFound   = errors.New(ErrMsgRoleNotFound)
	ErrBotNotReady    = errors.New(ErrMsgBotNotReady)

	// Setup errors
	ErrInvalidGroup          = errors.New(ErrMsgInvalidGroup)
	ErrInvalidNicknamePolicy = errors.New(ErrMsgInvalidNicknamePolicy)

	// Auth errors
	ErrInvalidToken = errors.New(ErrMsgInvalidToken)
	ErrTokenExpired = errors.New(ErrMsgTokenExpired)
	ErrInvalidState = errors.New(ErrMsgInvalidState)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)

	// Rate limiting
	ErrRateLimited = errors.New(ErrMsgRateLimited)
)
