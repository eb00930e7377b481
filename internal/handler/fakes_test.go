package handler

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"

	"github.com/disblox/disblox/internal/auth"
	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/setup"
)

// fakeAuthService implements auth.Service for handler tests
type fakeAuthService struct {
	authURL    string
	session    *auth.Session
	loginErr   error
	refreshErr error
	guilds     []auth.DiscordGuild
	guildsErr  error
	loggedOut  []string
}

func (f *fakeAuthService) AuthorizationURL(ctx context.Context) (string, string, error) {
	return f.authURL, "state-1", nil
}

func (f *fakeAuthService) Login(ctx context.Context, code, state string) (*auth.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.session, nil
}

func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.session, nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	if f.session == nil || f.session.User == nil {
		return nil, domain.ErrInvalidToken
	}
	return f.session.User, nil
}

func (f *fakeAuthService) UserGuilds(ctx context.Context, user *domain.User) ([]auth.DiscordGuild, error) {
	if f.guildsErr != nil {
		return nil, f.guildsErr
	}
	return f.guilds, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, user *domain.User) error {
	f.loggedOut = append(f.loggedOut, user.DiscordID)
	return nil
}

// fakeWizard implements setup.Service for handler tests
type fakeWizard struct {
	status    *setup.Status
	cfg       *domain.ServerConfig
	mappings  []domain.GroupRoleMapping
	err       error
	resets    []string
	lastGroup setup.GroupParams
}

func (f *fakeWizard) Status(ctx context.Context, serverID string) (*setup.Status, error) {
	return f.status, f.err
}

func (f *fakeWizard) Config(ctx context.Context, serverID string) (*domain.ServerConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func (f *fakeWizard) GroupRoleMappings(ctx context.Context, serverID string) ([]domain.GroupRoleMapping, error) {
	return f.mappings, f.err
}

func (f *fakeWizard) SetNicknamePolicy(ctx context.Context, serverID string, policy domain.NicknamePolicy) (*domain.ServerConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func (f *fakeWizard) SetVerifiedRole(ctx context.Context, serverID string, params setup.VerifiedRoleParams) (*domain.ServerConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func (f *fakeWizard) ConfigureGroup(ctx context.Context, serverID string, params setup.GroupParams) (*domain.ServerConfig, error) {
	f.lastGroup = params
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

func (f *fakeWizard) EditNicknamePolicy(ctx context.Context, serverID string, policy domain.NicknamePolicy) error {
	return f.err
}

func (f *fakeWizard) EditVerifiedRole(ctx context.Context, serverID string, params setup.VerifiedRoleParams) error {
	return f.err
}

func (f *fakeWizard) EditGroup(ctx context.Context, serverID string, params setup.GroupParams) error {
	f.lastGroup = params
	return f.err
}

func (f *fakeWizard) Reset(ctx context.Context, serverID string) error {
	f.resets = append(f.resets, serverID)
	return f.err
}

// serveAuthed runs a request through a chi router with the user injected,
// the way the auth middleware would.
func serveAuthed(router chi.Router, user *domain.User, r *http.Request) *httptest.ResponseRecorder {
	if user != nil {
		r = r.WithContext(WithUser(r.Context(), user))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}
