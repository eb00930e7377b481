package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/roblox"
)

// fakeUserRepo is an in-memory repository.User for identity tests
type fakeUserRepo struct {
	mu        sync.Mutex
	nextID    int64
	users     map[string]*domain.User
	accounts  []domain.LinkedAccount
	lookupErr error
}

func (f *fakeUserRepo) UpsertUser(_ context.Context, user *domain.User) error { return nil }

func (f *fakeUserRepo) GetUserByDiscordID(_ context.Context, discordID string) (*domain.User, error) {
	if u, ok := f.users[discordID]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, _ int64) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, _ int64) error { return nil }

func (f *fakeUserRepo) CreateLinkedAccount(_ context.Context, account *domain.LinkedAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	account.ID = f.nextID
	f.accounts = append(f.accounts, *account)
	return nil
}

func (f *fakeUserRepo) GetLinkedAccounts(_ context.Context, userID int64) ([]domain.LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.LinkedAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetLinkedAccountByRobloxID(_ context.Context, robloxID string) (*domain.LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, a := range f.accounts {
		if a.RobloxID == robloxID {
			copied := a
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (f *fakeUserRepo) DeleteLinkedAccount(_ context.Context, userID, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.accounts {
		if a.ID == accountID && a.UserID == userID {
			f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func newTestService(t *testing.T) (Service, *fakeUserRepo, *cache.Cache) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.NotEmpty(t, r.Form.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"roblox-access","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/oauth/v1/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sub":"55555","name":"Builder Man","preferred_username":"builderman"}`))
	})
	mux.HandleFunc("/v1/users/avatar-headshot", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"imageUrl":"https://cdn.example/headshot.png"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	oauth := roblox.NewOAuth("cid", "csecret", "http://localhost/callback",
		roblox.WithOAuthEndpoints(srv.URL+"/oauth/v1/authorize", srv.URL+"/oauth/v1/token", srv.URL+"/oauth/v1/userinfo"))

	dataCache := cache.New(cache.DefaultMaxSize)
	client := roblox.NewClient(dataCache, cache.NewRateLimiter(),
		roblox.WithBaseURLs(srv.URL, srv.URL, srv.URL),
		roblox.WithHTTPClient(srv.Client()))

	repo := &fakeUserRepo{}
	return NewService(oauth, client, repo, dataCache), repo, dataCache
}

func testUser() *domain.User {
	return &domain.User{ID: 1, DiscordID: "111", Username: "tester"}
}

func TestService_LinkFlow(t *testing.T) {
	svc, _, _ := newTestService(t)
	user := testUser()

	authURL, state, err := svc.BeginLink(context.Background(), user)
	require.NoError(t, err)
	assert.Contains(t, authURL, "code_challenge_method=S256")
	assert.Contains(t, authURL, "state="+state)

	account, err := svc.CompleteLink(context.Background(), user, "auth-code", state)
	require.NoError(t, err)
	assert.Equal(t, "55555", account.RobloxID)
	assert.Equal(t, "builderman", account.RobloxUsername)
	assert.Equal(t, "https://cdn.example/headshot.png", account.RobloxAvatar)
	assert.True(t, account.Verified)
}

func TestService_BeginLink_NotConfigured(t *testing.T) {
	svc := NewService(roblox.NewOAuth("", "", ""), nil, &fakeUserRepo{}, cache.New(10))

	_, _, err := svc.BeginLink(context.Background(), testUser())
	assert.ErrorIs(t, err, domain.ErrExternalServiceUnavailable)
}

func TestService_PendingUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := testUser()
	repo.users = map[string]*domain.User{user.DiscordID: user}

	_, state, err := svc.BeginLink(context.Background(), user)
	require.NoError(t, err)

	t.Run("resolves user from state", func(t *testing.T) {
		pending, err := svc.PendingUser(context.Background(), state)
		require.NoError(t, err)
		assert.Equal(t, user.DiscordID, pending.DiscordID)
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := svc.PendingUser(context.Background(), "never-issued")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestService_CompleteLink_BadState(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CompleteLink(context.Background(), testUser(), "auth-code", "never-issued")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_CompleteLink_StateBoundToUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, state, err := svc.BeginLink(context.Background(), testUser())
	require.NoError(t, err)

	other := &domain.User{ID: 2, DiscordID: "222"}
	_, err = svc.CompleteLink(context.Background(), other, "auth-code", state)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_CompleteLink_DuplicateRoblox(t *testing.T) {
	t.Run("already linked to same user", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		user := testUser()
		require.NoError(t, repo.CreateLinkedAccount(context.Background(),
			&domain.LinkedAccount{UserID: user.ID, RobloxID: "55555"}))

		_, state, err := svc.BeginLink(context.Background(), user)
		require.NoError(t, err)
		_, err = svc.CompleteLink(context.Background(), user, "auth-code", state)
		assert.ErrorIs(t, err, domain.ErrAlreadyLinked)
	})

	t.Run("already linked to another user", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		require.NoError(t, repo.CreateLinkedAccount(context.Background(),
			&domain.LinkedAccount{UserID: 99, RobloxID: "55555"}))

		user := testUser()
		_, state, err := svc.BeginLink(context.Background(), user)
		require.NoError(t, err)
		_, err = svc.CompleteLink(context.Background(), user, "auth-code", state)
		assert.ErrorIs(t, err, domain.ErrAlreadyLinked)
	})

	t.Run("transient lookup failure aborts the link", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.lookupErr = errors.New("connection reset")

		user := testUser()
		_, state, err := svc.BeginLink(context.Background(), user)
		require.NoError(t, err)
		_, err = svc.CompleteLink(context.Background(), user, "auth-code", state)
		assert.ErrorIs(t, err, repo.lookupErr)
		assert.Empty(t, repo.accounts)
	})
}

func TestService_Unlink(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := testUser()

	account := &domain.LinkedAccount{UserID: user.ID, RobloxID: "55555"}
	require.NoError(t, repo.CreateLinkedAccount(context.Background(), account))

	require.NoError(t, svc.Unlink(context.Background(), user, account.ID))

	accounts, err := svc.Accounts(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	t.Run("unknown account", func(t *testing.T) {
		err := svc.Unlink(context.Background(), user, 404)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestService_Primary(t *testing.T) {
	ctx := context.Background()

	t.Run("no identities", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Primary(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrNoLinkedIdentity)
	})

	t.Run("first verified wins over earlier unverified", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		require.NoError(t, repo.CreateLinkedAccount(ctx, &domain.LinkedAccount{UserID: 1, RobloxID: "1", Verified: false}))
		require.NoError(t, repo.CreateLinkedAccount(ctx, &domain.LinkedAccount{UserID: 1, RobloxID: "2", Verified: true}))

		primary, err := svc.Primary(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "2", primary.RobloxID)
	})

	t.Run("falls back to first when none verified", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		require.NoError(t, repo.CreateLinkedAccount(ctx, &domain.LinkedAccount{UserID: 1, RobloxID: "1"}))
		require.NoError(t, repo.CreateLinkedAccount(ctx, &domain.LinkedAccount{UserID: 1, RobloxID: "2"}))

		primary, err := svc.Primary(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "1", primary.RobloxID)
	})
}
