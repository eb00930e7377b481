package setup

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disblox/disblox/internal/domain"
)

type fakeConfigRepo struct {
	configs  map[string]*domain.ServerConfig
	mappings map[int64][]domain.GroupRoleMapping
	nextID   int64
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{
		configs:  make(map[string]*domain.ServerConfig),
		mappings: make(map[int64][]domain.GroupRoleMapping),
		nextID:   1,
	}
}

func (r *fakeConfigRepo) UpsertConfig(ctx context.Context, config *domain.ServerConfig) error {
	if config.ID == 0 {
		config.ID = r.nextID
		r.nextID++
	}
	copied := *config
	r.configs[config.ServerID] = &copied
	return nil
}

func (r *fakeConfigRepo) GetConfig(ctx context.Context, serverID string) (*domain.ServerConfig, error) {
	cfg, ok := r.configs[serverID]
	if !ok {
		return nil, domain.ErrServerNotConfigured
	}
	copied := *cfg
	return &copied, nil
}

func (r *fakeConfigRepo) DeleteConfig(ctx context.Context, serverID string) error {
	cfg, ok := r.configs[serverID]
	if !ok {
		return domain.ErrServerNotConfigured
	}
	delete(r.mappings, cfg.ID)
	delete(r.configs, serverID)
	return nil
}

func (r *fakeConfigRepo) ReplaceGroupRoleMappings(ctx context.Context, serverConfigID int64, mappings []domain.GroupRoleMapping) error {
	r.mappings[serverConfigID] = append([]domain.GroupRoleMapping{}, mappings...)
	return nil
}

func (r *fakeConfigRepo) GetGroupRoleMappings(ctx context.Context, serverConfigID int64) ([]domain.GroupRoleMapping, error) {
	return append([]domain.GroupRoleMapping{}, r.mappings[serverConfigID]...), nil
}

type fakeGuilds struct {
	created    []string
	renamed    map[string]string
	createErr  error
	nextRoleID int
}

func (g *fakeGuilds) CreateRole(ctx context.Context, guildID, name string) (*discordgo.Role, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextRoleID++
	g.created = append(g.created, name)
	return &discordgo.Role{ID: fmt.Sprintf("role-%d", g.nextRoleID), Name: name}, nil
}

func (g *fakeGuilds) EditRole(ctx context.Context, guildID, roleID, name string) (*discordgo.Role, error) {
	if g.renamed == nil {
		g.renamed = make(map[string]string)
	}
	g.renamed[roleID] = name
	return &discordgo.Role{ID: roleID, Name: name}, nil
}

type fakeGroups struct {
	info  *domain.GroupInfo
	roles []domain.GroupRole
	err   error
}

func (g *fakeGroups) GetGroup(ctx context.Context, groupID string) (*domain.GroupInfo, []domain.GroupRole, error) {
	if g.err != nil {
		return nil, nil, g.err
	}
	return g.info, g.roles, nil
}

func TestExtractGroupID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"groups url", "https://www.roblox.com/groups/123456/My-Group", "123456", false},
		{"communities url", "https://www.roblox.com/communities/98765", "98765", false},
		{"web subdomain", "https://web.roblox.com/groups/555", "555", false},
		{"bare domain", "http://roblox.com/communities/42", "42", false},
		{"numeric id", "31415", "31415", false},
		{"garbage", "https://example.com/groups/1", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractGroupID(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidGroup)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Status(t *testing.T) {
	repo := newFakeConfigRepo()
	svc := NewService(repo, &fakeGuilds{}, &fakeGroups{})

	t.Run("unconfigured guild starts at nickname", func(t *testing.T) {
		status, err := svc.Status(context.Background(), "guild-1")
		require.NoError(t, err)
		assert.Equal(t, domain.SetupPhaseNickname, status.Phase)
		assert.False(t, status.Completed)
		assert.Nil(t, status.Config)
	})

	t.Run("configured guild reports stored phase", func(t *testing.T) {
		require.NoError(t, repo.UpsertConfig(context.Background(), &domain.ServerConfig{
			ServerID:   "guild-2",
			SetupPhase: domain.SetupPhaseGroup,
		}))

		status, err := svc.Status(context.Background(), "guild-2")
		require.NoError(t, err)
		assert.Equal(t, domain.SetupPhaseGroup, status.Phase)
		require.NotNil(t, status.Config)
	})
}

func TestService_SetNicknamePolicy(t *testing.T) {
	t.Run("creates config and advances phase", func(t *testing.T) {
		repo := newFakeConfigRepo()
		svc := NewService(repo, &fakeGuilds{}, &fakeGroups{})

		cfg, err := svc.SetNicknamePolicy(context.Background(), "guild-1", domain.NicknameRobloxUsername)
		require.NoError(t, err)
		assert.Equal(t, domain.NicknameRobloxUsername, cfg.NicknamePolicy)
		assert.Equal(t, domain.SetupPhaseVerifiedRole, cfg.SetupPhase)
		assert.NotZero(t, cfg.ID)
	})

	t.Run("rejects unknown policy", func(t *testing.T) {
		svc := NewService(newFakeConfigRepo(), &fakeGuilds{}, &fakeGroups{})

		_, err := svc.SetNicknamePolicy(context.Background(), "guild-1", domain.NicknamePolicy("bogus"))
		assert.ErrorIs(t, err, domain.ErrInvalidNicknamePolicy)
	})
}

func TestService_SetVerifiedRole(t *testing.T) {
	t.Run("requires nickname step first", func(t *testing.T) {
		svc := NewService(newFakeConfigRepo(), &fakeGuilds{}, &fakeGroups{})

		_, err := svc.SetVerifiedRole(context.Background(), "guild-1", VerifiedRoleParams{Name: "Verified"})
		assert.ErrorIs(t, err, domain.ErrServerNotConfigured)
	})

	t.Run("records role settings and advances", func(t *testing.T) {
		repo := newFakeConfigRepo()
		svc := NewService(repo, &fakeGuilds{}, &fakeGroups{})

		_, err := svc.SetNicknamePolicy(context.Background(), "guild-1", domain.NicknameNone)
		require.NoError(t, err)

		enabled := true
		cfg, err := svc.SetVerifiedRole(context.Background(), "guild-1", VerifiedRoleParams{
			Enabled:       &enabled,
			Name:          "Verified",
			RolesToRemove: []string{"111", "222"},
		})
		require.NoError(t, err)
		assert.True(t, cfg.VerifiedRoleEnabled)
		assert.Equal(t, "Verified", cfg.VerifiedRoleName)
		assert.Equal(t, []string{"111", "222"}, cfg.RolesToRemove)
		assert.Equal(t, domain.SetupPhaseGroup, cfg.SetupPhase)
	})
}

func runWizardToGroupStep(t *testing.T, svc Service, serverID string) {
	t.Helper()
	_, err := svc.SetNicknamePolicy(context.Background(), serverID, domain.NicknameRobloxUsername)
	require.NoError(t, err)
	enabled := true
	_, err = svc.SetVerifiedRole(context.Background(), serverID, VerifiedRoleParams{Enabled: &enabled, Name: "Verified"})
	require.NoError(t, err)
}

func TestService_ConfigureGroup(t *testing.T) {
	groupRoles := []domain.GroupRole{
		{ID: "1", Name: "guest", Rank: 0},
		{ID: "2", Name: "recruit", Rank: 1},
		{ID: "3", Name: "officer", Rank: 100},
		{ID: "4", Name: "member", Rank: 10},
	}

	t.Run("maps ranks and creates roles", func(t *testing.T) {
		repo := newFakeConfigRepo()
		guilds := &fakeGuilds{}
		groups := &fakeGroups{info: &domain.GroupInfo{ID: "777", Name: "Cool Group"}, roles: groupRoles}
		svc := NewService(repo, guilds, groups)
		runWizardToGroupStep(t, svc, "guild-1")

		cfg, err := svc.ConfigureGroup(context.Background(), "guild-1", GroupParams{GroupURL: "https://www.roblox.com/groups/777/Cool-Group"})
		require.NoError(t, err)

		assert.True(t, cfg.SetupCompleted)
		assert.Equal(t, domain.SetupPhaseCompleted, cfg.SetupPhase)
		assert.Equal(t, "777", cfg.GroupID)
		assert.Equal(t, "Cool Group", cfg.GroupName)
		assert.True(t, cfg.GroupRolesEnabled)
		assert.NotEmpty(t, cfg.VerifiedRoleID, "verified role should be created")

		mappings, err := repo.GetGroupRoleMappings(context.Background(), cfg.ID)
		require.NoError(t, err)
		require.Len(t, mappings, 3, "guest rank should be excluded")

		// Highest rank first
		assert.Equal(t, "3", mappings[0].RobloxRoleID)
		assert.Equal(t, 100, mappings[0].RobloxRoleRank)
		assert.Equal(t, "Officer", mappings[0].DiscordRoleName)
		assert.NotEmpty(t, mappings[0].DiscordRoleID)
		assert.Equal(t, "4", mappings[1].RobloxRoleID)
		assert.Equal(t, "2", mappings[2].RobloxRoleID)
	})

	t.Run("skip disables group roles and completes", func(t *testing.T) {
		repo := newFakeConfigRepo()
		guilds := &fakeGuilds{}
		svc := NewService(repo, guilds, &fakeGroups{})
		runWizardToGroupStep(t, svc, "guild-1")

		cfg, err := svc.ConfigureGroup(context.Background(), "guild-1", GroupParams{Skip: true})
		require.NoError(t, err)

		assert.True(t, cfg.SetupCompleted)
		assert.False(t, cfg.GroupRolesEnabled)
		assert.NotEmpty(t, cfg.VerifiedRoleID)
		assert.Equal(t, []string{"Verified"}, guilds.created)
	})

	t.Run("requires a group source", func(t *testing.T) {
		svc := NewService(newFakeConfigRepo(), &fakeGuilds{}, &fakeGroups{})
		runWizardToGroupStep(t, svc, "guild-1")

		_, err := svc.ConfigureGroup(context.Background(), "guild-1", GroupParams{})
		assert.ErrorIs(t, err, domain.ErrInvalidGroup)
	})

	t.Run("group lookup failure aborts", func(t *testing.T) {
		groups := &fakeGroups{err: domain.ErrExternalServiceUnavailable}
		svc := NewService(newFakeConfigRepo(), &fakeGuilds{}, groups)
		runWizardToGroupStep(t, svc, "guild-1")

		_, err := svc.ConfigureGroup(context.Background(), "guild-1", GroupParams{GroupID: "777"})
		assert.ErrorIs(t, err, domain.ErrInvalidGroup)
	})

	t.Run("role creation failure leaves mapping unassigned", func(t *testing.T) {
		repo := newFakeConfigRepo()
		guilds := &fakeGuilds{createErr: domain.ErrPermissionDenied}
		groups := &fakeGroups{info: &domain.GroupInfo{ID: "777", Name: "Cool Group"}, roles: groupRoles}
		svc := NewService(repo, guilds, groups)
		runWizardToGroupStep(t, svc, "guild-1")

		cfg, err := svc.ConfigureGroup(context.Background(), "guild-1", GroupParams{GroupID: "777"})
		require.NoError(t, err, "role creation failures must not abort setup")

		mappings, err := repo.GetGroupRoleMappings(context.Background(), cfg.ID)
		require.NoError(t, err)
		for _, m := range mappings {
			assert.Empty(t, m.DiscordRoleID)
		}
	})
}

func TestService_EditVerifiedRole(t *testing.T) {
	repo := newFakeConfigRepo()
	guilds := &fakeGuilds{}
	groups := &fakeGroups{info: &domain.GroupInfo{ID: "777", Name: "Cool Group"}}
	svc := NewService(repo, guilds, groups)
	runWizardToGroupStep(t, svc, "guild-1")
	cfg, err := svc.ConfigureGroup(context.Background(), "guild-1", GroupParams{Skip: true})
	require.NoError(t, err)
	roleID := cfg.VerifiedRoleID

	err = svc.EditVerifiedRole(context.Background(), "guild-1", VerifiedRoleParams{Name: "Linked"})
	require.NoError(t, err)

	assert.Equal(t, "Linked", guilds.renamed[roleID], "Discord role should be renamed")

	updated, err := svc.Config(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "Linked", updated.VerifiedRoleName)
	assert.Equal(t, roleID, updated.VerifiedRoleID)
}

func TestService_EditGroup(t *testing.T) {
	t.Run("skip clears group config and mappings", func(t *testing.T) {
		repo := newFakeConfigRepo()
		groups := &fakeGroups{
			info:  &domain.GroupInfo{ID: "777", Name: "Cool Group"},
			roles: []domain.GroupRole{{ID: "2", Name: "recruit", Rank: 1}},
		}
		svc := NewService(repo, &fakeGuilds{}, groups)
		runWizardToGroupStep(t, svc, "guild-1")
		cfg, err := svc.ConfigureGroup(context.Background(), "guild-1", GroupParams{GroupID: "777"})
		require.NoError(t, err)

		require.NoError(t, svc.EditGroup(context.Background(), "guild-1", GroupParams{Skip: true}))

		updated, err := svc.Config(context.Background(), "guild-1")
		require.NoError(t, err)
		assert.False(t, updated.GroupRolesEnabled)
		assert.Empty(t, updated.GroupID)
		assert.Empty(t, updated.GroupName)

		mappings, err := repo.GetGroupRoleMappings(context.Background(), cfg.ID)
		require.NoError(t, err)
		assert.Empty(t, mappings)
	})

	t.Run("reconfigure replaces mappings wholesale", func(t *testing.T) {
		repo := newFakeConfigRepo()
		groups := &fakeGroups{
			info:  &domain.GroupInfo{ID: "777", Name: "Cool Group"},
			roles: []domain.GroupRole{{ID: "2", Name: "recruit", Rank: 1}},
		}
		svc := NewService(repo, &fakeGuilds{}, groups)
		runWizardToGroupStep(t, svc, "guild-1")
		cfg, err := svc.ConfigureGroup(context.Background(), "guild-1", GroupParams{GroupID: "777"})
		require.NoError(t, err)

		groups.info = &domain.GroupInfo{ID: "888", Name: "Other Group"}
		groups.roles = []domain.GroupRole{
			{ID: "9", Name: "veteran", Rank: 50},
			{ID: "8", Name: "rookie", Rank: 5},
		}

		require.NoError(t, svc.EditGroup(context.Background(), "guild-1", GroupParams{GroupID: "888"}))

		updated, err := svc.Config(context.Background(), "guild-1")
		require.NoError(t, err)
		assert.Equal(t, "888", updated.GroupID)
		assert.Equal(t, "Other Group", updated.GroupName)

		mappings, err := repo.GetGroupRoleMappings(context.Background(), cfg.ID)
		require.NoError(t, err)
		require.Len(t, mappings, 2)
		assert.Equal(t, "9", mappings[0].RobloxRoleID)
	})
}

func TestService_Reset(t *testing.T) {
	repo := newFakeConfigRepo()
	svc := NewService(repo, &fakeGuilds{}, &fakeGroups{})

	t.Run("unknown guild", func(t *testing.T) {
		err := svc.Reset(context.Background(), "guild-404")
		assert.ErrorIs(t, err, domain.ErrServerNotConfigured)
	})

	t.Run("deletes config", func(t *testing.T) {
		_, err := svc.SetNicknamePolicy(context.Background(), "guild-1", domain.NicknameNone)
		require.NoError(t, err)

		require.NoError(t, svc.Reset(context.Background(), "guild-1"))

		_, err = svc.Config(context.Background(), "guild-1")
		assert.ErrorIs(t, err, domain.ErrServerNotConfigured)
	})
}
