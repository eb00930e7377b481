package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disblox/disblox/internal/domain"
)

type fakeMemberSource struct {
	members map[string]*discordgo.Member // user id -> member
	listErr error
}

func (f *fakeMemberSource) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	m, ok := f.members[userID]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return m, nil
}

func (f *fakeMemberSource) GuildMembers(guildID, after string, limit int) ([]*discordgo.Member, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*discordgo.Member, 0, len(f.members))
	for _, m := range f.members {
		if after != "" && m.User.ID <= after {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// pagedMemberSource replays a fixed page script, one page per call.
type pagedMemberSource struct {
	pages [][]*discordgo.Member
	calls int
}

func (f *pagedMemberSource) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	for _, page := range f.pages {
		for _, m := range page {
			if m.User != nil && m.User.ID == userID {
				return m, nil
			}
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (f *pagedMemberSource) GuildMembers(guildID, after string, limit int) ([]*discordgo.Member, error) {
	if f.calls >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

type fakeSnapshot struct {
	guild *discordgo.Guild
}

func (f *fakeSnapshot) Guild(guildID string) (*discordgo.Guild, error) {
	if f.guild == nil {
		return nil, domain.ErrGuildNotFound
	}
	return f.guild, nil
}

type fakeConfigSource struct {
	cfg *domain.ServerConfig
}

func (f *fakeConfigSource) GetConfig(ctx context.Context, serverID string) (*domain.ServerConfig, error) {
	if f.cfg == nil {
		return nil, domain.ErrServerNotConfigured
	}
	return f.cfg, nil
}

type fakeUserSource struct {
	users map[string]*domain.User // discord id -> user
}

func (f *fakeUserSource) GetUserByDiscordID(ctx context.Context, discordID string) (*domain.User, error) {
	u, ok := f.users[discordID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type fakeMembershipRecorder struct {
	upserts []*domain.ServerMember
	err     error
}

func (f *fakeMembershipRecorder) UpsertMember(ctx context.Context, member *domain.ServerMember) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, member)
	return nil
}

type fakeIdentities struct {
	identities map[int64]*domain.LinkedAccount
}

func (f *fakeIdentities) Primary(ctx context.Context, userID int64) (*domain.LinkedAccount, error) {
	id, ok := f.identities[userID]
	if !ok {
		return nil, domain.ErrNoLinkedIdentity
	}
	return id, nil
}

func discordMember(id, username string, roles ...string) *discordgo.Member {
	return &discordgo.Member{
		User:  &discordgo.User{ID: id, Username: username},
		Roles: roles,
	}
}

type syncFixture struct {
	svc         Service
	guild       *fakeGuild
	members     *fakeMemberSource
	memberships *fakeMembershipRecorder
}

func newSyncFixture(cfg *domain.ServerConfig) *syncFixture {
	members := &fakeMemberSource{members: map[string]*discordgo.Member{
		"u1": discordMember("u1", "alice"),
	}}
	svc, guild, memberships := buildSyncService(cfg, members)
	return &syncFixture{svc: svc, guild: guild, members: members, memberships: memberships}
}

func buildSyncService(cfg *domain.ServerConfig, members MemberSource) (Service, *fakeGuild, *fakeMembershipRecorder) {
	member := &Member{GuildID: "g1", UserID: "u1", Username: "alice"}
	guild := newFakeGuild(member,
		&discordgo.Role{ID: "vr", Name: "Verified"},
	)
	engine := NewEngine(guild, &fakeRoblox{profile: &domain.RobloxProfile{Username: "builderman"}}, &fakeMappings{})
	memberships := &fakeMembershipRecorder{}

	svc := NewService(
		engine,
		members,
		&fakeSnapshot{guild: &discordgo.Guild{ID: "g1", Name: "Test Guild"}},
		&fakeConfigSource{cfg: cfg},
		&fakeUserSource{users: map[string]*domain.User{
			"u1": {ID: 10, DiscordID: "u1", Username: "alice"},
		}},
		memberships,
		&fakeIdentities{identities: map[int64]*domain.LinkedAccount{
			10: testIdentity(),
		}},
	)
	return svc, guild, memberships
}

func TestService_SyncMember(t *testing.T) {
	t.Run("unconfigured guild", func(t *testing.T) {
		fx := newSyncFixture(nil)
		_, err := fx.svc.SyncMember(context.Background(), "g1", "u1")
		assert.ErrorIs(t, err, domain.ErrServerNotConfigured)
	})

	t.Run("incomplete setup", func(t *testing.T) {
		cfg := baseConfig()
		cfg.SetupCompleted = false
		fx := newSyncFixture(cfg)
		_, err := fx.svc.SyncMember(context.Background(), "g1", "u1")
		assert.ErrorIs(t, err, domain.ErrServerNotConfigured)
	})

	t.Run("unknown member", func(t *testing.T) {
		fx := newSyncFixture(baseConfig())
		_, err := fx.svc.SyncMember(context.Background(), "g1", "u404")
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	})

	t.Run("unregistered user maps to no linked identity", func(t *testing.T) {
		fx := newSyncFixture(baseConfig())
		fx.members.members["u2"] = discordMember("u2", "bob")

		_, err := fx.svc.SyncMember(context.Background(), "g1", "u2")
		assert.ErrorIs(t, err, domain.ErrNoLinkedIdentity)
	})

	t.Run("reconciles and records membership", func(t *testing.T) {
		fx := newSyncFixture(baseConfig())

		result, err := fx.svc.SyncMember(context.Background(), "g1", "u1")
		require.NoError(t, err)
		assert.False(t, result.Empty(), "nickname and verified role should change")

		require.Len(t, fx.memberships.upserts, 1)
		assert.Equal(t, int64(10), fx.memberships.upserts[0].UserID)
		assert.Equal(t, "g1", fx.memberships.upserts[0].ServerID)
		assert.Equal(t, "Test Guild", fx.memberships.upserts[0].ServerName)
	})

	t.Run("membership write failure is not fatal", func(t *testing.T) {
		fx := newSyncFixture(baseConfig())
		fx.memberships.err = fmt.Errorf("db down")

		_, err := fx.svc.SyncMember(context.Background(), "g1", "u1")
		assert.NoError(t, err)
	})
}

func TestService_SyncGuild(t *testing.T) {
	t.Run("counts synced, skipped and bots", func(t *testing.T) {
		fx := newSyncFixture(baseConfig())
		fx.members.members["u2"] = discordMember("u2", "bob") // no linked identity
		fx.members.members["u3"] = &discordgo.Member{User: &discordgo.User{ID: "u3", Username: "beep", Bot: true}}

		report, err := fx.svc.SyncGuild(context.Background(), "g1")
		require.NoError(t, err)

		assert.Equal(t, 2, report.Total, "bots are not counted")
		assert.Equal(t, 1, report.Synced)
		assert.Equal(t, 1, report.Skipped)
		assert.Equal(t, 0, report.Failed)
	})

	t.Run("full page ending without a user stops paging", func(t *testing.T) {
		page := make([]*discordgo.Member, memberPageSize)
		for i := range page {
			page[i] = &discordgo.Member{User: &discordgo.User{ID: fmt.Sprintf("b%04d", i), Username: "beep", Bot: true}}
		}
		page[0] = discordMember("u1", "alice")
		page[memberPageSize-1] = &discordgo.Member{} // gateway can emit members with no user attached

		members := &pagedMemberSource{pages: [][]*discordgo.Member{
			page,
			{discordMember("u2", "bob")},
		}}
		svc, _, _ := buildSyncService(baseConfig(), members)

		report, err := svc.SyncGuild(context.Background(), "g1")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Total)
		assert.Equal(t, 1, report.Synced)
		assert.Equal(t, 1, members.calls, "second page must not be requested without a cursor")
	})

	t.Run("member list failure", func(t *testing.T) {
		fx := newSyncFixture(baseConfig())
		fx.members.listErr = fmt.Errorf("gateway timeout")

		_, err := fx.svc.SyncGuild(context.Background(), "g1")
		assert.ErrorIs(t, err, domain.ErrExternalServiceUnavailable)
	})

	t.Run("unconfigured guild", func(t *testing.T) {
		fx := newSyncFixture(nil)
		_, err := fx.svc.SyncGuild(context.Background(), "g1")
		assert.ErrorIs(t, err, domain.ErrServerNotConfigured)
	})
}
