package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/disblox/disblox/internal/database"
	"github.com/disblox/disblox/internal/domain"
)

// startTestPool brings up a throwaway Postgres container, applies the
// embedded migrations and returns a connected pool. Docker problems skip
// the test instead of failing it.
func startTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	var pgContainer *postgres.PostgresContainer
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("Skipping integration test due to panic (likely Docker issue): %v", r)
			}
		}()
		pgContainer, err = postgres.Run(ctx,
			"postgres:15-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(5*time.Second)),
		)
	}()
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	if pgContainer == nil {
		t.Skip("postgres container unavailable")
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	pool, err := database.NewPool(connStr,
		database.DefaultMaxConnections, database.DefaultMaxIdleTime, database.DefaultMaxLifetime)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestUserRepository_Integration(t *testing.T) {
	pool := startTestPool(t)
	ctx := context.Background()
	repo := NewUserRepository(pool)

	t.Run("upsert and fetch round-trip", func(t *testing.T) {
		user := &domain.User{DiscordID: "100", Username: "alice", Avatar: "a1b2"}
		if err := repo.UpsertUser(ctx, user); err != nil {
			t.Fatalf("UpsertUser failed: %v", err)
		}
		if user.ID == 0 {
			t.Error("expected generated id to be written back")
		}
		if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be written back")
		}

		// Second upsert with the same discord id updates in place
		again := &domain.User{DiscordID: "100", Username: "alice2"}
		if err := repo.UpsertUser(ctx, again); err != nil {
			t.Fatalf("second UpsertUser failed: %v", err)
		}
		if again.ID != user.ID {
			t.Errorf("expected upsert to keep id %d, got %d", user.ID, again.ID)
		}

		fetched, err := repo.GetUserByDiscordID(ctx, "100")
		if err != nil {
			t.Fatalf("GetUserByDiscordID failed: %v", err)
		}
		if fetched.Username != "alice2" {
			t.Errorf("expected username alice2, got %s", fetched.Username)
		}
	})

	t.Run("unknown discord id", func(t *testing.T) {
		_, err := repo.GetUserByDiscordID(ctx, "404")
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("one roblox account per link", func(t *testing.T) {
		first := &domain.User{DiscordID: "200", Username: "bob"}
		second := &domain.User{DiscordID: "201", Username: "carol"}
		for _, u := range []*domain.User{first, second} {
			if err := repo.UpsertUser(ctx, u); err != nil {
				t.Fatalf("UpsertUser failed: %v", err)
			}
		}

		account := &domain.LinkedAccount{UserID: first.ID, RobloxID: "55555", RobloxUsername: "builderman", Verified: true}
		if err := repo.CreateLinkedAccount(ctx, account); err != nil {
			t.Fatalf("CreateLinkedAccount failed: %v", err)
		}
		if account.ID == 0 || account.LinkedAt.IsZero() {
			t.Error("expected id and linked_at to be written back")
		}

		// roblox_id carries a unique constraint across all users
		dup := &domain.LinkedAccount{UserID: second.ID, RobloxID: "55555", RobloxUsername: "builderman"}
		if err := repo.CreateLinkedAccount(ctx, dup); err == nil {
			t.Error("expected duplicate roblox id to be rejected")
		}

		found, err := repo.GetLinkedAccountByRobloxID(ctx, "55555")
		if err != nil {
			t.Fatalf("GetLinkedAccountByRobloxID failed: %v", err)
		}
		if found.UserID != first.ID {
			t.Errorf("expected account owned by %d, got %d", first.ID, found.UserID)
		}
	})

	t.Run("deleting a user cascades linked accounts", func(t *testing.T) {
		user := &domain.User{DiscordID: "300", Username: "dave"}
		if err := repo.UpsertUser(ctx, user); err != nil {
			t.Fatalf("UpsertUser failed: %v", err)
		}
		if err := repo.CreateLinkedAccount(ctx, &domain.LinkedAccount{UserID: user.ID, RobloxID: "77777", RobloxUsername: "dave_rbx"}); err != nil {
			t.Fatalf("CreateLinkedAccount failed: %v", err)
		}

		if err := repo.DeleteUser(ctx, user.ID); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		_, err := repo.GetLinkedAccountByRobloxID(ctx, "77777")
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound after cascade, got %v", err)
		}
	})

	t.Run("unlink of unknown account", func(t *testing.T) {
		err := repo.DeleteLinkedAccount(ctx, 1, 999999)
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestServerConfigRepository_Integration(t *testing.T) {
	pool := startTestPool(t)
	ctx := context.Background()
	repo := NewServerConfigRepository(pool)

	t.Run("upsert config round-trip", func(t *testing.T) {
		cfg := &domain.ServerConfig{
			ServerID:            "guild-1",
			NicknamePolicy:      domain.NicknameRobloxUsername,
			VerifiedRoleEnabled: true,
			VerifiedRoleName:    "Verified",
			VerifiedRoleID:      "role-1",
			RolesToRemove:       []string{"Unverified", "Guest"},
			GroupRolesEnabled:   true,
			GroupID:             "123456",
			GroupName:           "Disblox Testing",
			SetupPhase:          domain.SetupPhaseCompleted,
			SetupCompleted:      true,
		}
		if err := repo.UpsertConfig(ctx, cfg); err != nil {
			t.Fatalf("UpsertConfig failed: %v", err)
		}
		if cfg.ID == 0 {
			t.Error("expected generated id to be written back")
		}

		fetched, err := repo.GetConfig(ctx, "guild-1")
		if err != nil {
			t.Fatalf("GetConfig failed: %v", err)
		}
		if fetched.NicknamePolicy != domain.NicknameRobloxUsername {
			t.Errorf("expected nickname policy roblox_username, got %s", fetched.NicknamePolicy)
		}
		if got := strings.Join(fetched.RolesToRemove, ","); got != "Unverified,Guest" {
			t.Errorf("expected roles to survive the round-trip, got %q", got)
		}
		if !fetched.SetupCompleted || fetched.SetupPhase != domain.SetupPhaseCompleted {
			t.Errorf("expected completed setup, got phase %s completed=%v", fetched.SetupPhase, fetched.SetupCompleted)
		}

		// Upserting the same server id rewrites the row, id included
		cfg.GroupName = "Disblox Testing v2"
		cfg.RolesToRemove = nil
		if err := repo.UpsertConfig(ctx, cfg); err != nil {
			t.Fatalf("second UpsertConfig failed: %v", err)
		}
		fetched, err = repo.GetConfig(ctx, "guild-1")
		if err != nil {
			t.Fatalf("GetConfig after update failed: %v", err)
		}
		if fetched.ID != cfg.ID {
			t.Errorf("expected upsert to keep id %d, got %d", cfg.ID, fetched.ID)
		}
		if fetched.GroupName != "Disblox Testing v2" {
			t.Errorf("expected updated group name, got %s", fetched.GroupName)
		}
		if len(fetched.RolesToRemove) != 0 {
			t.Errorf("expected cleared roles, got %v", fetched.RolesToRemove)
		}
	})

	t.Run("replace group role mappings wholesale", func(t *testing.T) {
		cfg := &domain.ServerConfig{ServerID: "guild-2", NicknamePolicy: domain.NicknameNone, SetupPhase: domain.SetupPhaseGroup}
		if err := repo.UpsertConfig(ctx, cfg); err != nil {
			t.Fatalf("UpsertConfig failed: %v", err)
		}

		initial := []domain.GroupRoleMapping{
			{RobloxRoleID: "r1", RobloxRoleName: "Member", RobloxRoleRank: 1, DiscordRoleID: "d1", DiscordRoleName: "Member"},
			{RobloxRoleID: "r2", RobloxRoleName: "Officer", RobloxRoleRank: 100, DiscordRoleID: "d2", DiscordRoleName: "Officer"},
		}
		if err := repo.ReplaceGroupRoleMappings(ctx, cfg.ID, initial); err != nil {
			t.Fatalf("ReplaceGroupRoleMappings failed: %v", err)
		}

		mappings, err := repo.GetGroupRoleMappings(ctx, cfg.ID)
		if err != nil {
			t.Fatalf("GetGroupRoleMappings failed: %v", err)
		}
		if len(mappings) != 2 {
			t.Fatalf("expected 2 mappings, got %d", len(mappings))
		}
		if mappings[0].RobloxRoleRank > mappings[1].RobloxRoleRank {
			t.Error("expected mappings ordered by rank ascending")
		}

		// A second replace discards everything from the first
		replacement := []domain.GroupRoleMapping{
			{RobloxRoleID: "r3", RobloxRoleName: "Admin", RobloxRoleRank: 255, DiscordRoleName: "Admin"},
		}
		if err := repo.ReplaceGroupRoleMappings(ctx, cfg.ID, replacement); err != nil {
			t.Fatalf("second ReplaceGroupRoleMappings failed: %v", err)
		}
		mappings, err = repo.GetGroupRoleMappings(ctx, cfg.ID)
		if err != nil {
			t.Fatalf("GetGroupRoleMappings after replace failed: %v", err)
		}
		if len(mappings) != 1 || mappings[0].RobloxRoleID != "r3" {
			t.Fatalf("expected only the replacement mapping, got %+v", mappings)
		}
	})

	t.Run("deleting a config cascades its mappings", func(t *testing.T) {
		cfg := &domain.ServerConfig{ServerID: "guild-3", NicknamePolicy: domain.NicknameNone, SetupPhase: domain.SetupPhaseNickname}
		if err := repo.UpsertConfig(ctx, cfg); err != nil {
			t.Fatalf("UpsertConfig failed: %v", err)
		}
		if err := repo.ReplaceGroupRoleMappings(ctx, cfg.ID, []domain.GroupRoleMapping{
			{RobloxRoleID: "r1", RobloxRoleName: "Member", RobloxRoleRank: 1, DiscordRoleName: "Member"},
		}); err != nil {
			t.Fatalf("ReplaceGroupRoleMappings failed: %v", err)
		}

		if err := repo.DeleteConfig(ctx, "guild-3"); err != nil {
			t.Fatalf("DeleteConfig failed: %v", err)
		}
		if _, err := repo.GetConfig(ctx, "guild-3"); !errors.Is(err, domain.ErrServerNotConfigured) {
			t.Errorf("expected ErrServerNotConfigured, got %v", err)
		}
		mappings, err := repo.GetGroupRoleMappings(ctx, cfg.ID)
		if err != nil {
			t.Fatalf("GetGroupRoleMappings after delete failed: %v", err)
		}
		if len(mappings) != 0 {
			t.Errorf("expected cascade to remove mappings, got %d", len(mappings))
		}
	})
}

func TestMembershipRepositories_Integration(t *testing.T) {
	pool := startTestPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	members := NewMembershipRepository(pool)
	registry := NewGuildRegistryRepository(pool)

	user := &domain.User{DiscordID: "500", Username: "erin"}
	if err := users.UpsertUser(ctx, user); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	t.Run("membership upsert is keyed by user and server", func(t *testing.T) {
		m := &domain.ServerMember{UserID: user.ID, ServerID: "guild-1", ServerName: "First"}
		if err := members.UpsertMember(ctx, m); err != nil {
			t.Fatalf("UpsertMember failed: %v", err)
		}
		if m.ID == 0 || m.AddedAt.IsZero() {
			t.Error("expected id and added_at to be written back")
		}

		// Re-syncing the same pair must not grow the table
		if err := members.UpsertMember(ctx, &domain.ServerMember{UserID: user.ID, ServerID: "guild-1", ServerName: "First Renamed"}); err != nil {
			t.Fatalf("second UpsertMember failed: %v", err)
		}
		list, err := members.GetMembersForUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetMembersForUser failed: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected a single membership, got %d", len(list))
		}
		if list[0].ServerName != "First Renamed" {
			t.Errorf("expected server name to update, got %s", list[0].ServerName)
		}
	})

	t.Run("server removal clears memberships", func(t *testing.T) {
		if err := members.DeleteMembersForServer(ctx, "guild-1"); err != nil {
			t.Fatalf("DeleteMembersForServer failed: %v", err)
		}
		if _, err := members.GetMember(ctx, user.ID, "guild-1"); !errors.Is(err, domain.ErrMemberNotFound) {
			t.Errorf("expected ErrMemberNotFound, got %v", err)
		}
	})

	t.Run("guild registry upsert, list and delete", func(t *testing.T) {
		guild := &domain.BotServer{ServerID: "guild-9", ServerName: "Mirror", OwnerID: "owner", MemberCount: 42}
		if err := registry.UpsertGuild(ctx, guild); err != nil {
			t.Fatalf("UpsertGuild failed: %v", err)
		}
		if guild.ID == 0 || guild.JoinedAt.IsZero() {
			t.Error("expected id and joined_at to be written back")
		}

		guilds, err := registry.ListGuilds(ctx)
		if err != nil {
			t.Fatalf("ListGuilds failed: %v", err)
		}
		if len(guilds) != 1 || guilds[0].ServerID != "guild-9" {
			t.Fatalf("expected the mirrored guild, got %+v", guilds)
		}

		if err := registry.DeleteGuild(ctx, "guild-9"); err != nil {
			t.Fatalf("DeleteGuild failed: %v", err)
		}
		if _, err := registry.GetGuild(ctx, "guild-9"); !errors.Is(err, domain.ErrGuildNotFound) {
			t.Errorf("expected ErrGuildNotFound, got %v", err)
		}
	})
}
