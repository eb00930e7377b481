package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/disblox/disblox/internal/database/postgres"
	"github.com/disblox/disblox/internal/repository"
)

// Repositories holds the persistence layer behind the services.
type Repositories struct {
	User          repository.User
	ServerConfig  repository.ServerConfig
	Membership    repository.Membership
	GuildRegistry repository.GuildRegistry
}

// InitializeRepositories wires the Postgres-backed repositories.
func InitializeRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:          postgres.NewUserRepository(dbPool),
		ServerConfig:  postgres.NewServerConfigRepository(dbPool),
		Membership:    postgres.NewMembershipRepository(dbPool),
		GuildRegistry: postgres.NewGuildRegistryRepository(dbPool),
	}
}
