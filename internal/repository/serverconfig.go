package repository

import (
	"context"

	"github.com/disblox/disblox/internal/domain"
)

// ServerConfig defines the interface for per-guild configuration persistence
type ServerConfig interface {
	UpsertConfig(ctx context.Context, config *domain.ServerConfig) error
	GetConfig(ctx context.Context, serverID string) (*domain.ServerConfig, error)
	DeleteConfig(ctx context.Context, serverID string) error

	// ReplaceGroupRoleMappings swaps the full mapping set for a config.
	// Group reconfiguration always replaces mappings wholesale.
	ReplaceGroupRoleMappings(ctx context.Context, serverConfigID int64, mappings []domain.GroupRoleMapping) error
	GetGroupRoleMappings(ctx context.Context, serverConfigID int64) ([]domain.GroupRoleMapping, error)
}
