package worker

import (
	"context"
	"fmt"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
	"github.com/disblox/disblox/internal/repository"
)

// GuildMirrorJob keeps the guild registry table in step with the gateway's
// view of the bot's guilds. It doubles as the dashboard's manual-sync target.
type GuildMirrorJob struct {
	guilds   GuildSource
	registry repository.GuildRegistry
}

// NewGuildMirrorJob creates the registry mirror job
func NewGuildMirrorJob(guilds GuildSource, registry repository.GuildRegistry) *GuildMirrorJob {
	return &GuildMirrorJob{guilds: guilds, registry: registry}
}

// Process implements Job for scheduled runs
func (j *GuildMirrorJob) Process(ctx context.Context) error {
	if !j.guilds.IsReady() {
		logger.FromContext(ctx).Debug(LogMsgGuildMirrorSkipped)
		return nil
	}
	return j.SyncGuilds(ctx)
}

// SyncGuilds upserts every current guild and prunes registry rows for guilds
// the bot has left. Pruning covers removals that happened while the gateway
// was disconnected and no GuildDelete event was seen.
func (j *GuildMirrorJob) SyncGuilds(ctx context.Context) error {
	log := logger.FromContext(ctx)

	current := j.guilds.Guilds()
	seen := make(map[string]bool, len(current))
	for _, g := range current {
		seen[g.ID] = true
		if err := j.registry.UpsertGuild(ctx, &domain.BotServer{
			ServerID:    g.ID,
			ServerName:  g.Name,
			ServerIcon:  g.Icon,
			OwnerID:     g.OwnerID,
			MemberCount: g.MemberCount,
		}); err != nil {
			return fmt.Errorf("failed to mirror guild %s: %w", g.ID, err)
		}
	}

	stored, err := j.registry.ListGuilds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list registered guilds: %w", err)
	}

	pruned := 0
	for _, s := range stored {
		if seen[s.ServerID] {
			continue
		}
		if err := j.registry.DeleteGuild(ctx, s.ServerID); err != nil {
			return fmt.Errorf("failed to prune guild %s: %w", s.ServerID, err)
		}
		log.Info(LogMsgGuildMirrorPruned, "guild_id", s.ServerID)
		pruned++
	}

	log.Info(LogMsgGuildMirrorCompleted, "guilds", len(current), "pruned", pruned)
	return nil
}
