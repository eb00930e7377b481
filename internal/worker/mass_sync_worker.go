package worker

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/logger"
	"github.com/disblox/disblox/internal/sync"
)

// GuildSource is the slice of the gateway state the workers need.
// *guild.Provider satisfies it.
type GuildSource interface {
	IsReady() bool
	Guilds() []*discordgo.Guild
}

// MassSyncJob reconciles every member of every guild the bot is in. It runs
// on an interval so members who linked while offline, or whose Roblox state
// changed, converge without waiting for a gateway event.
type MassSyncJob struct {
	syncer sync.Service
	guilds GuildSource
}

// NewMassSyncJob creates the periodic reconciliation job
func NewMassSyncJob(syncer sync.Service, guilds GuildSource) *MassSyncJob {
	return &MassSyncJob{syncer: syncer, guilds: guilds}
}

// Process runs one full pass. Guild failures are logged and skipped so one
// bad guild cannot starve the rest.
func (j *MassSyncJob) Process(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if !j.guilds.IsReady() {
		log.Debug(LogMsgMassSyncSkipped)
		return nil
	}

	guilds := j.guilds.Guilds()
	log.Info(LogMsgMassSyncStarting, "guilds", len(guilds))

	totalSynced, totalFailed := 0, 0
	for _, g := range guilds {
		report, err := j.syncer.SyncGuild(ctx, g.ID)
		if err != nil {
			log.Error(LogMsgMassSyncGuildError, "guild_id", g.ID, "error", err)
			continue
		}
		totalSynced += report.Synced
		totalFailed += report.Failed
	}

	log.Info(LogMsgMassSyncCompleted, "guilds", len(guilds), "synced", totalSynced, "failed", totalFailed)
	return nil
}
