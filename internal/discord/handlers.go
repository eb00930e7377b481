package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/logger"
)

func (b *Bot) ready(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.Provider.TrackGuild(g)
	}
	b.Provider.SetReady(r.User)

	logger.FromContext(context.Background()).Info(LogMsgBotReady,
		"user", r.User.Username, "guilds", len(r.Guilds))
	b.updatePresence(s)
}

func (b *Bot) guildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.Provider.TrackGuild(g.Guild)

	logger.FromContext(context.Background()).Info(LogMsgGuildJoined,
		"guild_id", g.ID, "name", g.Name, "members", g.MemberCount)

	b.publish(event.NewGuildAddedEvent(g.ID, g.Name, g.Icon, g.OwnerID, g.MemberCount))
	b.updatePresence(s)
}

func (b *Bot) guildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Unavailable means an outage, not a removal
	if g.Unavailable {
		return
	}
	b.Provider.DropGuild(g.ID)

	logger.FromContext(context.Background()).Info(LogMsgGuildRemoved, "guild_id", g.ID)

	b.publish(event.NewGuildRemovedEvent(g.ID))
	b.updatePresence(s)
}

func (b *Bot) memberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}

	guildName := ""
	if g, err := b.Provider.Guild(m.GuildID); err == nil {
		guildName = g.Name
	}

	b.publish(event.NewMemberJoinedEvent(m.GuildID, guildName, m.User.ID, m.User.Username))
	b.updatePresence(s)
}

func (b *Bot) memberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil || m.User.Bot {
		return
	}

	b.publish(event.NewMemberLeftEvent(m.GuildID, m.User.ID))
	b.updatePresence(s)
}

// updatePresence sets the "Watching N users" activity from the snapshot's
// aggregate member count.
func (b *Bot) updatePresence(s *discordgo.Session) {
	total := 0
	for _, g := range b.Provider.Guilds() {
		total += g.MemberCount
	}

	if err := s.UpdateWatchStatus(0, fmt.Sprintf("%d users", total)); err != nil {
		logger.FromContext(context.Background()).Warn(LogMsgPresenceFailed, "error", err)
	}
}
