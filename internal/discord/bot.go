package discord

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/guild"
	"github.com/disblox/disblox/internal/logger"
)

// Config holds the bot configuration
type Config struct {
	Token        string
	AppID        string
	DashboardURL string
	SupportURL   string
	TwitterURL   string
}

// Bot owns the Discord gateway session. Gateway events feed the guild
// snapshot provider and the event bus; interactions are dispatched through
// the command registry.
type Bot struct {
	Session  *discordgo.Session
	Provider *guild.Provider
	Registry *CommandRegistry
	AppID    string

	bus event.Bus
	cfg Config

	startedAt       time.Time
	commandsHandled atomic.Int64
	lastCommandAt   atomic.Int64 // unix nano
}

// New creates a new Discord bot. The guild provider is built here too:
// it wraps the session, which does not exist until now.
func New(cfg Config, bus event.Bus) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	// Member add/remove and member lists require the privileged members intent
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	return &Bot{
		Session:  s,
		Provider: guild.NewProvider(s),
		Registry: NewCommandRegistry(),
		AppID:    cfg.AppID,
		bus:      bus,
		cfg:      cfg,
	}, nil
}

// Start opens the gateway connection
func (b *Bot) Start(ctx context.Context) error {
	b.Session.AddHandler(b.ready)
	b.Session.AddHandler(b.guildCreate)
	b.Session.AddHandler(b.guildDelete)
	b.Session.AddHandler(b.memberAdd)
	b.Session.AddHandler(b.memberRemove)
	b.Session.AddHandler(b.interactionCreate)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	b.startedAt = time.Now()
	logger.FromContext(ctx).Info(LogMsgBotReady, "app_id", b.AppID)
	return nil
}

// Stop closes the gateway connection
func (b *Bot) Stop(ctx context.Context) {
	b.Provider.SetNotReady()
	if err := b.Session.Close(); err != nil {
		logger.FromContext(ctx).Warn("Discord session close failed", "error", err)
		return
	}
	logger.FromContext(ctx).Info(LogMsgBotStopped)
}

// GuildMember fetches one member, preferring gateway state over REST
func (b *Bot) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	if m, err := b.Session.State.Member(guildID, userID); err == nil {
		return m, nil
	}
	return b.Session.GuildMember(guildID, userID)
}

// GuildMembers pages through a guild's member list
func (b *Bot) GuildMembers(guildID, after string, limit int) ([]*discordgo.Member, error) {
	return b.Session.GuildMembers(guildID, after, limit)
}

// CommandStats reports interaction counters for the dashboard
func (b *Bot) CommandStats() (handled int64, last time.Time) {
	handled = b.commandsHandled.Load()
	if nanos := b.lastCommandAt.Load(); nanos > 0 {
		last = time.Unix(0, nanos)
	}
	return handled, last
}

func (b *Bot) recordCommand() {
	b.commandsHandled.Add(1)
	b.lastCommandAt.Store(time.Now().UnixNano())
}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if b.Registry.Handle(s, i) {
			b.recordCommand()
		}
	case discordgo.InteractionMessageComponent:
		if b.Registry.HandleComponent(s, i) {
			b.recordCommand()
		}
	}
}

func (b *Bot) publish(ev event.Event) {
	ctx := context.Background()
	if err := b.bus.Publish(ctx, ev); err != nil {
		logger.FromContext(ctx).Error(LogMsgEventPublishFailed, "event_type", ev.Type, "error", err)
	}
}
