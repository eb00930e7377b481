package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disblox/disblox/internal/config"
	"github.com/disblox/disblox/internal/discord"
	"github.com/disblox/disblox/internal/event"
	"github.com/disblox/disblox/internal/setup"
	"github.com/disblox/disblox/internal/sync"
)

// NewDiscordBot builds the bot without opening the gateway. The bot is a
// dependency of the sync service (member lookups go through it), so
// construction and startup are separate steps.
func NewDiscordBot(cfg *config.Config, bus event.Bus) (*discord.Bot, error) {
	bot, err := discord.New(discord.Config{
		Token:        cfg.DiscordToken,
		AppID:        cfg.DiscordAppID,
		DashboardURL: cfg.FrontendURL,
		SupportURL:   cfg.SupportServerURL,
		TwitterURL:   cfg.TwitterURL,
	}, bus)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedCreateBot, err)
	}
	return bot, nil
}

// StartDiscord registers the slash commands, launches the provider dispatch
// loop, and opens the gateway connection. Command sync with Discord happens
// after the session is open so the application ID is known to be valid.
func StartDiscord(ctx context.Context, cfg *config.Config, bot *discord.Bot, syncer sync.Service, wizard setup.Service) error {
	bot.RegisterDefaultCommands(syncer, wizard)
	bot.Provider.Start(ctx)

	if err := bot.Start(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedStartBot, err)
	}

	if err := bot.RegisterCommands(cfg.ForceCommandUpdate); err != nil {
		// The gateway is up; stale commands are recoverable on next boot.
		slog.Warn(LogMsgCommandSyncFailed, "error", err)
	}

	slog.Info(LogMsgDiscordBotStarted, "force_command_update", cfg.ForceCommandUpdate)
	return nil
}
