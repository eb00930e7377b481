package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/setup"
)

// VerifyChannelCommand posts a persistent verification message with verify
// and help buttons. Requires Manage Messages.
func VerifyChannelCommand(wizard setup.Service) (*discordgo.ApplicationCommand, CommandHandler) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "verifychannel",
		Description: "Send verification message to current channel",
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			respondEphemeral(s, i, MsgGuildOnly)
			return
		}
		if !hasPermission(i, discordgo.PermissionManageMessages) {
			respondEphemeral(s, i, MsgNeedManageMsgs)
			return
		}

		status, err := wizard.Status(context.Background(), i.GuildID)
		if err != nil || !status.Completed {
			respondEphemeral(s, i, MsgSetupFirst)
			return
		}

		guildName := i.GuildID
		if g, err := s.State.Guild(i.GuildID); err == nil {
			guildName = g.Name
		}

		now := time.Now().UTC().Format(time.RFC3339)
		embed := &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("👋 Welcome to %s!", guildName),
			Description: "Click the button below to verify with Disblox and gain access to the rest of the server.",
			Color:       ColorBlurple,
			Timestamp:   now,
			Footer:      &discordgo.MessageEmbedFooter{Text: FooterVerification},
		}

		_, err = s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Style:    discordgo.PrimaryButton,
							Label:    "Verify with Disblox",
							CustomID: ComponentVerifyButton,
							Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
						},
						discordgo.Button{
							Style:    discordgo.SecondaryButton,
							Label:    "Need help?",
							CustomID: ComponentHelpButton,
							Emoji:    &discordgo.ComponentEmoji{Name: "❓"},
						},
					},
				},
			},
		})
		if err != nil {
			slog.Error(LogMsgRespondFailed, "error", err)
			respondEphemeral(s, i, MsgGenericError)
			return
		}

		respondEphemeral(s, i, MsgVerifySent)
	}

	return cmd, handler
}

// InviteCommand links to the dashboard where the bot can be invited
func InviteCommand(dashboardURL string) (*discordgo.ApplicationCommand, CommandHandler) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "invite",
		Description: "Get the Disblox dashboard link",
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		embed := &discordgo.MessageEmbed{
			Title:       "🔗 Disblox Dashboard",
			Description: "Click the link below to access the Disblox dashboard and invite the bot to your server.",
			Color:       ColorBlurple,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Dashboard Link", Value: fmt.Sprintf("[%s](%s)", dashboardURL, dashboardURL)},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: FooterVerification},
		}
		respondEphemeralEmbed(s, i, embed)
	}

	return cmd, handler
}

// SupportCommand links to the support server and social media
func SupportCommand(supportURL, twitterURL string) (*discordgo.ApplicationCommand, CommandHandler) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "support",
		Description: "Get support links and social media",
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		embed := &discordgo.MessageEmbed{
			Title:       "🆘 Support & Social Links",
			Description: "Need help? Here are our support channels and social media links.",
			Color:       ColorBlurple,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Discord Support Server", Value: fmt.Sprintf("[%s](%s)", supportURL, supportURL)},
				{Name: "Twitter/X", Value: fmt.Sprintf("[%s](%s)", twitterURL, twitterURL)},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: FooterVerification},
		}
		respondEphemeralEmbed(s, i, embed)
	}

	return cmd, handler
}
