package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/setup"
	"github.com/disblox/disblox/internal/sync"
)

// VerifyButtonHandler runs the same flow as /verify for the persistent
// verification button.
func VerifyButtonHandler(syncer sync.Service, dashboardURL string) CommandHandler {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		runVerify(s, i, syncer, dashboardURL)
	}
}

// HelpButtonHandler explains the verification steps
func HelpButtonHandler(dashboardURL string) CommandHandler {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		embed := &discordgo.MessageEmbed{
			Title:       "❓ Need Help with Verification?",
			Description: "Here's how to get verified:",
			Color:       ColorBlurple,
			Fields: []*discordgo.MessageEmbedField{
				{
					Name:  "📋 Step 1: Link Your Account",
					Value: fmt.Sprintf("Visit our dashboard: %s and link your Roblox account with your Discord account.", dashboardURL),
				},
				{
					Name:  "🔗 Step 2: Verify",
					Value: "Click the 'Verify with Disblox' button above to complete verification.",
				},
				{
					Name:  "🎯 Step 3: Access Granted",
					Value: "Once verified, you'll receive the appropriate roles and access to the server.",
				},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: FooterVerification},
		}
		respondEphemeralEmbed(s, i, embed)
	}
}

// RegisterDefaultCommands wires the bot's full command and component set
func (b *Bot) RegisterDefaultCommands(syncer sync.Service, wizard setup.Service) {
	verifyCmd, verifyHandler := VerifyCommand(syncer, b.cfg.DashboardURL)
	b.Registry.Register(verifyCmd, verifyHandler)

	updateCmd, updateHandler := UpdateCommand(syncer)
	b.Registry.Register(updateCmd, updateHandler)

	channelCmd, channelHandler := VerifyChannelCommand(wizard)
	b.Registry.Register(channelCmd, channelHandler)

	inviteCmd, inviteHandler := InviteCommand(b.cfg.DashboardURL)
	b.Registry.Register(inviteCmd, inviteHandler)

	supportCmd, supportHandler := SupportCommand(b.cfg.SupportURL, b.cfg.TwitterURL)
	b.Registry.Register(supportCmd, supportHandler)

	b.Registry.RegisterComponent(ComponentVerifyButton, VerifyButtonHandler(syncer, b.cfg.DashboardURL))
	b.Registry.RegisterComponent(ComponentHelpButton, HelpButtonHandler(b.cfg.DashboardURL))
}
