package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
)

// dmSession is the slice of discordgo.Session the notifier sends DMs with
type dmSession interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier delivers direct messages after joins and reconciliations.
// Closed DMs are common; every send is best effort.
type Notifier struct {
	session      dmSession
	dashboardURL string
}

// NewNotifier creates a new notifier
func NewNotifier(session dmSession, dashboardURL string) *Notifier {
	return &Notifier{session: session, dashboardURL: dashboardURL}
}

// SendLinkPrompt DMs a newly joined member who has no linked identity
func (n *Notifier) SendLinkPrompt(ctx context.Context, userID string) {
	n.send(ctx, userID, LinkPromptEmbed(n.dashboardURL))
}

// SendReport DMs the outcome of a reconciliation
func (n *Notifier) SendReport(ctx context.Context, userID string, result domain.ReconciliationResult, isUpdate bool) {
	if result.Empty() {
		return
	}
	if isUpdate {
		n.send(ctx, userID, UpdateEmbed(result))
		return
	}
	n.send(ctx, userID, VerificationEmbed(result))
}

func (n *Notifier) send(ctx context.Context, userID string, embed *discordgo.MessageEmbed) {
	channel, err := n.session.UserChannelCreate(userID)
	if err != nil {
		logger.FromContext(ctx).Debug(LogMsgDMFailed, "user_id", userID, "error", err)
		return
	}
	if _, err := n.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		logger.FromContext(ctx).Debug(LogMsgDMFailed, "user_id", userID, "error", err)
	}
}

// LinkPromptEmbed asks a member to link a Roblox account
func LinkPromptEmbed(dashboardURL string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "👋 Link Your Roblox Account",
		Description: "Welcome! To access this server's features, you need to link your Roblox account.",
		Color:       ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "How to link:",
				Value: fmt.Sprintf("1. Visit our website %s\n"+
					"2. Log in with Discord\n"+
					"3. Link your Roblox account\n"+
					"4. Use `/verify` command or verify on the website.", dashboardURL),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: FooterVerification},
	}
}

// VerificationEmbed reports a first verification
func VerificationEmbed(result domain.ReconciliationResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Verification Complete",
		Description: "Your Roblox account has been successfully verified!",
		Color:       ColorGreen,
		Footer:      &discordgo.MessageEmbedFooter{Text: FooterVerification},
	}

	if result.NicknameUpdated != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Nickname Updated",
			Value: "New nickname: " + result.NicknameUpdated,
		})
	}
	if len(result.RolesAdded) > 0 {
		embed.Fields = append(embed.Fields, roleListField("Roles Added", result.RolesAdded))
	}
	if len(result.GroupRolesAdded) > 0 {
		embed.Fields = append(embed.Fields, roleListField("Group Roles Added", result.GroupRolesAdded))
	}

	return embed
}

// UpdateEmbed reports a re-sync of an already verified member
func UpdateEmbed(result domain.ReconciliationResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Update Complete",
		Description: "Your roles and nickname have been updated!",
		Color:       ColorBlue,
		Footer:      &discordgo.MessageEmbedFooter{Text: FooterUpdate},
	}

	if len(result.RolesAdded) > 0 {
		embed.Fields = append(embed.Fields, roleListField("Roles Added", result.RolesAdded))
	}
	if len(result.RolesRemoved) > 0 {
		embed.Fields = append(embed.Fields, roleListField("Roles Removed", result.RolesRemoved))
	}
	if len(result.GroupRolesAdded) > 0 {
		embed.Fields = append(embed.Fields, roleListField("Group Roles Added", result.GroupRolesAdded))
	}
	if len(result.GroupRolesRemoved) > 0 {
		embed.Fields = append(embed.Fields, roleListField("Group Roles Removed", result.GroupRolesRemoved))
	}
	if result.NicknameUpdated != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Nickname Updated",
			Value: "New nickname: " + result.NicknameUpdated,
		})
	}

	return embed
}

func roleListField(name string, roles []string) *discordgo.MessageEmbedField {
	lines := make([]string, 0, len(roles))
	for _, role := range roles {
		lines = append(lines, "• "+role)
	}
	return &discordgo.MessageEmbedField{
		Name:   name,
		Value:  strings.Join(lines, "\n"),
		Inline: true,
	}
}
