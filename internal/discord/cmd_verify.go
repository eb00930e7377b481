package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/sync"
)

// VerifyCommand returns the verify command definition and handler
func VerifyCommand(syncer sync.Service, dashboardURL string) (*discordgo.ApplicationCommand, CommandHandler) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "verify",
		Description: "Verify your Roblox account and receive your roles",
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		runVerify(s, i, syncer, dashboardURL)
	}

	return cmd, handler
}

// runVerify reconciles the invoking member; shared by /verify and the
// persistent verify button.
func runVerify(s *discordgo.Session, i *discordgo.InteractionCreate, syncer sync.Service, dashboardURL string) {
	if i.GuildID == "" {
		respondEphemeral(s, i, MsgGuildOnly)
		return
	}
	if !deferEphemeral(s, i) {
		return
	}

	user := getInteractionUser(i)
	result, err := syncer.SyncMember(context.Background(), i.GuildID, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNoLinkedIdentity) {
			followUp(s, i, fmt.Sprintf(MsgNotLinked, dashboardURL))
			return
		}
		followUp(s, i, fmt.Sprintf(MsgVerifyFailed, formatFriendlyError(err)))
		return
	}

	if result.Empty() {
		followUp(s, i, MsgVerifyDone)
		return
	}
	followUpEmbed(s, i, VerificationEmbed(result))
}

// UpdateCommand returns the update command definition and handler. Updating
// another member requires Manage Roles.
func UpdateCommand(syncer sync.Service) (*discordgo.ApplicationCommand, CommandHandler) {
	cmd := &discordgo.ApplicationCommand{
		Name:        "update",
		Description: "Update your roles and nickname",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Member to update (defaults to you)",
				Required:    false,
			},
		},
	}

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			respondEphemeral(s, i, MsgGuildOnly)
			return
		}

		invoker := getInteractionUser(i)
		targetID := invoker.ID
		if opts := getOptions(i); len(opts) > 0 {
			targetID = opts[0].UserValue(nil).ID
		}

		if targetID != invoker.ID && !hasPermission(i, discordgo.PermissionManageRoles) {
			respondEphemeral(s, i, MsgNeedManageRoles)
			return
		}

		if !deferEphemeral(s, i) {
			return
		}

		result, err := syncer.SyncMember(context.Background(), i.GuildID, targetID)
		if err != nil {
			if errors.Is(err, domain.ErrNoLinkedIdentity) {
				followUp(s, i, MsgTargetNotLinked)
				return
			}
			followUp(s, i, fmt.Sprintf(MsgUpdateFailed, formatFriendlyError(err)))
			return
		}

		if result.Empty() {
			followUp(s, i, MsgUpdateDone)
			return
		}
		followUpEmbed(s, i, UpdateEmbed(result))
	}

	return cmd, handler
}
