package discord

// Embed colors
const (
	ColorBlurple = 0x5865F2
	ColorGreen   = 0x2ecc71
	ColorBlue    = 0x3498db
	ColorRed     = 0xe74c3c
)

// Embed footers
const (
	FooterVerification = "Disblox Verification System"
	FooterUpdate       = "Disblox Update System"
)

// Component custom IDs. Persistent: messages carrying these buttons outlive
// restarts, so the IDs must never change.
const (
	ComponentVerifyButton = "verify_button"
	ComponentHelpButton   = "help_button"
)

// Friendly message constants for Discord responses
const (
	MsgGuildOnly         = "This command can only be used in a server."
	MsgNotLinked         = "You need to link your Roblox account first. Visit the dashboard to get started: %s"
	MsgTargetNotLinked   = "This user doesn't have a linked Roblox account."
	MsgNotConfigured     = "This server is not configured for verification. Please contact an administrator."
	MsgSetupFirst        = "This server is not configured for verification. Please set up the bot first."
	MsgNeedManageRoles   = "You need 'Manage Roles' permission to update other users."
	MsgNeedManageMsgs    = "You need 'Manage Messages' permission to use this command."
	MsgVerifySent        = "Verification message sent!"
	MsgVerifyDone        = "Verification completed successfully!"
	MsgUpdateDone        = "Update completed successfully!"
	MsgVerifyFailed      = "Verification failed: %s"
	MsgUpdateFailed      = "Update failed: %s"
	MsgGenericError      = "❌ Something went wrong. Please try again."
	MsgMemberNotInGuild  = "That user is not a member of this server."
	MsgRateLimited       = "⏳ Slow down a little and try again."
	MsgRobloxUnavailable = "Roblox is not responding right now. Please try again later."
)

// Log messages
const (
	LogMsgBotReady           = "Discord gateway ready"
	LogMsgBotStopped         = "Discord session closed"
	LogMsgGuildJoined        = "Joined guild"
	LogMsgGuildRemoved       = "Removed from guild"
	LogMsgPresenceFailed     = "Presence update failed"
	LogMsgDeferFailed        = "Failed to send deferred response"
	LogMsgRespondFailed      = "Failed to send interaction response"
	LogMsgDMFailed           = "Direct message delivery failed"
	LogMsgCommandsUnchanged  = "Commands unchanged, skipping registration"
	LogMsgCommandsUpdated    = "Commands updated"
	LogMsgCommandsForced     = "Force update enabled - replacing all commands"
	LogMsgEventPublishFailed = "Gateway event publish failed"
)
