package identity

// Error messages
const (
	ErrMsgRobloxNotConfigured = "Roblox OAuth is not configured"
	ErrMsgStateMismatch       = "unknown or expired link state"
	ErrMsgAlreadyLinkedSelf   = "This Roblox account is already linked to your Discord account"
	ErrMsgAlreadyLinkedOther  = "This Roblox account is already linked to another Discord account"
)

// Log messages
const (
	LogMsgLinkStarted    = "Roblox link started"
	LogMsgAccountLinked  = "Roblox account linked"
	LogMsgAccountRemoved = "Roblox account unlinked"
)
