package setup

// Error messages
const (
	ErrMsgInvalidGroupURL  = "unrecognized Roblox group URL"
	ErrMsgGroupSourceEmpty = "a group URL or group ID is required unless skipping"
	ErrMsgNicknameFirst    = "nickname policy must be configured first"
)

// Log messages
const (
	LogMsgPhaseAdvanced    = "Setup phase advanced"
	LogMsgSetupCompleted   = "Server setup completed"
	LogMsgConfigReset      = "Server configuration reset"
	LogMsgRoleCreateFailed = "Discord role creation failed"
	LogMsgRoleRenameFailed = "Discord role rename failed"
	LogMsgMappingsReplaced = "Group role mappings replaced"
)
