package domain

import "time"

// NicknamePolicy controls how a member's nickname is derived during reconciliation.
type NicknamePolicy string

const (
	NicknameNone              NicknamePolicy = "none"
	NicknameRobloxUsername    NicknamePolicy = "roblox_username"
	NicknameRobloxDisplay     NicknamePolicy = "roblox_display"
	NicknameDiscordDisplay    NicknamePolicy = "discord_display"
	NicknameDiscordUsername   NicknamePolicy = "discord_username"
	NicknameDiscordWithRoblox NicknamePolicy = "discord_display_with_roblox"
)

// ValidNicknamePolicy reports whether p is a recognized policy value.
func ValidNicknamePolicy(p NicknamePolicy) bool {
	switch p {
	case NicknameNone, NicknameRobloxUsername, NicknameRobloxDisplay,
		NicknameDiscordDisplay, NicknameDiscordUsername, NicknameDiscordWithRoblox:
		return true
	}
	return false
}

// SetupPhase tracks progress through the server setup wizard.
type SetupPhase string

const (
	SetupPhaseNickname     SetupPhase = "nickname"
	SetupPhaseVerifiedRole SetupPhase = "verified_role"
	SetupPhaseGroup        SetupPhase = "group"
	SetupPhaseCompleted    SetupPhase = "completed"
)

// ServerConfig holds per-guild reconciliation settings.
// Created lazily on the first setup step, deleted on guild removal or reset.
type ServerConfig struct {
	ID       int64  `json:"id"`
	ServerID string `json:"server_id"`

	NicknamePolicy NicknamePolicy `json:"nickname_policy"`

	VerifiedRoleEnabled bool     `json:"verified_role_enabled"`
	VerifiedRoleName    string   `json:"verified_role_name"`
	VerifiedRoleID      string   `json:"verified_role_id,omitempty"`
	RolesToRemove       []string `json:"roles_to_remove,omitempty"`

	GroupRolesEnabled bool   `json:"group_roles_enabled"`
	GroupID           string `json:"group_id,omitempty"`
	GroupName         string `json:"group_name,omitempty"`

	SetupPhase     SetupPhase `json:"setup_phase"`
	SetupCompleted bool       `json:"setup_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupRoleMapping maps a Roblox group role to a Discord role for one config.
// Unique per (server_config_id, roblox_role_id); the full set is replaced
// wholesale whenever the group policy is reconfigured.
type GroupRoleMapping struct {
	ID              int64  `json:"id"`
	ServerConfigID  int64  `json:"server_config_id"`
	RobloxRoleID    string `json:"roblox_role_id"`
	RobloxRoleName  string `json:"roblox_role_name"`
	RobloxRoleRank  int    `json:"roblox_role_rank"`
	DiscordRoleID   string `json:"discord_role_id,omitempty"`
	DiscordRoleName string `json:"discord_role_name"`
}
