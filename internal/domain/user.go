package domain

import "time"

// User represents a Discord user known to the service.
// A user is created on first Discord OAuth login and garbage collected
// when their last linked account and guild membership are gone.
type User struct {
	ID            int64     `json:"id"`
	DiscordID     string    `json:"discord_id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LinkedAccount is a Roblox identity attached to a User.
// Created on successful Roblox OAuth link, deleted on unlink.
// Only Verified is ever mutated after creation.
type LinkedAccount struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	RobloxID       string    `json:"roblox_id"`
	RobloxUsername string    `json:"roblox_username"`
	RobloxAvatar   string    `json:"roblox_avatar,omitempty"`
	Verified       bool      `json:"verified"`
	LinkedAt       time.Time `json:"linked_at"`
}

// PrimaryAccount selects the identity used for reconciliation:
// the first verified account, else the first account by creation order.
// Returns nil when the slice is empty.
func PrimaryAccount(accounts []LinkedAccount) *LinkedAccount {
	if len(accounts) == 0 {
		return nil
	}
	for i := range accounts {
		if accounts[i].Verified {
			return &accounts[i]
		}
	}
	return &accounts[0]
}

// ServerMember records that a user is present in a guild.
// Deleted when the member leaves; used for orphaned-user garbage collection.
type ServerMember struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	ServerID   string    `json:"server_id"`
	ServerName string    `json:"server_name"`
	AddedAt    time.Time `json:"added_at"`
}

// BotServer is a guild the bot is currently joined to, mirrored into
// persistence by the guild registry sync job.
type BotServer struct {
	ID          int64     `json:"id"`
	ServerID    string    `json:"server_id"`
	ServerName  string    `json:"server_name"`
	ServerIcon  string    `json:"server_icon,omitempty"`
	OwnerID     string    `json:"owner_id"`
	MemberCount int       `json:"member_count"`
	JoinedAt    time.Time `json:"joined_at"`
}
