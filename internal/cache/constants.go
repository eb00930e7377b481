package cache

import "time"

// Default cache sizing and TTLs
const (
	// DefaultMaxSize bounds the shared identity cache
	DefaultMaxSize = 1000

	// SweepInterval is how often the scheduler sweeps expired entries
	SweepInterval = 5 * time.Minute

	// UserDataTTL is how long Discord user data stays cached
	UserDataTTL = 30 * time.Minute

	// UserGuildsTTL is how long a user's guild list stays cached
	UserGuildsTTL = 30 * time.Minute

	// ProfileTTL is how long a Roblox profile lookup stays cached
	ProfileTTL = 15 * time.Minute

	// OAuthStateTTL bounds how long an OAuth state/verifier stays valid
	OAuthStateTTL = 10 * time.Minute

	// BotGuildsTTL is how long the bot guild snapshot stays cached
	BotGuildsTTL = 10 * time.Minute
)

// Outbound Roblox API rate limits (per endpoint key, sliding window)
const (
	// RobloxAPILimit is the number of calls allowed per window
	RobloxAPILimit = 50

	// RobloxAPIWindow is the sliding window duration
	RobloxAPIWindow = time.Minute
)

// Rate limiter endpoint keys
const (
	EndpointProfile    = "roblox:profile"
	EndpointGroupRoles = "roblox:group_roles"
	EndpointGroupInfo  = "roblox:group_info"
)
