package auth

import "time"

// Discord OAuth endpoints, overridable in tests
const (
	DefaultAuthURL    = "https://discord.com/api/oauth2/authorize"
	DefaultTokenURL   = "https://discord.com/api/oauth2/token"
	DefaultAPIBaseURL = "https://discord.com/api"
)

const (
	// TokenTypeBearer is the token_type reported to clients
	TokenTypeBearer = "bearer"

	// RequestTimeout bounds outbound Discord API calls
	RequestTimeout = 10 * time.Second

	// DiscordTokenTTL is how long an exchanged Discord token stays cached
	DiscordTokenTTL = time.Hour
)

// Outbound Discord API rate limits (sliding window)
const (
	DiscordAPILimit  = 50
	DiscordAPIWindow = time.Minute

	EndpointUserInfo   = "discord:user_info"
	EndpointUserGuilds = "discord:user_guilds"
)

// ManageGuildPermission is the Discord ADMINISTRATOR permission bit used to
// decide which guilds a user can manage from the dashboard
const ManageGuildPermission = 0x8

// Error messages
const (
	ErrMsgTokenExchangeFailed = "failed to exchange code for token"
	ErrMsgUserInfoFailed      = "failed to fetch Discord user"
	ErrMsgGuildsFailed        = "failed to fetch Discord guilds"
	ErrMsgStateMismatch       = "unknown or expired OAuth state"
	ErrMsgNoDiscordToken      = "no Discord token on record"
)

// Log messages
const (
	LogMsgUserLoggedIn      = "User logged in"
	LogMsgSessionRefreshed  = "Session refreshed"
	LogMsgUserLoggedOut     = "User logged out"
	LogMsgGuildsServedCache = "User guilds served from cache"
)
