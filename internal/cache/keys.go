package cache

import "fmt"

// Key prefixes keep cache namespaces from colliding across concerns.
const (
	prefixUser       = "user"
	prefixUserGuilds = "user_guilds"
	prefixProfile    = "roblox_profile"
	prefixOAuthState = "oauth_state"
	prefixBotGuilds  = "bot_guilds"
)

// UserKey caches Discord user data fetched with a user's OAuth token.
func UserKey(discordID string) string {
	return fmt.Sprintf("%s:%s", prefixUser, discordID)
}

// UserGuildsKey caches the guild list visible to a user's OAuth token.
func UserGuildsKey(discordID string) string {
	return fmt.Sprintf("%s:%s", prefixUserGuilds, discordID)
}

// ProfileKey caches a Roblox profile lookup by Roblox user id.
func ProfileKey(robloxID string) string {
	return fmt.Sprintf("%s:%s", prefixProfile, robloxID)
}

// OAuthStateKey caches PKCE verifiers and user state for an OAuth flow.
func OAuthStateKey(state string) string {
	return fmt.Sprintf("%s:%s", prefixOAuthState, state)
}

// BotGuildsKey caches the bot's own guild list snapshot.
func BotGuildsKey() string {
	return prefixBotGuilds
}
