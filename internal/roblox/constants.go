package roblox

import "time"

// Roblox API base URLs, overridable in tests
const (
	DefaultUsersBaseURL      = "https://users.roblox.com"
	DefaultGroupsBaseURL     = "https://groups.roblox.com"
	DefaultThumbnailsBaseURL = "https://thumbnails.roblox.com"

	AuthURL     = "https://apis.roblox.com/oauth/v1/authorize"
	TokenURL    = "https://apis.roblox.com/oauth/v1/token"
	UserInfoURL = "https://apis.roblox.com/oauth/v1/userinfo"
)

const (
	// RequestTimeout bounds every outbound Roblox call
	RequestTimeout = 10 * time.Second

	// GroupCacheSize bounds the group metadata cache used during setup
	GroupCacheSize = 256

	// GroupCacheTTL is how long group metadata stays cached
	GroupCacheTTL = 10 * time.Minute
)

// Error messages
const (
	ErrMsgProfileLookupFailed    = "failed to fetch Roblox profile"
	ErrMsgGroupRolesLookupFailed = "failed to fetch Roblox group roles"
	ErrMsgGroupLookupFailed      = "failed to fetch Roblox group"
	ErrMsgTokenExchangeFailed    = "failed to exchange code for token"
	ErrMsgUserInfoFailed         = "failed to fetch Roblox user info"
)

// Log messages
const (
	LogMsgProfileCacheHit   = "Roblox profile served from cache"
	LogMsgProfileFallback   = "Roblox profile lookup failed, using cached value"
	LogMsgRateLimited       = "Roblox API call rate limited"
	LogMsgGroupRolesFetched = "Roblox group roles fetched"
)
