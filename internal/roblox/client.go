package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
)

// Client calls the public Roblox web APIs. Profile lookups are cached with
// a stale fallback so reconciliation survives Roblox outages; group metadata
// (setup-time only) sits behind a small expiring LRU.
type Client struct {
	http    *http.Client
	cache   *cache.Cache
	limiter *cache.RateLimiter

	groupCache *expirable.LRU[string, *groupEntry]

	usersBaseURL      string
	groupsBaseURL     string
	thumbnailsBaseURL string
}

type groupEntry struct {
	Info  domain.GroupInfo
	Roles []domain.GroupRole
}

// Option customizes a Client, primarily for tests
type Option func(*Client)

// WithBaseURLs overrides the Roblox API hosts
func WithBaseURLs(users, groups, thumbnails string) Option {
	return func(c *Client) {
		c.usersBaseURL = users
		c.groupsBaseURL = groups
		c.thumbnailsBaseURL = thumbnails
	}
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient creates a Roblox API client backed by the shared cache and
// rate limiter
func NewClient(dataCache *cache.Cache, limiter *cache.RateLimiter, opts ...Option) *Client {
	c := &Client{
		http:              &http.Client{Timeout: RequestTimeout},
		cache:             dataCache,
		limiter:           limiter,
		groupCache:        expirable.NewLRU[string, *groupEntry](GroupCacheSize, nil, GroupCacheTTL),
		usersBaseURL:      DefaultUsersBaseURL,
		groupsBaseURL:     DefaultGroupsBaseURL,
		thumbnailsBaseURL: DefaultThumbnailsBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type userResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// GetProfile fetches a user's profile. A fresh result is cached; when the
// remote call fails or is rate limited, a previously cached profile is
// returned instead so nickname sync keeps working.
func (c *Client) GetProfile(ctx context.Context, robloxID string) (*domain.RobloxProfile, error) {
	log := logger.FromContext(ctx)
	key := cache.ProfileKey(robloxID)

	if !c.limiter.Allow(cache.EndpointProfile, cache.RobloxAPILimit, cache.RobloxAPIWindow) {
		if cached, ok := c.cache.Get(key); ok {
			log.Debug(LogMsgProfileCacheHit, "roblox_id", robloxID)
			return cached.(*domain.RobloxProfile), nil
		}
		log.Warn(LogMsgRateLimited, "endpoint", cache.EndpointProfile)
		return nil, domain.ErrRateLimited
	}

	var u userResponse
	err := c.getJSON(ctx, fmt.Sprintf("%s/v1/users/%s", c.usersBaseURL, robloxID), &u)
	if err != nil {
		if cached, ok := c.cache.Get(key); ok {
			log.Warn(LogMsgProfileFallback, "roblox_id", robloxID, "error", err)
			return cached.(*domain.RobloxProfile), nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgProfileLookupFailed, err)
	}

	profile := &domain.RobloxProfile{
		Username:    u.Name,
		DisplayName: u.DisplayName,
	}
	c.cache.Set(key, profile, cache.ProfileTTL)
	return profile, nil
}

type groupRolesResponse struct {
	Data []struct {
		Group struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"group"`
		Role struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Rank int    `json:"rank"`
		} `json:"role"`
	} `json:"data"`
}

// GetUserGroupRoles lists every group the user belongs to with their role.
// The caller filters for the configured group; an empty slice means the
// user is in no groups.
func (c *Client) GetUserGroupRoles(ctx context.Context, robloxID string) ([]domain.GroupMembership, error) {
	if !c.limiter.Allow(cache.EndpointGroupRoles, cache.RobloxAPILimit, cache.RobloxAPIWindow) {
		return nil, domain.ErrRateLimited
	}

	var resp groupRolesResponse
	url := fmt.Sprintf("%s/v1/users/%s/groups/roles", c.groupsBaseURL, robloxID)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgGroupRolesLookupFailed, err)
	}

	memberships := make([]domain.GroupMembership, 0, len(resp.Data))
	for _, d := range resp.Data {
		memberships = append(memberships, domain.GroupMembership{
			GroupID:   strconv.FormatInt(d.Group.ID, 10),
			GroupName: d.Group.Name,
			RoleID:    strconv.FormatInt(d.Role.ID, 10),
			RoleName:  d.Role.Name,
			RoleRank:  d.Role.Rank,
		})
	}
	return memberships, nil
}

// MembershipIn returns the user's role in one specific group, or nil when
// the user is not a member.
func (c *Client) MembershipIn(ctx context.Context, robloxID, groupID string) (*domain.GroupMembership, error) {
	memberships, err := c.GetUserGroupRoles(ctx, robloxID)
	if err != nil {
		return nil, err
	}
	for i := range memberships {
		if memberships[i].GroupID == groupID {
			return &memberships[i], nil
		}
	}
	return nil, nil
}

type groupResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       *struct {
		Username string `json:"username"`
	} `json:"owner"`
	MemberCount int `json:"memberCount"`
}

type groupRoleListResponse struct {
	Roles []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Rank int    `json:"rank"`
	} `json:"roles"`
}

// GetGroup fetches group metadata and its rank list. Used by the setup
// wizard; results sit in the expiring group cache.
func (c *Client) GetGroup(ctx context.Context, groupID string) (*domain.GroupInfo, []domain.GroupRole, error) {
	if entry, ok := c.groupCache.Get(groupID); ok {
		return &entry.Info, entry.Roles, nil
	}

	if !c.limiter.Allow(cache.EndpointGroupInfo, cache.RobloxAPILimit, cache.RobloxAPIWindow) {
		return nil, nil, domain.ErrRateLimited
	}

	var g groupResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v1/groups/%s", c.groupsBaseURL, groupID), &g); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgGroupLookupFailed, err)
	}

	var rl groupRoleListResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v1/groups/%s/roles", c.groupsBaseURL, groupID), &rl); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgGroupLookupFailed, err)
	}

	info := domain.GroupInfo{
		ID:          strconv.FormatInt(g.ID, 10),
		Name:        g.Name,
		Description: g.Description,
		MemberCount: g.MemberCount,
	}
	if g.Owner != nil {
		info.Owner = g.Owner.Username
	}

	roles := make([]domain.GroupRole, 0, len(rl.Roles))
	for _, role := range rl.Roles {
		roles = append(roles, domain.GroupRole{
			ID:   strconv.FormatInt(role.ID, 10),
			Name: role.Name,
			Rank: role.Rank,
		})
	}

	c.groupCache.Add(groupID, &groupEntry{Info: info, Roles: roles})
	return &info, roles, nil
}

type thumbnailResponse struct {
	Data []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

// GetAvatarURL fetches a headshot thumbnail URL. Best effort: any failure
// returns an empty string.
func (c *Client) GetAvatarURL(ctx context.Context, robloxID string) string {
	url := fmt.Sprintf("%s/v1/users/avatar-headshot?userIds=%s&size=150x150&format=Png&isCircular=false",
		c.thumbnailsBaseURL, robloxID)

	var resp thumbnailResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return ""
	}
	if len(resp.Data) == 0 {
		return ""
	}
	return resp.Data[0].ImageURL
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrExternalServiceUnavailable, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
