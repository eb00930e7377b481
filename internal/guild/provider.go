package guild

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/disblox/disblox/internal/domain"
	"github.com/disblox/disblox/internal/logger"
)

// Session is the slice of discordgo the provider needs. *discordgo.Session
// satisfies it; tests substitute a fake.
type Session interface {
	GuildMemberNickname(guildID, userID, nickname string, options ...discordgo.RequestOption) error
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
	GuildRoleEdit(guildID, roleID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
	HeartbeatLatency() time.Duration
}

// call is one mutation waiting its turn on the dispatch loop
type call struct {
	fn   func() error
	done chan error
}

// Provider is the single gateway to Discord guild state. Reads serve a
// mutex-guarded snapshot fed by gateway events; every mutation runs on one
// dispatch goroutine so REST writes are strictly ordered.
type Provider struct {
	session Session

	mu          sync.RWMutex
	ready       bool
	guilds      map[string]*discordgo.Guild
	order       []string
	currentUser *discordgo.User
	readyAt     time.Time

	calls    chan *call
	shutdown chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewProvider creates a provider around a Discord session
func NewProvider(session Session) *Provider {
	return &Provider{
		session:  session,
		guilds:   make(map[string]*discordgo.Guild),
		calls:    make(chan *call, CallQueueSize),
		shutdown: make(chan struct{}),
	}
}

// Start launches the dispatch loop
func (p *Provider) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.dispatchLoop(ctx)
	logger.FromContext(ctx).Info(LogMsgProviderStarted)
}

// Stop drains the dispatch loop and blocks until it exits
func (p *Provider) Stop() {
	p.stopOnce.Do(func() {
		close(p.shutdown)
	})
	p.wg.Wait()
}

func (p *Provider) dispatchLoop(ctx context.Context) {
	defer p.wg.Done()
	log := logger.FromContext(ctx)

	for {
		select {
		case <-p.shutdown:
			log.Info(LogMsgProviderStopped)
			return
		case <-ctx.Done():
			log.Info(LogMsgProviderStopped)
			return
		case c := <-p.calls:
			err := c.fn()
			if err != nil {
				log.Warn(LogMsgCallFailed, "error", err)
			}
			c.done <- err
		}
	}
}

// submit queues fn on the dispatch loop and waits for its result
func (p *Provider) submit(ctx context.Context, fn func() error) error {
	select {
	case <-p.shutdown:
		return fmt.Errorf("%s: %w", ErrMsgProviderDown, domain.ErrBotNotReady)
	default:
	}

	c := &call{fn: fn, done: make(chan error, 1)}

	select {
	case p.calls <- c:
	case <-p.shutdown:
		return fmt.Errorf("%s: %w", ErrMsgProviderDown, domain.ErrBotNotReady)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(CallTimeout):
		return fmt.Errorf("%s: %w", ErrMsgProviderDown, domain.ErrBotNotReady)
	}

	select {
	case err := <-c.done:
		return err
	case <-p.shutdown:
		return fmt.Errorf("%s: %w", ErrMsgProviderDown, domain.ErrBotNotReady)
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(CallTimeout):
		return fmt.Errorf("%s: %w", ErrMsgProviderDown, domain.ErrBotNotReady)
	}
}

// SetReady records the gateway session as ready
func (p *Provider) SetReady(user *discordgo.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = true
	p.currentUser = user
	p.readyAt = time.Now()
}

// SetNotReady marks the gateway session as disconnected
func (p *Provider) SetNotReady() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = false
}

// TrackGuild adds or refreshes a guild in the snapshot
func (p *Provider) TrackGuild(g *discordgo.Guild) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, known := p.guilds[g.ID]; !known {
		p.order = append(p.order, g.ID)
	}
	p.guilds[g.ID] = g
}

// DropGuild removes a guild from the snapshot
func (p *Provider) DropGuild(guildID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, known := p.guilds[guildID]; !known {
		return
	}
	delete(p.guilds, guildID)
	for i, id := range p.order {
		if id == guildID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// IsReady reports whether the gateway session is up
func (p *Provider) IsReady() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Guilds returns a copy of the tracked guild list in join order
func (p *Provider) Guilds() []*discordgo.Guild {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*discordgo.Guild, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.guilds[id])
	}
	return out
}

// Guild returns one tracked guild, or ErrGuildNotFound
func (p *Provider) Guild(guildID string) (*discordgo.Guild, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	g, ok := p.guilds[guildID]
	if !ok {
		return nil, domain.ErrGuildNotFound
	}
	return g, nil
}

// CurrentUser returns the bot's own user, nil before ready
func (p *Provider) CurrentUser() *discordgo.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentUser
}

// Latency reports the gateway heartbeat latency
func (p *Provider) Latency() time.Duration {
	return p.session.HeartbeatLatency()
}

// Uptime reports how long the session has been ready, zero before ready
func (p *Provider) Uptime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ready {
		return 0
	}
	return time.Since(p.readyAt)
}

// EditNickname changes a member's nickname
func (p *Provider) EditNickname(ctx context.Context, guildID, userID, nickname string) error {
	return p.submit(ctx, func() error {
		return p.session.GuildMemberNickname(guildID, userID, nickname)
	})
}

// AddRole grants a role to a member
func (p *Provider) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return p.submit(ctx, func() error {
		return p.session.GuildMemberRoleAdd(guildID, userID, roleID)
	})
}

// RemoveRole revokes a role from a member
func (p *Provider) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return p.submit(ctx, func() error {
		return p.session.GuildMemberRoleRemove(guildID, userID, roleID)
	})
}

// CreateRole creates a new guild role with the given name
func (p *Provider) CreateRole(ctx context.Context, guildID, name string) (*discordgo.Role, error) {
	var role *discordgo.Role
	err := p.submit(ctx, func() error {
		var inner error
		role, inner = p.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name})
		return inner
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// EditRole renames an existing guild role
func (p *Provider) EditRole(ctx context.Context, guildID, roleID, name string) (*discordgo.Role, error) {
	var role *discordgo.Role
	err := p.submit(ctx, func() error {
		var inner error
		role, inner = p.session.GuildRoleEdit(guildID, roleID, &discordgo.RoleParams{Name: name})
		return inner
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// FindRole looks a role up by id in the guild snapshot
func (p *Provider) FindRole(guildID, roleID string) (*discordgo.Role, error) {
	g, err := p.Guild(guildID)
	if err != nil {
		return nil, err
	}
	for _, r := range g.Roles {
		if r.ID == roleID {
			return r, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

// FindRoleByName looks a role up by exact name in the guild snapshot
func (p *Provider) FindRoleByName(guildID, name string) (*discordgo.Role, error) {
	g, err := p.Guild(guildID)
	if err != nil {
		return nil, err
	}
	for _, r := range g.Roles {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}
