package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Business metric names
const (
	MetricNameMembersJoined      = "guild_members_joined_total"
	MetricNameMembersLeft        = "guild_members_left_total"
	MetricNameGuildsAdded        = "guilds_added_total"
	MetricNameGuildsRemoved      = "guilds_removed_total"
	MetricNameReconcileRequested = "reconciles_requested_total"
	MetricNameMembersSynced      = "members_synced_total"
	MetricNameSyncFailures       = "member_sync_failures_total"
	MetricNameRolesAssigned      = "roles_assigned_total"
	MetricNameRolesRemoved       = "roles_removed_total"
	MetricNameNicknamesUpdated   = "nicknames_updated_total"
	MetricNameAccountsLinked     = "accounts_linked_total"
	MetricNameLinkPromptsSent    = "link_prompts_sent_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Business metric help text
const (
	HelpTextMembersJoined      = "Total number of guild member join events"
	HelpTextMembersLeft        = "Total number of guild member leave events"
	HelpTextGuildsAdded        = "Total number of guilds the bot was added to"
	HelpTextGuildsRemoved      = "Total number of guilds the bot was removed from"
	HelpTextReconcileRequested = "Total number of reconcile requests by source"
	HelpTextMembersSynced      = "Total number of successful member syncs"
	HelpTextSyncFailures       = "Total number of failed member syncs"
	HelpTextRolesAssigned      = "Total number of Discord roles assigned"
	HelpTextRolesRemoved       = "Total number of Discord roles removed"
	HelpTextNicknamesUpdated   = "Total number of nicknames updated"
	HelpTextAccountsLinked     = "Total number of Roblox accounts linked"
	HelpTextLinkPromptsSent    = "Total number of link prompt DMs sent"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelType   = "type"
	LabelSource = "source"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds. These buckets range from 1ms to 10s to capture various latency
// patterns: fast (1-10ms), normal (10-100ms), slow (100ms-1s), very slow (1-10s)
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgBadEventPayload = "Event payload could not be decoded"
)
