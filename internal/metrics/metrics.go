package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Business Metrics
var (
	MembersJoined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameMembersJoined,
			Help: HelpTextMembersJoined,
		},
	)

	MembersLeft = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameMembersLeft,
			Help: HelpTextMembersLeft,
		},
	)

	GuildsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameGuildsAdded,
			Help: HelpTextGuildsAdded,
		},
	)

	GuildsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameGuildsRemoved,
			Help: HelpTextGuildsRemoved,
		},
	)

	ReconcilesRequested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameReconcileRequested,
			Help: HelpTextReconcileRequested,
		},
		[]string{LabelSource},
	)

	MembersSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameMembersSynced,
			Help: HelpTextMembersSynced,
		},
	)

	SyncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameSyncFailures,
			Help: HelpTextSyncFailures,
		},
	)

	RolesAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRolesAssigned,
			Help: HelpTextRolesAssigned,
		},
	)

	RolesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameRolesRemoved,
			Help: HelpTextRolesRemoved,
		},
	)

	NicknamesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameNicknamesUpdated,
			Help: HelpTextNicknamesUpdated,
		},
	)

	AccountsLinked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameAccountsLinked,
			Help: HelpTextAccountsLinked,
		},
	)

	LinkPromptsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameLinkPromptsSent,
			Help: HelpTextLinkPromptsSent,
		},
	)
)
