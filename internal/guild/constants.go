package guild

import "time"

const (
	// CallQueueSize buffers mutations waiting for the dispatch loop
	CallQueueSize = 64

	// CallTimeout bounds how long a caller waits for a queued mutation
	CallTimeout = 15 * time.Second
)

// Error messages
const (
	ErrMsgNotReady     = "bot is not connected to the gateway"
	ErrMsgProviderDown = "guild provider is not running"
)

// Log messages
const (
	LogMsgProviderStarted = "Guild provider started"
	LogMsgProviderStopped = "Guild provider stopped"
	LogMsgGuildTracked    = "Guild tracked"
	LogMsgGuildDropped    = "Guild dropped"
	LogMsgCallFailed      = "Guild mutation failed"
)
