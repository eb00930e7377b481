package event

// Event schema versioning
const (
	// EventSchemaVersion is the current event schema version
	EventSchemaVersion = "1.0"
)

// Dead letter file configuration
const (
	// DeadLetterSchemaVersion is the schema version for dead letter entries
	DeadLetterSchemaVersion = "1.0"
	// DeadLetterFilePermissions is the file permission mode for dead-letter files
	DeadLetterFilePermissions = 0644
)

// Retry configuration
const (
	// RetryQueueSize bounds the number of events awaiting background retry
	RetryQueueSize = 256
)

// Error message constants
const (
	ErrMsgRetryQueueFull = "retry queue full"
)

// Log message constants
const (
	LogMsgPublishFailed      = "Failed to publish event, initiating async retry"
	LogMsgRetrySucceeded     = "Event published after retry"
	LogMsgRetryFailed        = "Event retry failed"
	LogMsgDeadLettered       = "Event written to dead letter queue"
	LogMsgDeadLetterWriteErr = "Failed to write to dead letter file"

	// Log message for handler errors
	LogMsgHandlerErrorFormat = "encountered %d errors while handling event %s: %v"
)
