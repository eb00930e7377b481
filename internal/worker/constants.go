package worker

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// ============================================================================
// Log Messages - Mass Sync Worker
// ============================================================================

// Log messages for the periodic whole-guild reconciliation pass
const (
	LogMsgMassSyncStarting   = "Mass sync starting"
	LogMsgMassSyncCompleted  = "Mass sync completed"
	LogMsgMassSyncGuildError = "Mass sync failed for guild"
	LogMsgMassSyncSkipped    = "Mass sync skipped, gateway not ready"
)

// ============================================================================
// Log Messages - Guild Mirror Worker
// ============================================================================

// Log messages for the guild registry mirror
const (
	LogMsgGuildMirrorCompleted = "Guild registry refreshed"
	LogMsgGuildMirrorPruned    = "Pruned stale guild from registry"
	LogMsgGuildMirrorSkipped   = "Guild mirror skipped, gateway not ready"
)

// ============================================================================
// Log Messages - Cache Sweep Worker
// ============================================================================

// LogMsgCacheSweepCompleted is logged after each expired-entry sweep
const LogMsgCacheSweepCompleted = "Cache sweep completed"

// ============================================================================
// Test Configuration
// ============================================================================

// Test pool configuration values used in pool_test.go
const (
	TestWorkerCount           = 2
	TestQueueSize             = 10
	TestExpectedJobCount      = 2
	TestWorkerProcessWaitTime = 100 // milliseconds
)
