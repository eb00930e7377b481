package sync

// DefaultGroupRoleNames are tried in order for members outside the
// configured group; the group name itself comes first.
var DefaultGroupRoleNames = []string{"Newcomers", "Member"}

// memberPageSize is the Discord member list page size (API maximum).
const memberPageSize = 1000

// Log messages
const (
	LogMsgReconcileStarted   = "Reconciliation started"
	LogMsgReconcileFinished  = "Reconciliation finished"
	LogMsgNicknameFailed     = "Nickname update failed"
	LogMsgVerifiedRoleFailed = "Verified role update failed"
	LogMsgRoleRemovalFailed  = "Role removal failed"
	LogMsgGroupLookupFailed  = "Group membership lookup failed"
	LogMsgGroupRoleFailed    = "Group role update failed"

	LogMsgMemberSyncFailed      = "Member sync failed"
	LogMsgGuildSyncDone         = "Guild sync finished"
	LogMsgMembershipWriteFailed = "Membership record write failed"

	LogMsgMemberJoined        = "Handling member joined event"
	LogMsgOrphanedUserDeleted = "Deleted orphaned user"
	LogMsgGuildCleanup        = "Cleaning up removed guild"
	LogMsgReconcileRequested  = "Handling reconcile request"
)
