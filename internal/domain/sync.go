package domain

// ReconciliationResult summarizes the changes one Reconcile call applied.
// It is returned to the caller for notification rendering and never persisted.
type ReconciliationResult struct {
	NicknameUpdated   string   `json:"nickname_updated,omitempty"`
	RolesAdded        []string `json:"roles_added,omitempty"`
	RolesRemoved      []string `json:"roles_removed,omitempty"`
	GroupRolesAdded   []string `json:"group_roles_added,omitempty"`
	GroupRolesRemoved []string `json:"group_roles_removed,omitempty"`
}

// Empty reports whether the reconciliation produced no changes.
// A second Reconcile against unchanged external state must return an
// empty result.
func (r ReconciliationResult) Empty() bool {
	return r.NicknameUpdated == "" &&
		len(r.RolesAdded) == 0 &&
		len(r.RolesRemoved) == 0 &&
		len(r.GroupRolesAdded) == 0 &&
		len(r.GroupRolesRemoved) == 0
}

// GroupMembership is a user's role within one Roblox group,
// as reported by the group-membership lookup.
type GroupMembership struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	RoleID    string `json:"role_id"`
	RoleName  string `json:"role_name"`
	RoleRank  int    `json:"role_rank"`
}

// RobloxProfile is the result of a remote profile lookup.
type RobloxProfile struct {
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
}

// GroupInfo is Roblox group metadata, used during setup only.
type GroupInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	MemberCount int    `json:"member_count,omitempty"`
}

// GroupRole is a single rank within a Roblox group.
type GroupRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}
