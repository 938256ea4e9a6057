// Package authz decides whether a user may perform an action. Every check is
// a pure function over the subject's in-memory state: no I/O, no errors, and
// a missing or malformed input always resolves to deny.
package authz

type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
)

// ValidRole reports whether r is one of the known privilege tiers.
func ValidRole(r Role) bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleUser
}

// Action is the intent behind an edit-permission check. Current policy does
// not distinguish between them, but call sites state their intent so a future
// policy split does not touch them.
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// TabGrant is a per-section permission: whether the subject may see and
// whether they may change the section identified by TabID.
type TabGrant struct {
	TabID   string `json:"tabId"`
	CanView bool   `json:"canView"`
	CanEdit bool   `json:"canEdit"`
}

type PermissionSet struct {
	CanCreateGroups bool       `json:"canCreateGroups"`
	CanManageUsers  bool       `json:"canManageUsers"`
	TabGrants       []TabGrant `json:"tabPermissions"`
}

// Subject is the authorization view of a user. Services build it from their
// own user records; the evaluator never loads anything itself.
type Subject struct {
	ID          int64
	Name        string
	Role        Role
	Blocked     bool
	Permissions PermissionSet
}

// HasEditPermission reports whether the subject may create, edit or delete
// records. Policy is admin-or-above for all three actions; the action
// parameter does not currently discriminate.
func HasEditPermission(s *Subject, _ Action) bool {
	if s == nil || s.Blocked {
		return false
	}
	return s.Role == RoleAdmin || s.Role == RoleSuperAdmin
}

func IsSuperAdmin(s *Subject) bool {
	if s == nil || s.Blocked {
		return false
	}
	return s.Role == RoleSuperAdmin
}

// CanAccessTab reports whether the subject may view the given section.
// Superadmins see everything; everyone else needs an explicit grant.
// An unmatched section resolves to deny, never to allow.
func CanAccessTab(s *Subject, tabID string) bool {
	if s == nil || s.Blocked {
		return false
	}
	if s.Role == RoleSuperAdmin {
		return true
	}
	if grant, ok := findGrant(s.Permissions.TabGrants, tabID); ok {
		return grant.CanView
	}
	return false
}

// CanEditSection reports whether the subject may change the given section.
// Role takes precedence over grants: admins and superadmins bypass the
// per-section CanEdit flag entirely.
func CanEditSection(s *Subject, tabID string) bool {
	if s == nil || s.Blocked {
		return false
	}
	if s.Role == RoleSuperAdmin || s.Role == RoleAdmin {
		return true
	}
	if grant, ok := findGrant(s.Permissions.TabGrants, tabID); ok {
		return grant.CanEdit
	}
	return false
}

func CanManageUsers(s *Subject) bool {
	if s == nil || s.Blocked {
		return false
	}
	if s.Role == RoleSuperAdmin {
		return true
	}
	return s.Permissions.CanManageUsers
}

func CanCreateGroups(s *Subject) bool {
	if s == nil || s.Blocked {
		return false
	}
	if s.Role == RoleSuperAdmin {
		return true
	}
	return s.Permissions.CanCreateGroups
}

// findGrant returns the first grant matching tabID. First match wins so that
// a duplicated identifier cannot widen access later in the list.
func findGrant(grants []TabGrant, tabID string) (TabGrant, bool) {
	for _, g := range grants {
		if g.TabID == tabID {
			return g, true
		}
	}
	return TabGrant{}, false
}
