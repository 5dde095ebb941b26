package rbac

import "strings"

// Role is the strongly-typed editorial role of an acting identity. Roles are
// resolved once at the request boundary; the core never re-derives them.
type Role string

const (
	RoleViewer         Role = "viewer"
	RoleEditor         Role = "editor"
	RoleHRManager      Role = "hr_manager"
	RoleContentManager Role = "content_manager"
	RoleAdmin          Role = "admin"
)

// Action is an atomic capability checked against the permission table.
type Action string

const (
	ActionBlogSubmit       Action = "blog_post.submit"
	ActionBlogPublish      Action = "blog_post.publish"
	ActionBlogArchive      Action = "blog_post.archive"
	ActionJobOpen          Action = "job_listing.open"
	ActionJobClose         Action = "job_listing.close"
	ActionJobArchive       Action = "job_listing.archive"
	ActionProjectPublish   Action = "project.publish"
	ActionProjectUnpublish Action = "project.unpublish"
	ActionContentCreate    Action = "content.create"
	ActionSettingsEdit     Action = "settings.edit"
	ActionAuditRead        Action = "audit.read"
)

var allActions = []Action{
	ActionBlogSubmit,
	ActionBlogPublish,
	ActionBlogArchive,
	ActionJobOpen,
	ActionJobClose,
	ActionJobArchive,
	ActionProjectPublish,
	ActionProjectUnpublish,
	ActionContentCreate,
	ActionSettingsEdit,
	ActionAuditRead,
}

// rolePrecedence orders roles from least to most privileged, used only to
// collapse multi-role identity claims to a single acting role.
var rolePrecedence = map[Role]int{
	RoleViewer:         1,
	RoleEditor:         2,
	RoleHRManager:      3,
	RoleContentManager: 4,
	RoleAdmin:          5,
}

// Table is an immutable role -> capability mapping. It is built once at
// startup and passed by value into everything that needs authorization
// decisions; unknown roles and unknown actions always deny.
type Table struct {
	grants map[Role]map[Action]struct{}
}

func newTable(grants map[Role][]Action) Table {
	out := make(map[Role]map[Action]struct{}, len(grants))
	for role, actions := range grants {
		set := make(map[Action]struct{}, len(actions))
		for _, action := range actions {
			set[action] = struct{}{}
		}
		out[role] = set
	}
	return Table{grants: out}
}

// DefaultTable returns the built-in capability table.
func DefaultTable() Table {
	return newTable(map[Role][]Action{
		RoleAdmin: allActions,
		RoleContentManager: {
			ActionBlogSubmit,
			ActionBlogPublish,
			ActionBlogArchive,
			ActionProjectPublish,
			ActionProjectUnpublish,
			ActionContentCreate,
			ActionSettingsEdit,
		},
		RoleEditor: {
			ActionBlogSubmit,
			ActionContentCreate,
		},
		RoleHRManager: {
			ActionJobOpen,
			ActionJobClose,
			ActionJobArchive,
			ActionContentCreate,
		},
		RoleViewer: {},
	})
}

// Allows reports whether the role holds the capability. Unknown actions
// deny for every role, admin included.
func (t Table) Allows(role Role, action Action) bool {
	if !knownAction(action) {
		return false
	}
	set, ok := t.grants[role]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// Roles returns the roles the table grants capabilities to.
func (t Table) Roles() []Role {
	out := make([]Role, 0, len(t.grants))
	for role := range t.grants {
		out = append(out, role)
	}
	return out
}

func knownAction(action Action) bool {
	for _, candidate := range allActions {
		if candidate == action {
			return true
		}
	}
	return false
}

// NormalizeRole maps a raw role claim to a Role. "hr" is accepted as an
// alias for hr_manager.
func NormalizeRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "viewer":
		return RoleViewer, true
	case "editor":
		return RoleEditor, true
	case "hr", "hr_manager":
		return RoleHRManager, true
	case "content_manager":
		return RoleContentManager, true
	case "admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

// ResolveRole collapses an identity's role claims to the single strongest
// recognized role. Identities with no recognized role act as viewers.
func ResolveRole(claims []string) Role {
	resolved := RoleViewer
	for _, claim := range claims {
		role, ok := NormalizeRole(claim)
		if !ok {
			continue
		}
		if rolePrecedence[role] > rolePrecedence[resolved] {
			resolved = role
		}
	}
	return resolved
}

// AtLeast reports whether any of the raw role claims resolves to a role of
// at least the required precedence. Used for coarse transport-level gating;
// fine-grained checks go through Allows.
func AtLeast(claims []string, required Role) bool {
	requiredLevel, ok := rolePrecedence[required]
	if !ok {
		return false
	}
	return rolePrecedence[ResolveRole(claims)] >= requiredLevel
}
