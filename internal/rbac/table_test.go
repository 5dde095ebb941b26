package rbac

import "testing"

func TestDefaultTableGrants(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleAdmin, ActionBlogPublish, true},
		{RoleAdmin, ActionSettingsEdit, true},
		{RoleAdmin, ActionAuditRead, true},
		{RoleContentManager, ActionBlogPublish, true},
		{RoleContentManager, ActionBlogArchive, true},
		{RoleContentManager, ActionProjectUnpublish, true},
		{RoleContentManager, ActionSettingsEdit, true},
		{RoleContentManager, ActionJobOpen, false},
		{RoleContentManager, ActionAuditRead, false},
		{RoleEditor, ActionBlogSubmit, true},
		{RoleEditor, ActionBlogPublish, false},
		{RoleEditor, ActionSettingsEdit, false},
		{RoleHRManager, ActionJobOpen, true},
		{RoleHRManager, ActionJobClose, true},
		{RoleHRManager, ActionJobArchive, true},
		{RoleHRManager, ActionBlogPublish, false},
		{RoleViewer, ActionBlogSubmit, false},
		{RoleViewer, ActionContentCreate, false},
	}
	for _, tt := range tests {
		if got := table.Allows(tt.role, tt.action); got != tt.want {
			t.Fatalf("Allows(%s, %s)=%v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}

func TestUnknownActionDeniesEveryone(t *testing.T) {
	table := DefaultTable()
	if table.Allows(RoleAdmin, Action("content.delete")) {
		t.Fatalf("unknown action must deny admin")
	}
	if table.Allows(RoleViewer, Action("")) {
		t.Fatalf("empty action must deny")
	}
}

func TestUnknownRoleDenies(t *testing.T) {
	table := DefaultTable()
	if table.Allows(Role("superuser"), ActionBlogSubmit) {
		t.Fatalf("unknown role must deny")
	}
}

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{" Editor ", RoleEditor, true},
		{"hr", RoleHRManager, true},
		{"hr_manager", RoleHRManager, true},
		{"content_manager", RoleContentManager, true},
		{"viewer", RoleViewer, true},
		{"superuser", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeRole(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("NormalizeRole(%q)=(%q,%v), want (%q,%v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolveRole(t *testing.T) {
	if got := ResolveRole(nil); got != RoleViewer {
		t.Fatalf("ResolveRole(nil)=%s, want viewer", got)
	}
	if got := ResolveRole([]string{"unknown", "bot"}); got != RoleViewer {
		t.Fatalf("unrecognized claims must resolve to viewer, got %s", got)
	}
	if got := ResolveRole([]string{"editor", "hr"}); got != RoleHRManager {
		t.Fatalf("ResolveRole(editor,hr)=%s, want hr_manager", got)
	}
	if got := ResolveRole([]string{"viewer", "content_manager", "editor"}); got != RoleContentManager {
		t.Fatalf("ResolveRole=%s, want content_manager", got)
	}
	if got := ResolveRole([]string{"hr_manager", "admin"}); got != RoleAdmin {
		t.Fatalf("ResolveRole=%s, want admin", got)
	}
}

func TestAtLeast(t *testing.T) {
	if !AtLeast([]string{"viewer"}, RoleViewer) {
		t.Fatalf("viewer should satisfy viewer")
	}
	if AtLeast([]string{"viewer"}, RoleEditor) {
		t.Fatalf("viewer should not satisfy editor")
	}
	if !AtLeast([]string{"admin"}, RoleContentManager) {
		t.Fatalf("admin should satisfy content_manager")
	}
	if AtLeast([]string{"editor"}, Role("superuser")) {
		t.Fatalf("unknown required role must not be satisfiable")
	}
}
