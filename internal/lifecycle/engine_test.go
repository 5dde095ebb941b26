package lifecycle

import (
	"testing"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/rbac"
)

var allRoles = []rbac.Role{
	rbac.RoleViewer,
	rbac.RoleEditor,
	rbac.RoleHRManager,
	rbac.RoleContentManager,
	rbac.RoleAdmin,
}

func TestDecideRejectsUndefinedEdgesForEveryRole(t *testing.T) {
	engine := NewEngine(rbac.DefaultTable())

	type edge struct {
		from domain.Status
		to   domain.Status
	}
	defined := map[domain.Kind]map[edge]struct{}{
		domain.KindBlogPost: {
			{domain.StatusDraft, domain.StatusReview}:       {},
			{domain.StatusDraft, domain.StatusArchived}:     {},
			{domain.StatusReview, domain.StatusPublished}:   {},
			{domain.StatusPublished, domain.StatusArchived}: {},
		},
		domain.KindJobListing: {
			{domain.StatusDraft, domain.StatusOpen}:      {},
			{domain.StatusOpen, domain.StatusClosed}:     {},
			{domain.StatusClosed, domain.StatusArchived}: {},
		},
		domain.KindProject: {
			{domain.StatusDraft, domain.StatusPublished}: {},
			{domain.StatusPublished, domain.StatusDraft}: {},
		},
	}

	for kind, edges := range defined {
		for _, from := range domain.Statuses(kind) {
			for _, to := range domain.Statuses(kind) {
				_, isEdge := edges[edge{from, to}]
				for _, role := range allRoles {
					d := engine.Decide(kind, from, to, role)
					if isEdge {
						if !d.Allowed && d.Reason == DenyIllegalTransition {
							t.Fatalf("defined edge %s %s->%s rejected as illegal", kind, from, to)
						}
						continue
					}
					if d.Allowed {
						t.Fatalf("undefined edge %s %s->%s allowed for role %s", kind, from, to, role)
					}
					if d.Reason != DenyIllegalTransition {
						t.Fatalf("undefined edge %s %s->%s: reason=%s, want illegal_transition", kind, from, to, d.Reason)
					}
				}
			}
		}
	}
}

func TestDecideRejectsStatusOutsideKindSet(t *testing.T) {
	engine := NewEngine(rbac.DefaultTable())

	tests := []struct {
		kind domain.Kind
		from domain.Status
		to   domain.Status
	}{
		{domain.KindBlogPost, domain.StatusDraft, domain.StatusOpen},
		{domain.KindJobListing, domain.StatusDraft, domain.StatusReview},
		{domain.KindProject, domain.StatusDraft, domain.StatusArchived},
		{domain.KindBlogPost, domain.StatusDraft, domain.Status("live")},
	}
	for _, tt := range tests {
		for _, role := range allRoles {
			d := engine.Decide(tt.kind, tt.from, tt.to, role)
			if d.Allowed || d.Reason != DenyInvalidStatus {
				t.Fatalf("Decide(%s, %s->%s, %s)=%+v, want invalid_status deny", tt.kind, tt.from, tt.to, role, d)
			}
		}
	}
}

func TestDecideEnforcesElevatedCapabilityOnLegalEdges(t *testing.T) {
	engine := NewEngine(rbac.DefaultTable())

	// Legal edges into elevated statuses deny roles without the capability.
	tests := []struct {
		kind domain.Kind
		from domain.Status
		to   domain.Status
		role rbac.Role
		want bool
	}{
		{domain.KindBlogPost, domain.StatusDraft, domain.StatusReview, rbac.RoleEditor, true},
		{domain.KindBlogPost, domain.StatusReview, domain.StatusPublished, rbac.RoleEditor, false},
		{domain.KindBlogPost, domain.StatusReview, domain.StatusPublished, rbac.RoleContentManager, true},
		{domain.KindBlogPost, domain.StatusReview, domain.StatusPublished, rbac.RoleHRManager, false},
		{domain.KindBlogPost, domain.StatusPublished, domain.StatusArchived, rbac.RoleEditor, false},
		{domain.KindBlogPost, domain.StatusPublished, domain.StatusArchived, rbac.RoleContentManager, true},
		{domain.KindJobListing, domain.StatusDraft, domain.StatusOpen, rbac.RoleHRManager, true},
		{domain.KindJobListing, domain.StatusDraft, domain.StatusOpen, rbac.RoleContentManager, false},
		{domain.KindJobListing, domain.StatusOpen, domain.StatusClosed, rbac.RoleHRManager, true},
		{domain.KindJobListing, domain.StatusOpen, domain.StatusClosed, rbac.RoleEditor, false},
		{domain.KindProject, domain.StatusDraft, domain.StatusPublished, rbac.RoleContentManager, true},
		{domain.KindProject, domain.StatusDraft, domain.StatusPublished, rbac.RoleEditor, false},
		{domain.KindProject, domain.StatusPublished, domain.StatusDraft, rbac.RoleContentManager, true},
		{domain.KindProject, domain.StatusPublished, domain.StatusDraft, rbac.RoleHRManager, false},
		{domain.KindBlogPost, domain.StatusDraft, domain.StatusReview, rbac.RoleViewer, false},
		{domain.KindBlogPost, domain.StatusReview, domain.StatusPublished, rbac.RoleAdmin, true},
	}
	for _, tt := range tests {
		d := engine.Decide(tt.kind, tt.from, tt.to, tt.role)
		if d.Allowed != tt.want {
			t.Fatalf("Decide(%s, %s->%s, %s): allowed=%v, want %v", tt.kind, tt.from, tt.to, tt.role, d.Allowed, tt.want)
		}
		if !tt.want && d.Reason != DenyForbidden {
			t.Fatalf("Decide(%s, %s->%s, %s): reason=%s, want forbidden", tt.kind, tt.from, tt.to, tt.role, d.Reason)
		}
	}
}

func TestDecidePublishedAtDirective(t *testing.T) {
	engine := NewEngine(rbac.DefaultTable())

	d := engine.Decide(domain.KindBlogPost, domain.StatusReview, domain.StatusPublished, rbac.RoleAdmin)
	if !d.Allowed || !d.SetPublishedAt {
		t.Fatalf("entering published must direct a published_at stamp, got %+v", d)
	}

	d = engine.Decide(domain.KindBlogPost, domain.StatusPublished, domain.StatusArchived, rbac.RoleAdmin)
	if !d.Allowed || d.SetPublishedAt {
		t.Fatalf("leaving published must not direct a stamp, got %+v", d)
	}

	d = engine.Decide(domain.KindJobListing, domain.StatusDraft, domain.StatusOpen, rbac.RoleAdmin)
	if !d.Allowed || !d.SetPublishedAt {
		t.Fatalf("job_listing entering open must direct a stamp, got %+v", d)
	}

	d = engine.Decide(domain.KindBlogPost, domain.StatusDraft, domain.StatusReview, rbac.RoleAdmin)
	if !d.Allowed || d.SetPublishedAt {
		t.Fatalf("entering review must not direct a stamp, got %+v", d)
	}

	d = engine.Decide(domain.KindProject, domain.StatusPublished, domain.StatusDraft, rbac.RoleAdmin)
	if !d.Allowed || d.SetPublishedAt {
		t.Fatalf("unpublish must not direct a stamp, got %+v", d)
	}
}

func TestDecideWithNarrowedTable(t *testing.T) {
	// The table is injected configuration: a narrowed table changes decisions
	// without any shared mutable state.
	table, err := rbac.ParseTable([]byte(
		"schema: atrium.rbac.v1\ngrants:\n  - role: editor\n    actions: [\"blog_post.submit\"]\n"))
	if err != nil {
		t.Fatalf("ParseTable() err=%v", err)
	}
	engine := NewEngine(table)

	d := engine.Decide(domain.KindBlogPost, domain.StatusDraft, domain.StatusReview, rbac.RoleEditor)
	if !d.Allowed {
		t.Fatalf("editor submit must be allowed by narrowed table")
	}
	d = engine.Decide(domain.KindBlogPost, domain.StatusReview, domain.StatusPublished, rbac.RoleAdmin)
	if d.Allowed || d.Reason != DenyForbidden {
		t.Fatalf("admin must be denied by a table that grants admin nothing, got %+v", d)
	}
}
