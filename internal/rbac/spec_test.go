package rbac

import (
	"strings"
	"testing"
)

func TestParseTable(t *testing.T) {
	input := []byte(`
schema: atrium.rbac.v1
grants:
  - role: admin
    actions: ["*"]
  - role: editor
    actions:
      - blog_post.submit
  - role: hr
    actions:
      - job_listing.open
      - job_listing.close
`)
	table, err := ParseTable(input)
	if err != nil {
		t.Fatalf("ParseTable() err=%v", err)
	}
	if !table.Allows(RoleAdmin, ActionSettingsEdit) {
		t.Fatalf("wildcard grant must cover settings.edit")
	}
	if !table.Allows(RoleEditor, ActionBlogSubmit) {
		t.Fatalf("editor must hold blog_post.submit")
	}
	if table.Allows(RoleEditor, ActionBlogPublish) {
		t.Fatalf("editor must not hold blog_post.publish")
	}
	if !table.Allows(RoleHRManager, ActionJobOpen) {
		t.Fatalf("hr alias must map to hr_manager")
	}
	// Roles a capability spec omits hold nothing.
	if table.Allows(RoleContentManager, ActionBlogPublish) {
		t.Fatalf("omitted role must deny")
	}
}

func TestParseTableRejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "wrong schema",
			input: "schema: atrium.rbac.v2\ngrants:\n  - role: admin\n    actions: [\"*\"]\n",
			want:  "schema",
		},
		{
			name:  "no grants",
			input: "schema: atrium.rbac.v1\ngrants: []\n",
			want:  "non-empty",
		},
		{
			name:  "unknown role",
			input: "schema: atrium.rbac.v1\ngrants:\n  - role: superuser\n    actions: [\"*\"]\n",
			want:  "role unknown",
		},
		{
			name:  "duplicate role",
			input: "schema: atrium.rbac.v1\ngrants:\n  - role: editor\n    actions: [\"*\"]\n  - role: editor\n    actions: [\"*\"]\n",
			want:  "duplicated",
		},
		{
			name:  "unknown action",
			input: "schema: atrium.rbac.v1\ngrants:\n  - role: editor\n    actions: [\"blog_post.delete\"]\n",
			want:  "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.input))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err=%q, want substring %q", err.Error(), tt.want)
			}
		})
	}
}
