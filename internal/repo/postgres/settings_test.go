package postgres

import (
	"strings"
	"testing"
)

func TestUpdateSettingQueryShape(t *testing.T) {
	if !strings.Contains(updateSettingQuery, "WHERE key = $4") {
		t.Fatalf("update must address exactly one key")
	}
	if strings.Contains(strings.ToUpper(updateSettingQuery), "INSERT") {
		t.Fatalf("batch updates must never create rows")
	}
	for _, column := range []string{"updated_at", "updated_by"} {
		if !strings.Contains(updateSettingQuery, column) {
			t.Fatalf("update missing column %q", column)
		}
	}
}

func TestSeedSettingQueryShape(t *testing.T) {
	if !strings.Contains(seedSettingQuery, "ON CONFLICT (key) DO NOTHING") {
		t.Fatalf("seeding must not clobber existing values")
	}
}

func TestSelectSettingsQueryShape(t *testing.T) {
	if !strings.Contains(selectSettingsQuery, "ORDER BY category, key") {
		t.Fatalf("listing must be stable for grouped presentation")
	}
}
