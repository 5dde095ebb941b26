package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/repo"
)

type fakeSettingsRepo struct {
	rows map[string]domain.Setting

	failOnKey string
	calls     int
}

func newFakeSettingsRepo(rows ...domain.Setting) *fakeSettingsRepo {
	out := &fakeSettingsRepo{rows: map[string]domain.Setting{}}
	for _, row := range rows {
		out.rows[row.Key] = row
	}
	return out
}

func (f *fakeSettingsRepo) List(ctx context.Context) ([]domain.Setting, error) {
	out := make([]domain.Setting, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeSettingsRepo) ApplyBatch(ctx context.Context, actor string, updates []repo.SettingUpdate, at time.Time) ([]string, error) {
	f.calls++
	// All-or-nothing: stage first, commit only if every write succeeds.
	staged := make(map[string]domain.Setting, len(updates))
	applied := make([]string, 0, len(updates))
	for _, update := range updates {
		if update.Key == f.failOnKey {
			return nil, errors.New("write failed")
		}
		row, ok := f.rows[update.Key]
		if !ok {
			continue
		}
		row.Value = update.Value
		row.UpdatedAt = at
		row.UpdatedBy = actor
		staged[update.Key] = row
		applied = append(applied, update.Key)
	}
	for key, row := range staged {
		f.rows[key] = row
	}
	return applied, nil
}

func (f *fakeSettingsRepo) Seed(ctx context.Context, defaults []domain.Setting) error {
	for _, row := range defaults {
		if _, ok := f.rows[row.Key]; !ok {
			f.rows[row.Key] = row
		}
	}
	return nil
}

func TestApplyBatchUpdatesMatchedRowsOnly(t *testing.T) {
	store := newFakeSettingsRepo(
		domain.Setting{Key: "company_name", Value: "Old", Category: domain.SettingCategoryCompany},
		domain.Setting{Key: "meta_title", Value: "Untitled", Category: domain.SettingCategorySEO},
	)
	mgr := NewManager(store, nil)
	mgr.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	err := mgr.ApplyBatch(context.Background(), "admin-1", map[string]map[string]string{
		"company": {"company_name": "Acme"},
		"seo":     {"unknown_key": "x"},
	})
	if err != nil {
		t.Fatalf("ApplyBatch() err=%v", err)
	}

	got := store.rows["company_name"]
	if got.Value != "Acme" || got.UpdatedBy != "admin-1" {
		t.Fatalf("company_name row: %+v", got)
	}
	if !got.UpdatedAt.Equal(time.Unix(1700000000, 0).UTC()) {
		t.Fatalf("updated_at not stamped: %v", got.UpdatedAt)
	}
	// The unmatched key is ignored; untouched rows stay byte-identical.
	if store.rows["meta_title"].Value != "Untitled" || !store.rows["meta_title"].UpdatedAt.IsZero() {
		t.Fatalf("meta_title row must be untouched: %+v", store.rows["meta_title"])
	}
	if _, ok := store.rows["unknown_key"]; ok {
		t.Fatalf("unknown key must not create a row")
	}
}

func TestApplyBatchEmptyValueIsLegal(t *testing.T) {
	store := newFakeSettingsRepo(
		domain.Setting{Key: "site_tagline", Value: "old", Category: domain.SettingCategoryGeneral},
	)
	mgr := NewManager(store, nil)
	if err := mgr.ApplyBatch(context.Background(), "admin-1", map[string]map[string]string{
		"general": {"site_tagline": ""},
	}); err != nil {
		t.Fatalf("ApplyBatch() err=%v", err)
	}
	if store.rows["site_tagline"].Value != "" {
		t.Fatalf("empty value must be written")
	}
}

func TestApplyBatchValidation(t *testing.T) {
	store := newFakeSettingsRepo()
	mgr := NewManager(store, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor string
		batch map[string]map[string]string
	}{
		{"empty actor", " ", map[string]map[string]string{"general": {"k": "v"}}},
		{"nil batch", "admin-1", nil},
		{"empty batch", "admin-1", map[string]map[string]string{}},
		{"unknown category", "admin-1", map[string]map[string]string{"secrets": {"k": "v"}}},
		{"empty key", "admin-1", map[string]map[string]string{"general": {" ": "v"}}},
		{"categories without keys", "admin-1", map[string]map[string]string{"general": {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mgr.ApplyBatch(ctx, tt.actor, tt.batch)
			if !errors.Is(err, ErrInvalidBatch) {
				t.Fatalf("err=%v, want ErrInvalidBatch", err)
			}
		})
	}
	if store.calls != 0 {
		t.Fatalf("invalid batches must never reach storage, calls=%d", store.calls)
	}
}

func TestApplyBatchPropagatesStorageFailure(t *testing.T) {
	store := newFakeSettingsRepo(
		domain.Setting{Key: "company_name", Value: "Old", Category: domain.SettingCategoryCompany},
		domain.Setting{Key: "company_phone", Value: "111", Category: domain.SettingCategoryCompany},
	)
	store.failOnKey = "company_phone"
	mgr := NewManager(store, nil)

	err := mgr.ApplyBatch(context.Background(), "admin-1", map[string]map[string]string{
		"company": {"company_name": "Acme", "company_phone": "222"},
	})
	if err == nil {
		t.Fatalf("expected storage error")
	}
	// All-or-nothing: the earlier write in the batch did not land either.
	if store.rows["company_name"].Value != "Old" {
		t.Fatalf("partial batch visible: %+v", store.rows["company_name"])
	}
}

func TestListGroupsByCategory(t *testing.T) {
	store := newFakeSettingsRepo(
		domain.Setting{Key: "company_name", Category: domain.SettingCategoryCompany},
		domain.Setting{Key: "company_phone", Category: domain.SettingCategoryCompany},
		domain.Setting{Key: "meta_title", Category: domain.SettingCategorySEO},
	)
	mgr := NewManager(store, nil)
	grouped, err := mgr.List(context.Background())
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if len(grouped[domain.SettingCategoryCompany]) != 2 {
		t.Fatalf("company group=%d, want 2", len(grouped[domain.SettingCategoryCompany]))
	}
	if len(grouped[domain.SettingCategorySEO]) != 1 {
		t.Fatalf("seo group=%d, want 1", len(grouped[domain.SettingCategorySEO]))
	}
}
