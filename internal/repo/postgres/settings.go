package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/repo"
)

const selectSettingsQuery = `SELECT key, value, category, updated_at, updated_by
	FROM site_settings
	ORDER BY category, key`

// updateSettingQuery touches only the addressed row. A key that matches no
// row affects nothing; the caller decides what that means.
const updateSettingQuery = `UPDATE site_settings
	SET value = $1,
		updated_at = $2,
		updated_by = $3
	WHERE key = $4`

const seedSettingQuery = `INSERT INTO site_settings (
	key,
	value,
	category,
	updated_at,
	updated_by
) VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (key) DO NOTHING`

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	if db == nil {
		return nil
	}
	return &SettingsStore{db: db}
}

func (s *SettingsStore) List(ctx context.Context) ([]domain.Setting, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("settings store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, selectSettingsQuery)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make([]domain.Setting, 0)
	for rows.Next() {
		var (
			setting   domain.Setting
			category  string
			updatedBy sql.NullString
		)
		if err := rows.Scan(&setting.Key, &setting.Value, &category, &setting.UpdatedAt, &updatedBy); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		setting.Category = domain.SettingCategory(category)
		setting.UpdatedBy = strings.TrimSpace(updatedBy.String)
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsStore) ApplyBatch(ctx context.Context, actor string, updates []repo.SettingUpdate, at time.Time) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("settings store not initialized")
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, fmt.Errorf("actor is required")
	}
	if len(updates) == 0 {
		return []string{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settings batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	at = normalizeTime(at)
	matched := make([]string, 0, len(updates))
	for _, update := range updates {
		key := strings.TrimSpace(update.Key)
		if key == "" {
			return nil, fmt.Errorf("setting key is required")
		}
		res, err := tx.ExecContext(ctx, updateSettingQuery, update.Value, at, actor, key)
		if err != nil {
			return nil, fmt.Errorf("update setting %q: %w", key, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("update setting %q: %w", key, err)
		}
		if affected > 0 {
			matched = append(matched, key)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settings batch: %w", err)
	}
	return matched, nil
}

func (s *SettingsStore) Seed(ctx context.Context, defaults []domain.Setting) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("settings store not initialized")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, setting := range defaults {
		if err := setting.Validate(); err != nil {
			return err
		}
		updatedAt := setting.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = now
		}
		if _, err := tx.ExecContext(
			ctx,
			seedSettingQuery,
			strings.TrimSpace(setting.Key),
			setting.Value,
			string(setting.Category),
			updatedAt.UTC(),
			nullIfEmpty(setting.UpdatedBy),
		); err != nil {
			return fmt.Errorf("seed setting %q: %w", setting.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings seed: %w", err)
	}
	return nil
}
