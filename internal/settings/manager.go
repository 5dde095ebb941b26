// Package settings applies batched key/value updates to the global settings
// store as single all-or-nothing units of work.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/repo"
)

// ErrInvalidBatch marks a malformed batch. Callers map it to a validation
// error; it is never retried.
var ErrInvalidBatch = errors.New("invalid settings batch")

type Manager struct {
	settings repo.SettingsRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(settings repo.SettingsRepository, logger *slog.Logger) *Manager {
	if settings == nil {
		return nil
	}
	return &Manager{
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// ApplyBatch writes every (category, key, value) triple of the input in one
// storage transaction, stamping updated_by and updated_at on each matched
// row. A key with no matching row affects zero rows and does not abort the
// batch; the dropped keys are logged so typos stay observable. Any write
// failure rolls the whole batch back.
func (m *Manager) ApplyBatch(ctx context.Context, actor string, batch map[string]map[string]string) error {
	if m == nil || m.settings == nil {
		return errors.New("settings manager not initialized")
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return fmt.Errorf("%w: actor is required", ErrInvalidBatch)
	}

	updates, err := flatten(batch)
	if err != nil {
		return err
	}

	applied, err := m.settings.ApplyBatch(ctx, actor, updates, m.now().UTC())
	if err != nil {
		return err
	}

	if dropped := droppedKeys(updates, applied); len(dropped) > 0 && m.logger != nil {
		m.logger.Warn("settings batch ignored unknown keys",
			"actor", actor,
			"keys", strings.Join(dropped, ","),
		)
	}
	return nil
}

// List returns all settings grouped by category.
func (m *Manager) List(ctx context.Context) (map[domain.SettingCategory][]domain.Setting, error) {
	if m == nil || m.settings == nil {
		return nil, errors.New("settings manager not initialized")
	}
	rows, err := m.settings.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.SettingCategory][]domain.Setting)
	for _, row := range rows {
		out[row.Category] = append(out[row.Category], row)
	}
	return out, nil
}

func flatten(batch map[string]map[string]string) ([]repo.SettingUpdate, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("%w: no updates", ErrInvalidBatch)
	}

	categories := make([]string, 0, len(batch))
	for rawCategory := range batch {
		categories = append(categories, rawCategory)
	}
	sort.Strings(categories)

	updates := make([]repo.SettingUpdate, 0, len(batch))
	for _, rawCategory := range categories {
		category, ok := domain.NormalizeSettingCategory(rawCategory)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidBatch, rawCategory)
		}
		entries := batch[rawCategory]
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				return nil, fmt.Errorf("%w: empty key in category %q", ErrInvalidBatch, rawCategory)
			}
			updates = append(updates, repo.SettingUpdate{
				Key:      trimmed,
				Value:    entries[key],
				Category: category,
			})
		}
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no updates", ErrInvalidBatch)
	}
	return updates, nil
}

func droppedKeys(updates []repo.SettingUpdate, applied []string) []string {
	matched := make(map[string]struct{}, len(applied))
	for _, key := range applied {
		matched[key] = struct{}{}
	}
	out := make([]string, 0)
	for _, update := range updates {
		if _, ok := matched[update.Key]; !ok {
			out = append(out, update.Key)
		}
	}
	return out
}
