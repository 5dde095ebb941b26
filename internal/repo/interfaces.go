package repo

import (
	"context"
	"errors"
	"time"

	"github.com/atriumworks/atrium-go/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a guarded write loses a race: the record's
// current status no longer matches the status the caller observed.
var ErrConflict = errors.New("conflict")

type ContentFilter struct {
	Kind   domain.Kind
	Status domain.Status
	Limit  int
}

// TransitionRequest is one atomic unit of work: a compare-and-swap on the
// expected from-status plus the audit record for the change. Either both
// writes commit or neither does.
type TransitionRequest struct {
	Kind        domain.Kind
	ID          string
	From        domain.Status
	To          domain.Status
	PublishedAt *time.Time
	OccurredAt  time.Time
	Audit       domain.AuditEvent
}

// ContentRepository manages publishable content items.
type ContentRepository interface {
	Create(ctx context.Context, item domain.ContentItem) error
	Get(ctx context.Context, kind domain.Kind, id string) (domain.ContentItem, error)
	List(ctx context.Context, filter ContentFilter) ([]domain.ContentItem, error)

	// Transition applies req in a single transaction. It returns ErrNotFound
	// when the item does not exist and ErrConflict when the item exists but
	// its status is no longer req.From.
	Transition(ctx context.Context, req TransitionRequest) (domain.ContentItem, error)
}

type SettingUpdate struct {
	Key      string
	Value    string
	Category domain.SettingCategory
}

// SettingsRepository manages the global key/value settings store.
type SettingsRepository interface {
	List(ctx context.Context) ([]domain.Setting, error)

	// ApplyBatch writes every update in one transaction, stamping updated_by
	// and updated_at on each matched row. Updates whose key matches no row
	// affect nothing and do not abort the batch; the returned slice holds the
	// keys that matched.
	ApplyBatch(ctx context.Context, actor string, updates []SettingUpdate, at time.Time) ([]string, error)

	// Seed inserts the fixed initial key set, skipping keys that already
	// exist. Called once at system initialization.
	Seed(ctx context.Context, defaults []domain.Setting) error
}

// AuditEventAppender ensures append-only audit writes.
type AuditEventAppender interface {
	Append(ctx context.Context, event domain.AuditEvent) (int64, error)
}
