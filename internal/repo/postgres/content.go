package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/platform/auditlog"
	"github.com/atriumworks/atrium-go/internal/repo"
)

const contentColumns = `content_id, kind, title, slug, body, metadata, status, published_at, created_at, created_by, updated_at`

const insertContentQuery = `INSERT INTO content_items (
	content_id,
	kind,
	title,
	slug,
	body,
	metadata,
	status,
	published_at,
	created_at,
	created_by,
	updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

const selectContentQuery = `SELECT ` + contentColumns + `
	FROM content_items
	WHERE kind = $1 AND content_id = $2`

// transitionContentQuery is a compare-and-swap: the WHERE clause pins the
// status the caller observed, and COALESCE keeps an existing published_at
// stamp from ever being overwritten.
const transitionContentQuery = `UPDATE content_items
	SET status = $1,
		published_at = COALESCE(published_at, $2),
		updated_at = $3
	WHERE kind = $4 AND content_id = $5 AND status = $6
	RETURNING ` + contentColumns

// ContentStore persists content items. It holds a *sql.DB rather than the
// narrower DB interface because Transition needs a transaction.
type ContentStore struct {
	db *sql.DB
}

func NewContentStore(db *sql.DB) *ContentStore {
	if db == nil {
		return nil
	}
	return &ContentStore{db: db}
}

func (s *ContentStore) Create(ctx context.Context, item domain.ContentItem) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("content store not initialized")
	}
	if err := item.Validate(); err != nil {
		return err
	}
	metadataJSON, err := encodeMetadata(item.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	createdAt := normalizeTime(item.CreatedAt)
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	_, err = s.db.ExecContext(
		ctx,
		insertContentQuery,
		strings.TrimSpace(item.ID),
		string(item.Kind),
		strings.TrimSpace(item.Title),
		strings.TrimSpace(item.Slug),
		item.Body,
		metadataJSON,
		string(item.Status),
		nullTime(item.PublishedAt),
		createdAt,
		strings.TrimSpace(item.CreatedBy),
		updatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert content item: %w", err)
	}
	return nil
}

func (s *ContentStore) Get(ctx context.Context, kind domain.Kind, id string) (domain.ContentItem, error) {
	if s == nil || s.db == nil {
		return domain.ContentItem{}, fmt.Errorf("content store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ContentItem{}, fmt.Errorf("content id is required")
	}
	row := s.db.QueryRowContext(ctx, selectContentQuery, string(kind), id)
	item, err := scanContentItem(row)
	if err != nil {
		return domain.ContentItem{}, handleNotFound(err)
	}
	return item, nil
}

func (s *ContentStore) List(ctx context.Context, filter repo.ContentFilter) ([]domain.ContentItem, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("content store not initialized")
	}
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		clauses = append(clauses, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + contentColumns + ` FROM content_items`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ContentItem, 0)
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	return items, nil
}

func (s *ContentStore) Transition(ctx context.Context, req repo.TransitionRequest) (domain.ContentItem, error) {
	if s == nil || s.db == nil {
		return domain.ContentItem{}, fmt.Errorf("content store not initialized")
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return domain.ContentItem{}, fmt.Errorf("content id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	occurredAt := normalizeTime(req.OccurredAt)
	row := tx.QueryRowContext(
		ctx,
		transitionContentQuery,
		string(req.To),
		nullTime(req.PublishedAt),
		occurredAt,
		string(req.Kind),
		id,
		string(req.From),
	)
	item, err := scanContentItem(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.ContentItem{}, fmt.Errorf("transition content item: %w", err)
		}
		// Zero rows means either the item is gone or another writer moved
		// it first. Re-select inside the same transaction to tell the two
		// apart.
		var status string
		err = tx.QueryRowContext(
			ctx,
			`SELECT status FROM content_items WHERE kind = $1 AND content_id = $2`,
			string(req.Kind),
			id,
		).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ContentItem{}, repo.ErrNotFound
		}
		if err != nil {
			return domain.ContentItem{}, fmt.Errorf("transition content item: %w", err)
		}
		return domain.ContentItem{}, repo.ErrConflict
	}

	audit := req.Audit
	if audit.OccurredAt.IsZero() {
		audit.OccurredAt = occurredAt
	}
	payload := audit.Payload
	if payload == nil {
		payload = domain.Metadata{}
	}
	if _, err := auditlog.Insert(ctx, tx, auditlog.Event{
		OccurredAt:   audit.OccurredAt,
		Actor:        audit.Actor,
		Action:       audit.Action,
		ResourceType: audit.ResourceType,
		ResourceID:   audit.ResourceID,
		RequestID:    audit.RequestID,
		IP:           audit.IP,
		UserAgent:    audit.UserAgent,
		Payload:      payload,
	}); err != nil {
		return domain.ContentItem{}, fmt.Errorf("audit transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.ContentItem{}, fmt.Errorf("commit transition: %w", err)
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContentItem(row rowScanner) (domain.ContentItem, error) {
	var (
		item         domain.ContentItem
		kind         string
		status       string
		metadataJSON []byte
		publishedAt  sql.NullTime
	)
	if err := row.Scan(
		&item.ID,
		&kind,
		&item.Title,
		&item.Slug,
		&item.Body,
		&metadataJSON,
		&status,
		&publishedAt,
		&item.CreatedAt,
		&item.CreatedBy,
		&item.UpdatedAt,
	); err != nil {
		return domain.ContentItem{}, err
	}
	item.Kind = domain.Kind(kind)
	item.Status = domain.Status(status)
	if publishedAt.Valid {
		published := publishedAt.Time.UTC()
		item.PublishedAt = &published
	}
	metadata, err := decodeMetadata(metadataJSON)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("decode metadata: %w", err)
	}
	item.Metadata = metadata
	return item, nil
}
