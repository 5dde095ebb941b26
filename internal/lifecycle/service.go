package lifecycle

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/rbac"
	"github.com/atriumworks/atrium-go/internal/repo"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrIllegalTransition = errors.New("illegal transition")
)

// Actor is the already-resolved acting identity for one request.
type Actor struct {
	ID        string
	Role      rbac.Role
	RequestID string
	IP        net.IP
	UserAgent string
	Service   string
}

// Service orchestrates status transitions: load, decide, and hand the
// mutation plus its audit record to the repository as one unit of work.
type Service struct {
	content repo.ContentRepository
	engine  *Engine
	now     func() time.Time
}

func NewService(content repo.ContentRepository, engine *Engine) *Service {
	if content == nil || engine == nil {
		return nil
	}
	return &Service{
		content: content,
		engine:  engine,
		now:     time.Now,
	}
}

// Transition moves a content item to the requested status on behalf of the
// actor. On success exactly one status write and exactly one audit record
// land, both in the same storage transaction; on any failure neither does.
//
// Errors: repo.ErrNotFound for an unknown item, ErrInvalidStatus and
// ErrIllegalTransition for rejected requests (a lost concurrent race also
// surfaces as ErrIllegalTransition), ErrForbidden when the actor's role
// lacks the edge's capability. Storage failures pass through unwrapped;
// retry policy belongs to the storage collaborator.
func (s *Service) Transition(ctx context.Context, actor Actor, kind domain.Kind, id string, to domain.Status) (domain.ContentItem, error) {
	if s == nil || s.content == nil {
		return domain.ContentItem{}, errors.New("lifecycle service not initialized")
	}
	if strings.TrimSpace(actor.ID) == "" {
		return domain.ContentItem{}, errors.New("actor id is required")
	}

	item, err := s.content.Get(ctx, kind, id)
	if err != nil {
		return domain.ContentItem{}, err
	}

	decision := s.engine.Decide(kind, item.Status, to, actor.Role)
	if !decision.Allowed {
		switch decision.Reason {
		case DenyInvalidStatus:
			return domain.ContentItem{}, ErrInvalidStatus
		case DenyIllegalTransition:
			return domain.ContentItem{}, ErrIllegalTransition
		default:
			return domain.ContentItem{}, ErrForbidden
		}
	}

	now := s.now().UTC()
	var publishedAt *time.Time
	if decision.SetPublishedAt && item.PublishedAt == nil {
		publishedAt = &now
	}

	updated, err := s.content.Transition(ctx, repo.TransitionRequest{
		Kind:        kind,
		ID:          id,
		From:        item.Status,
		To:          to,
		PublishedAt: publishedAt,
		OccurredAt:  now,
		Audit: domain.AuditEvent{
			OccurredAt:   now,
			Actor:        actor.ID,
			Action:       string(decision.Action),
			ResourceType: string(kind),
			ResourceID:   id,
			RequestID:    actor.RequestID,
			IP:           actor.IP,
			UserAgent:    actor.UserAgent,
			Payload: domain.Metadata{
				"service": actor.Service,
				"from":    string(item.Status),
				"to":      string(to),
			},
		},
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			// Lost the race: by the time the store re-checked, the item was
			// no longer in the observed from-status.
			return domain.ContentItem{}, ErrIllegalTransition
		}
		return domain.ContentItem{}, err
	}
	return updated, nil
}
