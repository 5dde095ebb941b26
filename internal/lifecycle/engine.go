package lifecycle

import (
	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/rbac"
)

// DenyReason is a stable machine-readable reason for a denied transition.
type DenyReason string

const (
	DenyInvalidStatus     DenyReason = "invalid_status"
	DenyIllegalTransition DenyReason = "illegal_transition"
	DenyForbidden         DenyReason = "forbidden"
)

// Decision is the transient result of evaluating a requested transition.
// It is never persisted.
type Decision struct {
	Allowed bool
	Reason  DenyReason

	// Action is the capability the edge requires; set whenever the edge is
	// defined, even on a forbidden decision, for diagnostics.
	Action rbac.Action

	// SetPublishedAt directs the caller to stamp published_at when the item
	// enters its kind's live status. The stamp itself is set-at-most-once:
	// an item that was ever live keeps its original timestamp.
	SetPublishedAt bool
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Engine evaluates status transitions against the kind's transition graph
// and the injected permission table. It is pure: no I/O, no side effects,
// so the full (kind x from x to x role) cross-product is unit-testable.
type Engine struct {
	perms rbac.Table
}

func NewEngine(perms rbac.Table) *Engine {
	return &Engine{perms: perms}
}

// Decide evaluates (kind, from -> to) for the acting role.
func (e *Engine) Decide(kind domain.Kind, from, to domain.Status, role rbac.Role) Decision {
	if !domain.ValidStatus(kind, to) {
		return deny(DenyInvalidStatus)
	}
	if from == to || !domain.CanTransition(kind, from, to) {
		return deny(DenyIllegalTransition)
	}

	action, ok := requiredAction(kind, from, to)
	if !ok {
		return deny(DenyIllegalTransition)
	}
	if !e.perms.Allows(role, action) {
		return Decision{Reason: DenyForbidden, Action: action}
	}

	return Decision{
		Allowed:        true,
		Action:         action,
		SetPublishedAt: to == domain.LiveStatus(kind) && from != domain.LiveStatus(kind),
	}
}

// requiredAction maps an edge to the capability it requires. The most
// destructive target wins: entering published, open, closed, or archived
// needs an elevated capability; entering review needs only the baseline
// submit capability.
func requiredAction(kind domain.Kind, from, to domain.Status) (rbac.Action, bool) {
	switch to {
	case domain.StatusReview:
		return rbac.ActionBlogSubmit, kind == domain.KindBlogPost
	case domain.StatusPublished:
		switch kind {
		case domain.KindBlogPost:
			return rbac.ActionBlogPublish, true
		case domain.KindProject:
			return rbac.ActionProjectPublish, true
		}
	case domain.StatusOpen:
		return rbac.ActionJobOpen, kind == domain.KindJobListing
	case domain.StatusClosed:
		return rbac.ActionJobClose, kind == domain.KindJobListing
	case domain.StatusArchived:
		switch kind {
		case domain.KindBlogPost:
			return rbac.ActionBlogArchive, true
		case domain.KindJobListing:
			return rbac.ActionJobArchive, true
		}
	case domain.StatusDraft:
		return rbac.ActionProjectUnpublish, kind == domain.KindProject && from == domain.StatusPublished
	}
	return "", false
}
