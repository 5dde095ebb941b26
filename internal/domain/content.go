package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies a publishable content category. Each kind carries its own
// closed status set and transition graph.
type Kind string

const (
	KindBlogPost   Kind = "blog_post"
	KindJobListing Kind = "job_listing"
	KindProject    Kind = "project"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
)

var kindStatuses = map[Kind][]Status{
	KindBlogPost:   {StatusDraft, StatusReview, StatusPublished, StatusArchived},
	KindJobListing: {StatusDraft, StatusOpen, StatusClosed, StatusArchived},
	KindProject:    {StatusDraft, StatusPublished},
}

var kindTransitions = map[Kind]map[Status][]Status{
	KindBlogPost: {
		StatusDraft:     {StatusReview, StatusArchived},
		StatusReview:    {StatusPublished},
		StatusPublished: {StatusArchived},
		StatusArchived:  {},
	},
	KindJobListing: {
		StatusDraft:    {StatusOpen},
		StatusOpen:     {StatusClosed},
		StatusClosed:   {StatusArchived},
		StatusArchived: {},
	},
	KindProject: {
		StatusDraft:     {StatusPublished},
		StatusPublished: {StatusDraft},
	},
}

// liveStatuses is the status in which a kind is visible on the public site.
// published_at is stamped when an item first enters this status.
var liveStatuses = map[Kind]Status{
	KindBlogPost:   StatusPublished,
	KindJobListing: StatusOpen,
	KindProject:    StatusPublished,
}

func NormalizeKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindBlogPost:
		return KindBlogPost, true
	case KindJobListing:
		return KindJobListing, true
	case KindProject:
		return KindProject, true
	default:
		return "", false
	}
}

// InitialStatus returns the status every item of a kind is created in.
func InitialStatus(kind Kind) Status {
	return StatusDraft
}

// ValidStatus reports whether status belongs to the kind's closed status set.
func ValidStatus(kind Kind, status Status) bool {
	for _, candidate := range kindStatuses[kind] {
		if candidate == status {
			return true
		}
	}
	return false
}

// Statuses returns the kind's closed status set.
func Statuses(kind Kind) []Status {
	out := make([]Status, len(kindStatuses[kind]))
	copy(out, kindStatuses[kind])
	return out
}

// CanTransition reports whether (from, to) is a defined edge in the kind's
// transition graph. Self-transitions are never edges.
func CanTransition(kind Kind, from, to Status) bool {
	edges, ok := kindTransitions[kind]
	if !ok {
		return false
	}
	for _, candidate := range edges[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// LiveStatus returns the kind's publicly visible status.
func LiveStatus(kind Kind) Status {
	return liveStatuses[kind]
}

// ContentItem is a publishable entity: a blog post, job listing, or project.
// The store owns it; services hold it for at most one request.
type ContentItem struct {
	ID          string
	Kind        Kind
	Title       string
	Slug        string
	Body        string
	Metadata    Metadata
	Status      Status
	PublishedAt *time.Time
	CreatedAt   time.Time
	CreatedBy   string
	UpdatedAt   time.Time
}

func (c ContentItem) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("content id is required")
	}
	if _, ok := NormalizeKind(string(c.Kind)); !ok {
		return fmt.Errorf("unknown content kind %q", c.Kind)
	}
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(c.Slug) == "" {
		return errors.New("slug is required")
	}
	if !ValidStatus(c.Kind, c.Status) {
		return fmt.Errorf("status %q not valid for kind %q", c.Status, c.Kind)
	}
	if c.CreatedAt.IsZero() {
		return errors.New("created_at is required")
	}
	if strings.TrimSpace(c.CreatedBy) == "" {
		return errors.New("created_by is required")
	}
	return nil
}

// IsLive reports whether the item is in its kind's publicly visible status.
func (c ContentItem) IsLive() bool {
	return c.Status == LiveStatus(c.Kind)
}
