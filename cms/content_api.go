package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/lifecycle"
	"github.com/atriumworks/atrium-go/internal/rbac"
	"github.com/atriumworks/atrium-go/internal/repo"
)

type contentResponse struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Body        string          `json:"body,omitempty"`
	Metadata    domain.Metadata `json:"metadata"`
	Status      string          `json:"status"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   string          `json:"created_by"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func renderContent(item domain.ContentItem) contentResponse {
	metadata := item.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	return contentResponse{
		ID:          item.ID,
		Kind:        string(item.Kind),
		Title:       item.Title,
		Slug:        item.Slug,
		Body:        item.Body,
		Metadata:    metadata,
		Status:      string(item.Status),
		PublishedAt: item.PublishedAt,
		CreatedAt:   item.CreatedAt,
		CreatedBy:   item.CreatedBy,
		UpdatedAt:   item.UpdatedAt,
	}
}

type createContentRequest struct {
	Kind     string          `json:"kind"`
	Title    string          `json:"title"`
	Slug     string          `json:"slug,omitempty"`
	Body     string          `json:"body,omitempty"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
}

func (api *cmsAPI) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.actorFromRequest(r)
	if !ok {
		api.writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !api.perms.Allows(actor.Role, rbac.ActionContentCreate) {
		api.writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	var req createContentRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	kind, ok := domain.NormalizeKind(req.Kind)
	if !ok {
		api.writeError(w, r, http.StatusBadRequest, "validation_error")
		return
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = slugify(req.Title)
	}

	now := api.now().UTC()
	item := domain.ContentItem{
		ID:        api.newID(),
		Kind:      kind,
		Title:     strings.TrimSpace(req.Title),
		Slug:      slug,
		Body:      req.Body,
		Metadata:  req.Metadata,
		Status:    domain.InitialStatus(kind),
		CreatedAt: now,
		CreatedBy: actor.ID,
		UpdatedAt: now,
	}
	if err := item.Validate(); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "validation_error")
		return
	}

	if err := api.content.Create(r.Context(), item); err != nil {
		if isUniqueViolation(err) {
			api.writeError(w, r, http.StatusConflict, "slug_taken")
			return
		}
		api.logger.Error("create content failed", "error", err, "request_id", actor.RequestID)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	if _, err := api.audit.Append(r.Context(), domain.AuditEvent{
		OccurredAt:   now,
		Actor:        actor.ID,
		Action:       string(rbac.ActionContentCreate),
		ResourceType: string(kind),
		ResourceID:   item.ID,
		RequestID:    actor.RequestID,
		IP:           actor.IP,
		UserAgent:    actor.UserAgent,
		Payload: domain.Metadata{
			"service": actor.Service,
			"slug":    item.Slug,
			"status":  string(item.Status),
		},
	}); err != nil {
		api.logger.Error("audit create failed", "error", err, "request_id", actor.RequestID)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	api.writeJSON(w, http.StatusCreated, renderContent(item))
}

func (api *cmsAPI) handleListContent(w http.ResponseWriter, r *http.Request) {
	if _, ok := api.actorFromRequest(r); !ok {
		api.writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := repo.ContentFilter{
		Limit: clampInt(parseIntQuery(r, "limit", 50), 1, 200),
	}
	if rawKind := strings.TrimSpace(r.URL.Query().Get("kind")); rawKind != "" {
		kind, ok := domain.NormalizeKind(rawKind)
		if !ok {
			api.writeError(w, r, http.StatusBadRequest, "validation_error")
			return
		}
		filter.Kind = kind
	}
	if rawStatus := strings.TrimSpace(r.URL.Query().Get("status")); rawStatus != "" {
		status := domain.Status(strings.ToLower(rawStatus))
		if filter.Kind != "" && !domain.ValidStatus(filter.Kind, status) {
			api.writeError(w, r, http.StatusBadRequest, "invalid_status")
			return
		}
		filter.Status = status
	}

	items, err := api.content.List(r.Context(), filter)
	if err != nil {
		api.logger.Error("list content failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	out := make([]contentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, renderContent(item))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (api *cmsAPI) handleGetContent(w http.ResponseWriter, r *http.Request) {
	if _, ok := api.actorFromRequest(r); !ok {
		api.writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	kind, ok := domain.NormalizeKind(r.PathValue("kind"))
	if !ok {
		api.writeError(w, r, http.StatusBadRequest, "validation_error")
		return
	}

	item, err := api.content.Get(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			api.writeError(w, r, http.StatusNotFound, "not_found")
			return
		}
		api.logger.Error("get content failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}
	api.writeJSON(w, http.StatusOK, renderContent(item))
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (api *cmsAPI) handleTransition(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.actorFromRequest(r)
	if !ok {
		api.writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	kind, ok := domain.NormalizeKind(r.PathValue("kind"))
	if !ok {
		api.writeError(w, r, http.StatusBadRequest, "validation_error")
		return
	}

	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	to := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if to == "" {
		api.writeError(w, r, http.StatusBadRequest, "invalid_status")
		return
	}

	item, err := api.lifecycle.Transition(r.Context(), actor, kind, r.PathValue("id"), to)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			api.writeError(w, r, http.StatusNotFound, "not_found")
		case errors.Is(err, lifecycle.ErrInvalidStatus):
			api.writeError(w, r, http.StatusBadRequest, "invalid_status")
		case errors.Is(err, lifecycle.ErrIllegalTransition):
			api.writeError(w, r, http.StatusForbidden, "illegal_transition")
		case errors.Is(err, lifecycle.ErrForbidden):
			api.writeError(w, r, http.StatusForbidden, "forbidden")
		default:
			api.logger.Error("transition failed", "error", err, "request_id", actor.RequestID)
			api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		}
		return
	}
	api.writeJSON(w, http.StatusOK, renderContent(item))
}
