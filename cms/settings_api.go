package main

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/rbac"
	"github.com/atriumworks/atrium-go/internal/settings"
)

type settingResponse struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

func (api *cmsAPI) handleListSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := api.actorFromRequest(r); !ok {
		api.writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	grouped, err := api.settings.List(r.Context())
	if err != nil {
		api.logger.Error("list settings failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	out := make(map[string][]settingResponse, len(grouped))
	for category, rows := range grouped {
		entries := make([]settingResponse, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, settingResponse{
				Key:       row.Key,
				Value:     row.Value,
				UpdatedAt: row.UpdatedAt,
				UpdatedBy: row.UpdatedBy,
			})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		out[string(category)] = entries
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"settings": out})
}

func (api *cmsAPI) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := api.actorFromRequest(r)
	if !ok {
		api.writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !api.perms.Allows(actor.Role, rbac.ActionSettingsEdit) {
		api.writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	var req struct {
		Settings map[string]map[string]string `json:"settings"`
	}
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	batch := req.Settings

	if err := api.settings.ApplyBatch(r.Context(), actor.ID, batch); err != nil {
		if errors.Is(err, settings.ErrInvalidBatch) {
			api.writeError(w, r, http.StatusBadRequest, "validation_error")
			return
		}
		api.logger.Error("settings batch failed", "error", err, "request_id", actor.RequestID)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	keys := 0
	categories := make([]string, 0, len(batch))
	for category, entries := range batch {
		categories = append(categories, category)
		keys += len(entries)
	}
	sort.Strings(categories)

	if _, err := api.audit.Append(r.Context(), domain.AuditEvent{
		OccurredAt:   api.now().UTC(),
		Actor:        actor.ID,
		Action:       string(rbac.ActionSettingsEdit),
		ResourceType: "settings",
		ResourceID:   "batch",
		RequestID:    actor.RequestID,
		IP:           actor.IP,
		UserAgent:    actor.UserAgent,
		Payload: domain.Metadata{
			"service":    actor.Service,
			"categories": categories,
			"keys":       keys,
		},
	}); err != nil {
		api.logger.Error("audit settings batch failed", "error", err, "request_id", actor.RequestID)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
