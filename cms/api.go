package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atriumworks/atrium-go/internal/lifecycle"
	"github.com/atriumworks/atrium-go/internal/platform/auth"
	"github.com/atriumworks/atrium-go/internal/rbac"
	"github.com/atriumworks/atrium-go/internal/repo"
	"github.com/atriumworks/atrium-go/internal/settings"
)

type cmsAPI struct {
	logger    *slog.Logger
	content   repo.ContentRepository
	audit     repo.AuditEventAppender
	lifecycle *lifecycle.Service
	settings  *settings.Manager
	perms     rbac.Table
	now       func() time.Time
	newID     func() string
}

func newCMSAPI(
	logger *slog.Logger,
	content repo.ContentRepository,
	audit repo.AuditEventAppender,
	lifecycleSvc *lifecycle.Service,
	settingsMgr *settings.Manager,
	perms rbac.Table,
	newID func() string,
) *cmsAPI {
	return &cmsAPI{
		logger:    logger,
		content:   content,
		audit:     audit,
		lifecycle: lifecycleSvc,
		settings:  settingsMgr,
		perms:     perms,
		now:       time.Now,
		newID:     newID,
	}
}

func (api *cmsAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /content", api.handleCreateContent)
	mux.HandleFunc("GET /content", api.handleListContent)
	mux.HandleFunc("GET /content/{kind}/{id}", api.handleGetContent)
	mux.HandleFunc("PATCH /content/{kind}/{id}/status", api.handleTransition)
	mux.HandleFunc("GET /settings", api.handleListSettings)
	mux.HandleFunc("PUT /settings", api.handleUpdateSettings)
}

// actorFromRequest builds the acting identity for domain calls. The raw role
// claims collapse to one typed role here and nowhere else.
func (api *cmsAPI) actorFromRequest(r *http.Request) (lifecycle.Actor, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		return lifecycle.Actor{}, false
	}
	return lifecycle.Actor{
		ID:        identity.Subject,
		Role:      rbac.ResolveRole(identity.Roles),
		RequestID: r.Header.Get("X-Request-Id"),
		IP:        requestIP(r),
		UserAgent: r.UserAgent(),
		Service:   "cms",
	}, true
}

func (api *cmsAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *cmsAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return errors.New("multiple JSON values")
	}
	return nil
}

func requestIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return net.ParseIP(strings.TrimSpace(r.RemoteAddr))
	}
	return net.ParseIP(host)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// slugify reduces a title to a URL-safe slug: lowercase, alphanumerics kept,
// everything else collapsed to single hyphens.
func slugify(raw string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
