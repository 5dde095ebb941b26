package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/atriumworks/atrium-go/internal/domain"
	"github.com/atriumworks/atrium-go/internal/lifecycle"
	"github.com/atriumworks/atrium-go/internal/platform/auditlog"
	"github.com/atriumworks/atrium-go/internal/platform/auth"
	"github.com/atriumworks/atrium-go/internal/platform/env"
	"github.com/atriumworks/atrium-go/internal/platform/httpserver"
	"github.com/atriumworks/atrium-go/internal/platform/postgres"
	"github.com/atriumworks/atrium-go/internal/rbac"
	repopg "github.com/atriumworks/atrium-go/internal/repo/postgres"
	"github.com/atriumworks/atrium-go/internal/settings"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := env.String("CMS_HTTP_ADDR", ":8080")
	shutdownTimeout, err := env.Duration("CMS_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		logger.Error("invalid env", "error", err)
		os.Exit(2)
	}

	perms, err := loadPermissionTable()
	if err != nil {
		logger.Error("invalid rbac spec", "error", err)
		os.Exit(2)
	}

	dbCfg, err := postgres.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(2)
	}
	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	contentStore := repopg.NewContentStore(db)
	settingsStore := repopg.NewSettingsStore(db)
	auditAppender := repopg.NewAuditAppender(db)

	if err := settingsStore.Seed(ctx, domain.DefaultSettings()); err != nil {
		logger.Error("settings seed failed", "error", err)
		os.Exit(1)
	}

	lifecycleSvc := lifecycle.NewService(contentStore, lifecycle.NewEngine(perms))
	settingsMgr := settings.NewManager(settingsStore, logger)

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		logger.Error("invalid auth config", "error", err)
		os.Exit(2)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("cms"))
	mux.HandleFunc(
		"/readyz",
		httpserver.ReadyzWithChecks(
			"cms",
			httpserver.ReadinessCheck{
				Name: "postgres",
				Check: func(ctx context.Context) error {
					checkCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
					defer cancel()
					return db.PingContext(checkCtx)
				},
			},
		),
	)

	authenticator, err := buildAuthenticator(ctx, logger, authCfg, mux)
	if err != nil {
		logger.Error("invalid auth setup", "error", err)
		os.Exit(2)
	}

	api := newCMSAPI(logger, contentStore, auditAppender, lifecycleSvc, settingsMgr, perms, uuid.NewString)
	api.register(mux)

	handler := auth.Middleware{
		Logger:        logger,
		Authenticator: authenticator,
		Audit: func(ctx context.Context, event auth.DenyEvent) error {
			auditCtx, cancel := context.WithTimeout(ctx, 750*time.Millisecond)
			defer cancel()
			return auditlog.InsertAuthDeny(auditCtx, db, "cms", event)
		},
		SkipPrefixes: []string{"/healthz", "/readyz", "/auth/"},
	}.Wrap(mux)

	cfg := httpserver.Config{
		Service:         "cms",
		Addr:            addr,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := httpserver.Run(ctx, logger, cfg, httpserver.Wrap(logger, "cms", handler)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// loadPermissionTable reads the optional capability spec; without one the
// built-in table applies.
func loadPermissionTable() (rbac.Table, error) {
	path := env.String("RBAC_SPEC_PATH", "")
	if path == "" {
		return rbac.DefaultTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return rbac.Table{}, err
	}
	return rbac.ParseTable(raw)
}

// buildAuthenticator wires the configured auth mode. In oidc mode the login
// endpoints are registered when the login config is complete, so a
// token-verify-only deployment still starts.
func buildAuthenticator(ctx context.Context, logger *slog.Logger, cfg auth.Config, mux *http.ServeMux) (auth.Authenticator, error) {
	switch cfg.Mode {
	case auth.ModeDev:
		logger.Warn("dev auth enabled, all requests share one identity", "subject", cfg.DevSubject)
		return auth.NewDevAuthenticator(cfg), nil
	case auth.ModeOIDC:
		svc, err := auth.NewOIDCService(ctx, cfg)
		if err != nil {
			return nil, err
		}
		mux.HandleFunc("POST /auth/logout", svc.LogoutHandler())
		mux.HandleFunc("GET /auth/session", svc.SessionHandler())
		if err := cfg.ValidateForLogin(); err != nil {
			logger.Warn("oidc login endpoints disabled", "error", err)
			return svc, nil
		}
		login, err := svc.LoginHandler()
		if err != nil {
			return nil, err
		}
		callback, err := svc.CallbackHandler()
		if err != nil {
			return nil, err
		}
		mux.HandleFunc("GET /auth/login", login)
		mux.HandleFunc("GET /auth/callback", callback)
		return svc, nil
	default:
		return nil, errors.New("unsupported auth mode")
	}
}
