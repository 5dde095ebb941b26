package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDMiddlewareAssignsID(t *testing.T) {
	var seen string
	h := requestIDMiddleware("cms", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := RequestIDFromContext(r.Context())
		if !ok {
			t.Fatalf("request id missing from context")
		}
		seen = id
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.test/", nil))

	if seen == "" {
		t.Fatalf("expected generated request id")
	}
	if rec.Header().Get("X-Request-Id") != seen {
		t.Fatalf("response header must echo the request id")
	}
}

func TestRequestIDMiddlewareKeepsCallerID(t *testing.T) {
	h := requestIDMiddleware("cms", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := RequestIDFromContext(r.Context())
		if id != "caller-1" {
			t.Fatalf("request id=%q, want caller-1", id)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.test/", nil)
	req.Header.Set("X-Request-Id", "caller-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.test/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "internal_error" {
		t.Fatalf("error=%v, want internal_error", body["error"])
	}
}

func TestReadyzWithChecks(t *testing.T) {
	ok := ReadyzWithChecks("cms", ReadinessCheck{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	ok(rec, httptest.NewRequest(http.MethodGet, "http://example.test/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}

	failing := ReadyzWithChecks("cms", ReadinessCheck{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return errors.New("down") },
	})
	rec = httptest.NewRecorder()
	failing(rec, httptest.NewRequest(http.MethodGet, "http://example.test/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rec.Code)
	}
}

func TestRunValidatesConfig(t *testing.T) {
	err := Run(context.Background(), nil, Config{Addr: ":0"}, http.NewServeMux())
	if err == nil {
		t.Fatalf("missing service must fail")
	}
	err = Run(context.Background(), nil, Config{Service: "cms"}, http.NewServeMux())
	if err == nil {
		t.Fatalf("missing addr must fail")
	}
}
