package routing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testAllowlistYAML = `
version: 1
entrypoints:
  server:
    routes:
      - path: /api/ui/contract
        methods: [GET]
        route_class: public_api
      - path: /api/ui/action/{id}
        methods: [GET]
        route_class: public_api
      - path: /internal/governance/channel
        methods: [POST]
        route_class: governance
      - path: /healthz
        methods: [GET]
        route_class: ops
`

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	allowlist, err := ParseAllowlistYAML([]byte(testAllowlistYAML))
	if err != nil {
		t.Fatalf("parse allowlist: %v", err)
	}
	classifier, err := NewClassifier(allowlist, "server")
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	return classifier
}

func TestParseAllowlistRejectsBadVersion(t *testing.T) {
	_, err := ParseAllowlistYAML([]byte("version: 2\nentrypoints: {}\n"))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestClassifyExactAndPattern(t *testing.T) {
	classifier := testClassifier(t)
	cases := []struct {
		path string
		want RouteClass
	}{
		{"/api/ui/contract", RouteClassPublicAPI},
		{"/api/ui/action/42", RouteClassPublicAPI},
		{"/internal/governance/channel", RouteClassGovernance},
		{"/internal/governance/anything", RouteClassGovernance},
		{"/internal/scene/visibility", RouteClassInternalAPI},
		{"/healthz", RouteClassOps},
		{"/_dev/dump", RouteClassDevOnly},
	}
	for _, tc := range cases {
		if got := classifier.Classify(tc.path); got != tc.want {
			t.Fatalf("Classify(%q)=%q want %q", tc.path, got, tc.want)
		}
	}
}

func TestRouterDispatchAndNotFound(t *testing.T) {
	router := NewRouter(testClassifier(t), nil)
	router.HandleFunc(http.MethodGet, "/api/ui/contract", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ui/contract", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ui/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "NOT_FOUND") {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := NewRouter(testClassifier(t), nil)
	router.HandleFunc(http.MethodGet, "/api/ui/contract", func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ui/contract", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestRouterPatternRoute(t *testing.T) {
	router := NewRouter(testClassifier(t), nil)
	router.HandleFunc(http.MethodGet, "/api/ui/action/{id}", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"path": r.URL.Path})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ui/action/17", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ui/action/17/extra", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestRouterEntrypointClassFilter(t *testing.T) {
	router := NewRouter(testClassifier(t), nil, RouteClassPublicAPI)
	router.HandleFunc(http.MethodPost, "/internal/governance/channel", func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/governance/channel", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestRouterRecoversPanic(t *testing.T) {
	router := NewRouter(testClassifier(t), nil)
	router.HandleFunc(http.MethodGet, "/api/ui/contract", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ui/contract", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestTraceIDFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	if got := TraceIDFromRequest(req); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace_id=%q", got)
	}

	req.Header.Set("traceparent", "00-ZZZ-00f067aa0ba902b7-01")
	if got := TraceIDFromRequest(req); got != "" {
		t.Fatalf("trace_id=%q", got)
	}

	req.Header.Set("traceparent", "00-00000000000000000000000000000000-00f067aa0ba902b7-01")
	if got := TraceIDFromRequest(req); got != "" {
		t.Fatalf("trace_id=%q", got)
	}
}
