package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hamed0406/statusboard/internal/registry"
)

func TestDeepHealth_HealthyComponents(t *testing.T) {
	s := staticServer(200, `{"status":"ok","version":"2.0","components":{"db":{"status":"up"},"cache":{"status":"healthy"}}}`)
	defer s.Close()

	chk := NewDeepHealth()
	res, err := chk.Check(context.Background(), registry.Endpoint{URL: s.URL, HealthURL: s.URL})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Status != StatusUp {
		t.Fatalf("want UP, got %+v", res)
	}
	if res.Details["version"] != "2.0" {
		t.Fatalf("version not captured: %+v", res.Details)
	}
}

func TestDeepHealth_UnhealthyComponentNamed(t *testing.T) {
	s := staticServer(200, `{"status":"ok","components":{"db":{"status":"down"},"api":{"status":"ok"}}}`)
	defer s.Close()

	chk := NewDeepHealth()
	res, _ := chk.Check(context.Background(), registry.Endpoint{URL: s.URL, HealthURL: s.URL})
	if res.Status != StatusDegraded {
		t.Fatalf("want DEGRADED, got %s", res.Status)
	}
	if !strings.Contains(res.Error, "db") {
		t.Fatalf("error should name the failing component, got %q", res.Error)
	}
}

func TestDeepHealth_MatchScopedToStatusValue(t *testing.T) {
	// A component whose *name* contains an unhealthy token must not trip
	// the check when its status is fine.
	s := staticServer(200, `{"status":"ok","components":{"failover-db":{"status":"ok"}}}`)
	defer s.Close()

	chk := NewDeepHealth()
	res, _ := chk.Check(context.Background(), registry.Endpoint{URL: s.URL, HealthURL: s.URL})
	if res.Status != StatusUp {
		t.Fatalf("component key must not be matched, got %+v", res)
	}
}

func TestDeepHealth_TopLevelStatusDegraded(t *testing.T) {
	s := staticServer(200, `{"status":"degraded-error"}`)
	defer s.Close()

	chk := NewDeepHealth()
	res, _ := chk.Check(context.Background(), registry.Endpoint{URL: s.URL, HealthURL: s.URL})
	if res.Status != StatusDegraded {
		t.Fatalf("want DEGRADED for unhealthy top-level status, got %s", res.Status)
	}
}

func TestDeepHealth_404FallsBackToBaseURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	s := httptest.NewServer(mux)
	defer s.Close()

	chk := NewDeepHealth()
	res, err := chk.Check(context.Background(), registry.Endpoint{URL: s.URL})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Status != StatusUp {
		t.Fatalf("want UP via fallback, got %+v", res)
	}
	if res.Details["fallback"] != true {
		t.Fatalf("details.fallback should be true, got %+v", res.Details)
	}
}

func TestDeepHealth_BothPathsFailingIsDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	s := httptest.NewServer(mux)
	defer s.Close()

	chk := NewDeepHealth()
	res, _ := chk.Check(context.Background(), registry.Endpoint{URL: s.URL})
	if res.Status != StatusDown {
		t.Fatalf("want DOWN when health 404s and fallback fails, got %+v", res)
	}
}

func TestDeepHealth_UnparseableBodyIsUp(t *testing.T) {
	s := staticServer(200, "OK")
	defer s.Close()

	chk := NewDeepHealth()
	res, _ := chk.Check(context.Background(), registry.Endpoint{URL: s.URL, HealthURL: s.URL})
	if res.Status != StatusUp {
		t.Fatalf("unparseable 200 body should be UP, got %+v", res)
	}
}

func TestIsUnhealthy_Tokens(t *testing.T) {
	for _, bad := range []string{"down", "DOWN", "unhealthy", "Error", "failing"} {
		if !isUnhealthy(bad) {
			t.Fatalf("%q should match", bad)
		}
	}
	for _, good := range []string{"ok", "up", "healthy", "pass", "SERVING"} {
		if isUnhealthy(good) {
			t.Fatalf("%q should not match", good)
		}
	}
}
