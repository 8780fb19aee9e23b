package dispatch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statusboard/internal/probe"
	"github.com/hamed0406/statusboard/internal/registry"
)

// fake checker you can control
type fakeChecker struct {
	result probe.Result
	err    error
	panics bool
	delay  time.Duration
}

func (f *fakeChecker) Check(ctx context.Context, ep registry.Endpoint) (probe.Result, error) {
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

func newTestDispatcher(reg registry.Registry) *Dispatcher {
	return New(zap.NewNop(), reg)
}

func TestRun_OneResultPerEndpoint(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	reg := registry.Registry{Endpoints: []registry.Endpoint{
		{ID: "a", URL: s.URL, CheckType: registry.CheckHTTPGet},
		{ID: "b", URL: s.URL, CheckType: registry.CheckHTTPReachable},
		{ID: "c", URL: s.URL, CheckType: "no-such-check"},
	}}
	d := newTestDispatcher(reg)

	results := d.Run(context.Background(), registry.FilterOptions{})
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	byID := make(map[string]probe.Result, len(results))
	for _, r := range results {
		if r.Status != probe.StatusUp && r.Status != probe.StatusDegraded && r.Status != probe.StatusDown {
			t.Fatalf("invalid status %q", r.Status)
		}
		if r.Timestamp.IsZero() {
			t.Fatalf("timestamp not stamped: %+v", r)
		}
		byID[r.ID] = r
	}
	if byID["a"].Status != probe.StatusUp || byID["b"].Status != probe.StatusUp {
		t.Fatalf("live endpoints should be UP: %+v", byID)
	}
}

func TestRun_UnknownCheckTypeIsDownWithoutNetwork(t *testing.T) {
	reg := registry.Registry{Endpoints: []registry.Endpoint{
		{ID: "x", URL: "http://127.0.0.1:1", CheckType: "made-up"},
	}}
	d := newTestDispatcher(reg)

	results := d.Run(context.Background(), registry.FilterOptions{})
	if len(results) != 1 {
		t.Fatalf("want 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Status != probe.StatusDown {
		t.Fatalf("want DOWN, got %s", r.Status)
	}
	if r.ResponseTimeMS != 0 {
		t.Fatalf("unknown check type must not measure anything, got %d", r.ResponseTimeMS)
	}
	if r.Error == "" || r.Error != "unknown check type: made-up" {
		t.Fatalf("unexpected error message: %q", r.Error)
	}
}

func TestRun_PanicIsolation(t *testing.T) {
	reg := registry.Registry{Endpoints: []registry.Endpoint{
		{ID: "bad", URL: "http://x.test", CheckType: registry.CheckHTTPGet},
		{ID: "good", URL: "http://y.test", CheckType: registry.CheckHTTPReachable},
	}}
	d := newTestDispatcher(reg)
	d.httpGet = &fakeChecker{panics: true}
	d.httpReachable = &fakeChecker{result: probe.Result{Status: probe.StatusUp}}

	results := d.Run(context.Background(), registry.FilterOptions{})
	if len(results) != 2 {
		t.Fatalf("want 2 results despite panic, got %d", len(results))
	}
	for _, r := range results {
		switch r.ID {
		case "bad":
			if r.Status != probe.StatusDown {
				t.Fatalf("panicking probe should yield DOWN, got %+v", r)
			}
		case "good":
			if r.Status != probe.StatusUp {
				t.Fatalf("sibling probe must be unaffected, got %+v", r)
			}
		}
	}
}

func TestFirewallRule_ValidatorConnRefusedIsDegraded(t *testing.T) {
	refused := errors.New("dial tcp 203.0.113.1:26657: connect: connection refused")

	reg := registry.Registry{Endpoints: []registry.Endpoint{
		{ID: "val", URL: "http://x.test", CheckType: registry.CheckHTTPGet, Category: "validators"},
		{ID: "api", URL: "http://y.test", CheckType: registry.CheckHTTPReachable, Category: "apis"},
	}}
	d := newTestDispatcher(reg)
	d.httpGet = &fakeChecker{err: refused}
	d.httpReachable = &fakeChecker{err: refused}

	results := d.Run(context.Background(), registry.FilterOptions{})
	for _, r := range results {
		switch r.ID {
		case "val":
			if r.Status != probe.StatusDegraded {
				t.Fatalf("validator should be DEGRADED, got %s", r.Status)
			}
			if r.Error != "Unreachable (likely firewalled)" {
				t.Fatalf("unexpected message: %q", r.Error)
			}
		case "api":
			if r.Status != probe.StatusDown {
				t.Fatalf("api should be DOWN, got %s", r.Status)
			}
			if r.Error == "" {
				t.Fatalf("DOWN result should carry the underlying error")
			}
		}
	}
}

func TestFirewallRule_OtherTransportErrorsStayDown(t *testing.T) {
	reg := registry.Registry{Endpoints: []registry.Endpoint{
		{ID: "val", URL: "http://x.test", CheckType: registry.CheckHTTPGet, Category: "validators"},
	}}
	d := newTestDispatcher(reg)
	d.httpGet = &fakeChecker{err: errors.New("context deadline exceeded")}

	results := d.Run(context.Background(), registry.FilterOptions{})
	if results[0].Status != probe.StatusDown {
		t.Fatalf("timeouts are not the firewall class, got %+v", results[0])
	}
}

func TestRun_ProbesRunConcurrently(t *testing.T) {
	reg := registry.Registry{Endpoints: []registry.Endpoint{
		{ID: "s1", URL: "http://a.test", CheckType: registry.CheckHTTPGet},
		{ID: "s2", URL: "http://b.test", CheckType: registry.CheckHTTPReachable},
		{ID: "s3", URL: "http://c.test", CheckType: registry.CheckAPIHealth},
	}}
	d := newTestDispatcher(reg)
	slow := &fakeChecker{result: probe.Result{Status: probe.StatusUp}, delay: 200 * time.Millisecond}
	d.httpGet, d.httpReachable, d.apiHealth = slow, slow, slow

	start := time.Now()
	results := d.Run(context.Background(), registry.FilterOptions{})
	elapsed := time.Since(start)

	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
	if elapsed > 450*time.Millisecond {
		t.Fatalf("probes appear serialized: cycle took %v", elapsed)
	}
}

func TestRun_FilterRestrictsCycle(t *testing.T) {
	reg := registry.Registry{Endpoints: []registry.Endpoint{
		{ID: "a", URL: "http://a.test", CheckType: registry.CheckHTTPGet, Category: "apis"},
		{ID: "b", URL: "http://b.test", CheckType: registry.CheckHTTPGet, Category: "validators"},
	}}
	d := newTestDispatcher(reg)
	d.httpGet = &fakeChecker{result: probe.Result{Status: probe.StatusUp}}

	results := d.Run(context.Background(), registry.FilterOptions{Category: "apis"})
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("filter not applied: %+v", results)
	}
}

func TestIsConnRefused(t *testing.T) {
	if !isConnRefused(errors.New("dial tcp: connect: connection refused")) {
		t.Fatalf("connection refused should match")
	}
	if !isConnRefused(errors.New("read tcp: connection reset by peer")) {
		t.Fatalf("connection reset should match")
	}
	if isConnRefused(errors.New("context deadline exceeded")) {
		t.Fatalf("timeout should not match")
	}
	if isConnRefused(errors.New("no such host")) {
		t.Fatalf("dns failure should not match")
	}
}
