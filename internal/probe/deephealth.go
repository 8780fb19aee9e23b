package probe

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hamed0406/statusboard/internal/registry"
)

// DeepHealth fetches a structured health document and inspects each
// sub-component's status. When the health URL itself 404s, it falls back to
// basic reachability against the base URL.
type DeepHealth struct {
	Client *http.Client
}

func NewDeepHealth() *DeepHealth {
	return &DeepHealth{Client: &http.Client{}}
}

var unhealthyTokens = []string{"down", "unhealthy", "error", "fail"}

func (p *DeepHealth) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()

	healthURL := ep.HealthURL
	if healthURL == "" {
		healthURL = strings.TrimRight(ep.URL, "/") + "/health"
	}

	code, body, err := fetch(ctx, p.Client, healthURL)
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}
	if code == http.StatusNotFound {
		return p.fallback(ctx, ep, start)
	}
	if !httpOK(code) {
		return Result{Status: StatusDown, ResponseTimeMS: elapsedMS(start), Error: httpError(code)}, nil
	}

	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details:        map[string]any{"statusCode": code},
	}
	doc, ok := parseObject(body)
	if !ok {
		return res, nil
	}
	if s, ok := stringField(doc, "status"); ok {
		res.Details["status"] = s
	}
	if v, ok := stringField(doc, "version"); ok {
		res.Details["version"] = v
	}

	// Sub-components first: the failing part is more useful in the error
	// than a generic top-level status. Matching is scoped to the status
	// value only, never the component key.
	if name, status, bad := firstUnhealthyComponent(doc); bad {
		res.Status = StatusDegraded
		res.Error = fmt.Sprintf("component %q unhealthy: %s", name, status)
		res.Details["unhealthyComponent"] = name
		return res, nil
	}
	if s, ok := stringField(doc, "status"); ok && isUnhealthy(s) {
		res.Status = StatusDegraded
		res.Error = "status: " + s
	}
	return res, nil
}

// fallback answers "is anything alive at the base URL" after a 404 on the
// health path.
func (p *DeepHealth) fallback(ctx context.Context, ep registry.Endpoint, start time.Time) (Result, error) {
	code, _, err := fetch(ctx, p.Client, ep.URL)
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}
	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details:        map[string]any{"statusCode": code, "fallback": true},
	}
	if !httpOK(code) {
		res.Status = StatusDown
		res.Error = fmt.Sprintf("HTTP 404 on health, %s on fallback", httpError(code))
	}
	return res, nil
}

// firstUnhealthyComponent scans the components map in sorted key order so
// the short-circuit picks the same component on every run. Component values
// may be objects with a status field or bare status strings.
func firstUnhealthyComponent(doc map[string]any) (name, status string, bad bool) {
	comps, ok := doc["components"].(map[string]any)
	if !ok {
		return "", "", false
	}
	keys := make([]string, 0, len(comps))
	for k := range comps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var s string
		switch v := comps[k].(type) {
		case map[string]any:
			s, _ = stringField(v, "status")
		case string:
			s = v
		}
		if s != "" && isUnhealthy(s) {
			return k, s, true
		}
	}
	return "", "", false
}

func isUnhealthy(status string) bool {
	ls := strings.ToLower(status)
	for _, tok := range unhealthyTokens {
		if strings.Contains(ls, tok) {
			return true
		}
	}
	return false
}
