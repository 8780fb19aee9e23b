package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/statusboard/internal/registry"
)

// Status is the tri-state health classification of an endpoint.
type Status string

const (
	StatusUp       Status = "UP"
	StatusDegraded Status = "DEGRADED"
	StatusDown     Status = "DOWN"
)

// Code returns the compact encoding used in history snapshots.
func (s Status) Code() int {
	switch s {
	case StatusUp:
		return 1
	case StatusDegraded:
		return 2
	default:
		return 0
	}
}

// FromCode is the inverse of Code. Unknown codes map to DOWN.
func FromCode(c int) Status {
	switch c {
	case 1:
		return StatusUp
	case 2:
		return StatusDegraded
	default:
		return StatusDown
	}
}

// Result is the outcome of one probe against one endpoint.
//
// Details is an open bag of scalar facts whose keys vary by check type
// (block height, chain id, peer count, sub-component statuses, ...). An
// absent key means "not applicable"; probes never write sentinel values
// into it.
type Result struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Category       string         `json:"category,omitempty"`
	Environment    string         `json:"environment,omitempty"`
	Status         Status         `json:"status"`
	ResponseTimeMS int64          `json:"response_time_ms"`
	Timestamp      time.Time      `json:"timestamp"`
	Details        map[string]any `json:"details,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Checker classifies one endpoint's live health.
//
// A non-nil error means the transport itself failed (refused, reset, DNS,
// timeout); the dispatcher classifies those. Every other outcome, including
// protocol-level failures, is expressed in the returned Result. The Result's
// ResponseTimeMS is set in both cases.
type Checker interface {
	Check(ctx context.Context, ep registry.Endpoint) (Result, error)
}

const maxBodyBytes = 1 << 20

// fetch performs a GET and returns the status code and a bounded body read.
// The returned error is transport-level only; HTTP error statuses are the
// caller's concern.
func fetch(ctx context.Context, c *http.Client, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode, body, nil
}

func postJSON(ctx context.Context, c *http.Client, url string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return resp.StatusCode, body, nil
}

// parseObject decodes body into a generic JSON object. The ok=false path is
// an intentional no-op fallback for the best-effort probes.
func parseObject(body []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, false
	}
	return m, true
}

func stringField(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func httpOK(code int) bool { return code >= 200 && code < 400 }

func elapsedMS(start time.Time) int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

func httpError(code int) string { return fmt.Sprintf("HTTP %d", code) }
