package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hamed0406/statusboard/internal/registry"
)

// HTTPJSON fetches a JSON document and, when expected_field is configured,
// requires that top-level key to be present. Without expected_field the body
// does not need to be JSON at all.
type HTTPJSON struct {
	Client *http.Client
}

func NewHTTPJSON() *HTTPJSON {
	return &HTTPJSON{Client: &http.Client{}}
}

func (p *HTTPJSON) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()
	code, body, err := fetch(ctx, p.Client, ep.URL)
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}

	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details:        map[string]any{"statusCode": code},
	}
	if !httpOK(code) {
		res.Status = StatusDown
		res.Error = httpError(code)
		return res, nil
	}

	doc, ok := parseObject(body)
	if ep.ExpectedField == "" {
		return res, nil
	}
	if !ok {
		res.Status = StatusDown
		res.Error = "invalid JSON response"
		return res, nil
	}
	v, present := doc[ep.ExpectedField]
	if !present {
		res.Status = StatusDegraded
		res.Error = fmt.Sprintf("missing expected field %q", ep.ExpectedField)
		return res, nil
	}
	switch v.(type) {
	case string, float64, bool:
		res.Details[ep.ExpectedField] = v
	}
	return res, nil
}

// APIHealth is a forgiving health endpoint check: any 2xx/3xx is UP, and the
// body is only mined best-effort for status/version strings.
type APIHealth struct {
	Client *http.Client
}

func NewAPIHealth() *APIHealth {
	return &APIHealth{Client: &http.Client{}}
}

func (p *APIHealth) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()
	code, body, err := fetch(ctx, p.Client, ep.URL)
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}

	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details:        map[string]any{"statusCode": code},
	}
	if !httpOK(code) {
		res.Status = StatusDown
		res.Error = httpError(code)
		return res, nil
	}
	if doc, ok := parseObject(body); ok {
		if s, ok := stringField(doc, "status"); ok {
			res.Details["status"] = s
		}
		if v, ok := stringField(doc, "version"); ok {
			res.Details["version"] = v
		}
	}
	return res, nil
}
