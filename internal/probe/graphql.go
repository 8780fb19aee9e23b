package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/hamed0406/statusboard/internal/registry"
)

// GraphQL posts the cheapest possible introspection query. A reachable
// endpoint that reports GraphQL-level errors is DEGRADED; an unparseable
// 2xx body is tolerated as UP.
type GraphQL struct {
	Client *http.Client
}

func NewGraphQL() *GraphQL {
	return &GraphQL{Client: &http.Client{}}
}

var typenameQuery = []byte(`{"query":"{ __typename }"}`)

func (p *GraphQL) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()
	code, body, err := postJSON(ctx, p.Client, ep.URL, typenameQuery)
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
	if !ok {
		return res, nil
	}
	if errs, found := doc["errors"].([]any); found && len(errs) > 0 {
		res.Status = StatusDegraded
		res.Error = "GraphQL errors reported"
		res.Details["errorCount"] = len(errs)
		if first, ok := errs[0].(map[string]any); ok {
			if msg, ok := stringField(first, "message"); ok {
				res.Details["firstError"] = msg
			}
		}
		return res, nil
	}
	if _, found := doc["data"]; found {
		res.Details["introspection"] = true
	}
	return res, nil
}
