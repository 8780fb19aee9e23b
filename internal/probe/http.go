package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/hamed0406/statusboard/internal/registry"
)

// HTTPGet is the plain availability check: any status in [200,400) is UP.
type HTTPGet struct {
	Client *http.Client
}

func NewHTTPGet() *HTTPGet {
	return &HTTPGet{Client: &http.Client{}}
}

func (p *HTTPGet) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()
	code, _, err := fetch(ctx, p.Client, ep.URL)
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
	}
	return res, nil
}

// HTTPReachable only asks whether the service answers at all: 401/403 still
// mean someone is home, so anything below 500 is UP.
type HTTPReachable struct {
	Client *http.Client
}

func NewHTTPReachable() *HTTPReachable {
	return &HTTPReachable{Client: &http.Client{}}
}

func (p *HTTPReachable) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()
	code, _, err := fetch(ctx, p.Client, ep.URL)
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}

	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details:        map[string]any{"statusCode": code},
	}
	if code >= 500 {
		res.Status = StatusDown
		res.Error = httpError(code)
	}
	return res, nil
}
