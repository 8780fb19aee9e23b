package probe

import (
	"context"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hamed0406/statusboard/internal/registry"
)

// Websocket attempts a protocol upgrade handshake. A completed upgrade is
// UP; a rejected handshake still counts as UP when the server answered with
// a non-error status.
type Websocket struct {
	Dialer *websocket.Dialer
}

func NewWebsocket() *Websocket {
	return &Websocket{Dialer: &websocket.Dialer{}}
}

func (p *Websocket) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()

	conn, resp, err := p.Dialer.DialContext(ctx, wsURL(ep.URL), nil)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err == nil {
		conn.Close()
		return Result{
			Status:         StatusUp,
			ResponseTimeMS: elapsedMS(start),
			Details:        map[string]any{"upgraded": true},
		}, nil
	}
	if resp != nil {
		res := Result{
			Status:         StatusUp,
			ResponseTimeMS: elapsedMS(start),
			Details:        map[string]any{"upgraded": false, "statusCode": resp.StatusCode},
		}
		if resp.StatusCode >= 400 {
			res.Status = StatusDown
			res.Error = "handshake rejected: " + httpError(resp.StatusCode)
		}
		return res, nil
	}
	return Result{ResponseTimeMS: elapsedMS(start)}, err
}

func wsURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}
