package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/statusboard/internal/registry"
)

// CosmosPeer asks a public reference RPC whether this endpoint's node shows
// up in its peer list. The endpoint itself is never contacted; a missing
// peer is DEGRADED, an unreachable reference RPC is DOWN.
type CosmosPeer struct {
	Client *http.Client
}

func NewCosmosPeer() *CosmosPeer {
	return &CosmosPeer{Client: &http.Client{}}
}

func (p *CosmosPeer) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()

	if ep.PublicRPC == "" || ep.PeerIP == "" {
		return Result{
			Status:         StatusDown,
			ResponseTimeMS: 0,
			Error:          "cosmos-peer-check requires public_rpc and peer_ip",
		}, nil
	}

	code, body, err := fetch(ctx, p.Client, strings.TrimRight(ep.PublicRPC, "/")+"/net_info")
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, fmt.Errorf("reference RPC unreachable: %w", err)
	}
	if !httpOK(code) {
		return Result{
			Status:         StatusDown,
			ResponseTimeMS: elapsedMS(start),
			Error:          "reference RPC: " + httpError(code),
		}, nil
	}

	var env struct {
		Result *netInfo `json:"result"`
		Peers  []peer   `json:"peers"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Result{
			Status:         StatusDown,
			ResponseTimeMS: elapsedMS(start),
			Error:          "reference RPC: invalid net_info response",
		}, nil
	}
	peers := env.Peers
	if env.Result != nil {
		peers = env.Result.Peers
	}

	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details:        map[string]any{"peerIp": ep.PeerIP, "referencePeers": len(peers)},
	}
	for _, pr := range peers {
		if pr.RemoteIP == ep.PeerIP {
			res.Details["found"] = true
			return res, nil
		}
	}
	res.Status = StatusDegraded
	res.Details["found"] = false
	res.Error = fmt.Sprintf("peer %s not found among %d peers of reference RPC", ep.PeerIP, len(peers))
	return res, nil
}

type netInfo struct {
	Peers []peer `json:"peers"`
}

type peer struct {
	RemoteIP string `json:"remote_ip"`
}
