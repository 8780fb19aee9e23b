package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/statusboard/internal/registry"
)

// CosmosRPC checks a CometBFT RPC endpoint via /status, with a best-effort
// peer count from /net_info. A stale latest block or a node still catching
// up is DEGRADED.
type CosmosRPC struct {
	Client        *http.Client
	HaltThreshold time.Duration
}

func NewCosmosRPC(halt time.Duration) *CosmosRPC {
	return &CosmosRPC{Client: &http.Client{}, HaltThreshold: halt}
}

type cometSyncInfo struct {
	LatestBlockHeight string    `json:"latest_block_height"`
	LatestBlockTime   time.Time `json:"latest_block_time"`
	CatchingUp        bool      `json:"catching_up"`
}

func (p *CosmosRPC) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()

	code, body, err := fetch(ctx, p.Client, strings.TrimRight(ep.URL, "/")+"/status")
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}
	if !httpOK(code) {
		return Result{Status: StatusDown, ResponseTimeMS: elapsedMS(start), Error: httpError(code)}, nil
	}

	var env struct {
		Result *struct {
			SyncInfo cometSyncInfo `json:"sync_info"`
		} `json:"result"`
		SyncInfo *cometSyncInfo `json:"sync_info"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Result{Status: StatusDown, ResponseTimeMS: elapsedMS(start), Error: "invalid status response"}, nil
	}
	var info cometSyncInfo
	switch {
	case env.Result != nil:
		info = env.Result.SyncInfo
	case env.SyncInfo != nil:
		info = *env.SyncInfo
	default:
		return Result{Status: StatusDown, ResponseTimeMS: elapsedMS(start), Error: "missing sync_info"}, nil
	}

	age := blockAgeSec(info.LatestBlockTime)
	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details: map[string]any{
			"blockAgeSec": age,
			"catchingUp":  info.CatchingUp,
		},
	}
	if h, err := strconv.ParseInt(info.LatestBlockHeight, 10, 64); err == nil {
		res.Details["blockHeight"] = h
	}

	p.addPeerCount(ctx, ep.URL, res.Details)

	if age > int64(p.HaltThreshold.Seconds()) {
		res.Status = StatusDegraded
		res.Error = fmt.Sprintf("no new blocks for %ds (possible chain halt)", age)
	} else if info.CatchingUp {
		res.Status = StatusDegraded
		res.Error = "node is catching up"
	}
	return res, nil
}

// addPeerCount is best-effort: any failure leaves the key absent.
func (p *CosmosRPC) addPeerCount(ctx context.Context, baseURL string, details map[string]any) {
	code, body, err := fetch(ctx, p.Client, strings.TrimRight(baseURL, "/")+"/net_info")
	if err != nil || !httpOK(code) {
		return
	}
	var env struct {
		Result *struct {
			NPeers string `json:"n_peers"`
		} `json:"result"`
		NPeers string `json:"n_peers"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return
	}
	raw := env.NPeers
	if env.Result != nil {
		raw = env.Result.NPeers
	}
	if n, err := strconv.Atoi(raw); err == nil {
		details["peers"] = n
	}
}

// CosmosREST checks a Cosmos SDK REST (LCD) endpoint via the latest block
// header, with a best-effort bonded-validator count.
type CosmosREST struct {
	Client        *http.Client
	HaltThreshold time.Duration
}

func NewCosmosREST(halt time.Duration) *CosmosREST {
	return &CosmosREST{Client: &http.Client{}, HaltThreshold: halt}
}

func (p *CosmosREST) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()

	base := strings.TrimRight(ep.URL, "/")
	code, body, err := fetch(ctx, p.Client, base+"/cosmos/base/tendermint/v1beta1/blocks/latest")
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}
	if !httpOK(code) {
		return Result{Status: StatusDown, ResponseTimeMS: elapsedMS(start), Error: httpError(code)}, nil
	}

	var env struct {
		Block *struct {
			Header struct {
				Height string    `json:"height"`
				Time   time.Time `json:"time"`
			} `json:"header"`
		} `json:"block"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Block == nil {
		return Result{Status: StatusDown, ResponseTimeMS: elapsedMS(start), Error: "missing block header"}, nil
	}

	age := blockAgeSec(env.Block.Header.Time)
	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details:        map[string]any{"blockAgeSec": age},
	}
	if h, err := strconv.ParseInt(env.Block.Header.Height, 10, 64); err == nil {
		res.Details["blockHeight"] = h
	}

	p.addBondedValidators(ctx, base, res.Details)

	if age > int64(p.HaltThreshold.Seconds()) {
		res.Status = StatusDegraded
		res.Error = fmt.Sprintf("no new blocks for %ds (possible chain halt)", age)
	}
	return res, nil
}

func (p *CosmosREST) addBondedValidators(ctx context.Context, base string, details map[string]any) {
	url := base + "/cosmos/staking/v1beta1/validators?status=BOND_STATUS_BONDED&pagination.limit=1&pagination.count_total=true"
	code, body, err := fetch(ctx, p.Client, url)
	if err != nil || !httpOK(code) {
		return
	}
	var env struct {
		Pagination struct {
			Total string `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return
	}
	if n, err := strconv.Atoi(env.Pagination.Total); err == nil {
		details["bondedValidators"] = n
	}
}

// blockAgeSec is the wall-clock age of the latest block, rounded to the
// nearest second. Clock skew can make it slightly negative; clamp to zero.
func blockAgeSec(blockTime time.Time) int64 {
	age := int64(math.Round(time.Since(blockTime).Seconds()))
	if age < 0 {
		return 0
	}
	return age
}
