package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/statusboard/internal/registry"
)

// EVMRPC checks a JSON-RPC node: latest block, chain id, sync state and
// peer count. Any failing call is a transport-class failure; a chain id
// mismatch or an actively syncing node is DEGRADED.
type EVMRPC struct {
	Client *http.Client
}

func NewEVMRPC() *EVMRPC {
	return &EVMRPC{Client: &http.Client{}}
}

func (p *EVMRPC) Check(ctx context.Context, ep registry.Endpoint) (Result, error) {
	start := time.Now()

	blockHex, err := p.call(ctx, ep.URL, "eth_blockNumber")
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}
	chainHex, err := p.call(ctx, ep.URL, "eth_chainId")
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}
	syncing, err := p.syncing(ctx, ep.URL)
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}
	peersHex, err := p.call(ctx, ep.URL, "net_peerCount")
	if err != nil {
		return Result{ResponseTimeMS: elapsedMS(start)}, err
	}

	res := Result{
		Status:         StatusUp,
		ResponseTimeMS: elapsedMS(start),
		Details:        map[string]any{"chainId": chainHex, "syncing": syncing},
	}
	if height, ok := parseHexUint(blockHex); ok {
		res.Details["blockHeight"] = height
	}
	if peers, ok := parseHexUint(peersHex); ok {
		res.Details["peers"] = peers
	}

	if ep.ExpectedChainID != "" && !chainIDEqual(ep.ExpectedChainID, chainHex) {
		res.Status = StatusDegraded
		res.Error = fmt.Sprintf("chain ID mismatch: expected %s, got %s", ep.ExpectedChainID, chainHex)
		return res, nil
	}
	if syncing {
		res.Status = StatusDegraded
		res.Error = "node is syncing"
	}
	return res, nil
}

// syncing calls eth_syncing, which returns false when synced and a progress
// object otherwise.
func (p *EVMRPC) syncing(ctx context.Context, url string) (bool, error) {
	raw, err := p.call(ctx, url, "eth_syncing")
	if err != nil {
		return false, err
	}
	return raw != "false", nil
}

// call performs one JSON-RPC round trip and returns the raw result token
// (hex string results come back unquoted).
func (p *EVMRPC) call(ctx context.Context, url, method string) (string, error) {
	payload, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []any{},
	})
	code, body, err := postJSON(ctx, p.Client, url, payload)
	if err != nil {
		return "", err
	}
	if !httpOK(code) {
		return "", fmt.Errorf("%s: %s", method, httpError(code))
	}

	var env struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("%s: invalid JSON-RPC response", method)
	}
	if env.Error != nil {
		return "", fmt.Errorf("%s: rpc error %d: %s", method, env.Error.Code, env.Error.Message)
	}
	if len(env.Result) == 0 {
		return "", fmt.Errorf("%s: empty result", method)
	}

	var s string
	if err := json.Unmarshal(env.Result, &s); err == nil {
		return s, nil
	}
	return string(env.Result), nil
}

func parseHexUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// chainIDEqual compares ids numerically when both sides parse (hex or
// decimal), so "0x1" matches "1"; otherwise it falls back to a
// case-insensitive string compare.
func chainIDEqual(want, got string) bool {
	wv, wok := parseChainID(want)
	gv, gok := parseChainID(got)
	if wok && gok {
		return wv == gv
	}
	return strings.EqualFold(want, got)
}

func parseChainID(s string) (uint64, bool) {
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		return parseHexUint(s)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
