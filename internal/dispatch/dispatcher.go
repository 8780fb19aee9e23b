package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/statusboard/internal/probe"
	"github.com/hamed0406/statusboard/internal/registry"
)

// Dispatcher fans one check cycle out over the enabled registry. Probes run
// concurrently and in isolation: a panicking or failing probe only affects
// its own result.
type Dispatcher struct {
	Logger   *zap.Logger
	Registry registry.Registry

	evmRPC        probe.Checker
	cosmosRPC     probe.Checker
	cosmosREST    probe.Checker
	httpJSON      probe.Checker
	httpGet       probe.Checker
	httpReachable probe.Checker
	websocket     probe.Checker
	apiHealth     probe.Checker
	graphql       probe.Checker
	deepHealth    probe.Checker
	cosmosPeer    probe.Checker
}

func New(logger *zap.Logger, reg registry.Registry) *Dispatcher {
	halt := reg.HaltThreshold()
	return &Dispatcher{
		Logger:        logger,
		Registry:      reg,
		evmRPC:        probe.NewEVMRPC(),
		cosmosRPC:     probe.NewCosmosRPC(halt),
		cosmosREST:    probe.NewCosmosREST(halt),
		httpJSON:      probe.NewHTTPJSON(),
		httpGet:       probe.NewHTTPGet(),
		httpReachable: probe.NewHTTPReachable(),
		websocket:     probe.NewWebsocket(),
		apiHealth:     probe.NewAPIHealth(),
		graphql:       probe.NewGraphQL(),
		deepHealth:    probe.NewDeepHealth(),
		cosmosPeer:    probe.NewCosmosPeer(),
	}
}

// Run executes one check cycle and returns exactly one result per enabled
// endpoint matching opts. Wall time is bounded by the slowest probe, not the
// sum of timeouts.
func (d *Dispatcher) Run(ctx context.Context, opts registry.FilterOptions) []probe.Result {
	start := time.Now()
	cycleID := uuid.NewString()
	eps := d.Registry.Filter(opts)

	results := make([]probe.Result, len(eps))
	var wg sync.WaitGroup
	for i, ep := range eps {
		wg.Add(1)
		go func(i int, ep registry.Endpoint) {
			defer wg.Done()
			results[i] = d.checkOne(ctx, ep)
		}(i, ep)
	}
	wg.Wait()

	observeCycle(results, time.Since(start))
	d.Logger.Info("check_cycle_done",
		zap.String("cycle_id", cycleID),
		zap.Int("endpoints", len(eps)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}

func (d *Dispatcher) checkOne(ctx context.Context, ep registry.Endpoint) (res probe.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = d.stamp(ep, probe.Result{
				Status: probe.StatusDown,
				Error:  fmt.Sprintf("probe panic: %v", r),
			})
			d.Logger.Warn("probe_panic", zap.String("id", ep.ID), zap.Any("panic", r))
		}
	}()

	chk := d.checkerFor(ep.CheckType)
	if chk == nil {
		return d.stamp(ep, probe.Result{
			Status:         probe.StatusDown,
			ResponseTimeMS: 0,
			Error:          fmt.Sprintf("unknown check type: %s", ep.CheckType),
		})
	}

	cctx, cancel := context.WithTimeout(ctx, ep.Timeout())
	defer cancel()

	out, err := chk.Check(cctx, ep)
	if err != nil {
		if isConnRefused(err) && ep.Category == "validators" {
			out.Status = probe.StatusDegraded
			out.Error = "Unreachable (likely firewalled)"
		} else {
			out.Status = probe.StatusDown
			out.Error = err.Error()
		}
	}
	if out.Status != probe.StatusUp {
		d.Logger.Debug("probe_not_up",
			zap.String("id", ep.ID),
			zap.String("status", string(out.Status)),
			zap.String("error", out.Error),
		)
	}
	return d.stamp(ep, out)
}

// checkerFor is the explicit dispatch table; the nil default arm becomes the
// "unknown check type" result without any network call.
func (d *Dispatcher) checkerFor(ct registry.CheckType) probe.Checker {
	switch ct {
	case registry.CheckEVMRPC:
		return d.evmRPC
	case registry.CheckCosmosRPC:
		return d.cosmosRPC
	case registry.CheckCosmosREST:
		return d.cosmosREST
	case registry.CheckHTTPJSON:
		return d.httpJSON
	case registry.CheckHTTPGet:
		return d.httpGet
	case registry.CheckHTTPReachable:
		return d.httpReachable
	case registry.CheckWebsocket:
		return d.websocket
	case registry.CheckAPIHealth:
		return d.apiHealth
	case registry.CheckGraphQL:
		return d.graphql
	case registry.CheckDeepHealth:
		return d.deepHealth
	case registry.CheckCosmosPeer:
		return d.cosmosPeer
	default:
		return nil
	}
}

func (d *Dispatcher) stamp(ep registry.Endpoint, res probe.Result) probe.Result {
	res.ID = ep.ID
	res.Name = ep.DisplayName()
	res.Category = ep.Category
	res.Environment = ep.Environment
	res.Timestamp = time.Now().UTC()
	return res
}

// isConnRefused matches the connection-refused/reset/unreachable error class
// that the validator firewall rule reclassifies.
func isConnRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"connection refused",
		"connection reset",
		"no route to host",
		"host is unreachable",
		"network is unreachable",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
