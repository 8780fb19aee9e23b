package registry

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CheckType selects which probe is run against an endpoint.
type CheckType string

const (
	CheckEVMRPC        CheckType = "evm-rpc"
	CheckCosmosRPC     CheckType = "cosmos-rpc"
	CheckCosmosREST    CheckType = "cosmos-rest"
	CheckHTTPJSON      CheckType = "http-json"
	CheckHTTPGet       CheckType = "http-get"
	CheckHTTPReachable CheckType = "http-reachable"
	CheckWebsocket     CheckType = "websocket"
	CheckAPIHealth     CheckType = "api-health"
	CheckGraphQL       CheckType = "graphql"
	CheckDeepHealth    CheckType = "deep-health"
	CheckCosmosPeer    CheckType = "cosmos-peer-check"
)

// DefaultHaltThresholdSec is the maximum acceptable block age before a chain
// endpoint is reported as possibly halted.
const DefaultHaltThresholdSec = 60

const defaultTimeout = 10 * time.Second

// Endpoint describes one monitored target. The registry owns these; the core
// only reads them.
type Endpoint struct {
	ID              string    `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	URL             string    `yaml:"url" json:"url"`
	CheckType       CheckType `yaml:"check_type" json:"check_type"`
	TimeoutMS       int       `yaml:"timeout_ms" json:"timeout_ms,omitempty"`
	Enabled         *bool     `yaml:"enabled" json:"enabled,omitempty"`
	Category        string    `yaml:"category" json:"category,omitempty"`
	Environment     string    `yaml:"environment" json:"environment,omitempty"`
	ExpectedChainID string    `yaml:"expected_chain_id" json:"expected_chain_id,omitempty"`
	ExpectedField   string    `yaml:"expected_field" json:"expected_field,omitempty"`
	PeerIP          string    `yaml:"peer_ip" json:"peer_ip,omitempty"`
	PublicRPC       string    `yaml:"public_rpc" json:"public_rpc,omitempty"`
	HealthURL       string    `yaml:"health_url" json:"health_url,omitempty"`
	DependsOn       []string  `yaml:"depends_on" json:"depends_on,omitempty"`
	Impacts         []string  `yaml:"impacts" json:"impacts,omitempty"`
}

// IsEnabled treats an unset enabled flag as true.
func (e Endpoint) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// Timeout returns the per-endpoint probe timeout, defaulting when unset.
func (e Endpoint) Timeout() time.Duration {
	if e.TimeoutMS <= 0 {
		return defaultTimeout
	}
	return time.Duration(e.TimeoutMS) * time.Millisecond
}

// DisplayName falls back to the id when no name is configured.
func (e Endpoint) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Group is opaque display metadata passed through to the dashboard.
type Group struct {
	Name      string   `yaml:"name" json:"name"`
	Label     string   `yaml:"label" json:"label"`
	Endpoints []string `yaml:"endpoints" json:"endpoints"`
}

// Registry is the static endpoint configuration consumed by the core.
type Registry struct {
	HaltThresholdSec int        `yaml:"halt_threshold_sec" json:"halt_threshold_sec"`
	Endpoints        []Endpoint `yaml:"endpoints" json:"endpoints"`
	Groups           []Group    `yaml:"groups" json:"groups,omitempty"`
}

// HaltThreshold returns the configured block-age limit.
func (r Registry) HaltThreshold() time.Duration {
	sec := r.HaltThresholdSec
	if sec <= 0 {
		sec = DefaultHaltThresholdSec
	}
	return time.Duration(sec) * time.Second
}

// FilterOptions optionally restricts a check cycle by classification tags.
type FilterOptions struct {
	Category    string
	Environment string
}

// Filter returns the enabled endpoints matching opts, preserving registry order.
func (r Registry) Filter(opts FilterOptions) []Endpoint {
	out := make([]Endpoint, 0, len(r.Endpoints))
	for _, ep := range r.Endpoints {
		if !ep.IsEnabled() {
			continue
		}
		if opts.Category != "" && ep.Category != opts.Category {
			continue
		}
		if opts.Environment != "" && ep.Environment != opts.Environment {
			continue
		}
		out = append(out, ep)
	}
	return out
}

// ByID looks an endpoint up by its id.
func (r Registry) ByID(id string) (Endpoint, bool) {
	for _, ep := range r.Endpoints {
		if ep.ID == id {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// Load reads and validates a registry file.
func Load(path string) (Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Registry{}, fmt.Errorf("read registry: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(content, &reg); err != nil {
		return Registry{}, fmt.Errorf("parse registry: %w", err)
	}
	if reg.HaltThresholdSec <= 0 {
		reg.HaltThresholdSec = DefaultHaltThresholdSec
	}
	if err := reg.validate(); err != nil {
		return Registry{}, err
	}
	return reg, nil
}

func (r Registry) validate() error {
	if len(r.Endpoints) == 0 {
		return errors.New("registry must define at least one endpoint")
	}
	seen := make(map[string]struct{}, len(r.Endpoints))
	for i, ep := range r.Endpoints {
		if ep.ID == "" {
			return fmt.Errorf("endpoint %d is missing id", i)
		}
		if _, dup := seen[ep.ID]; dup {
			return fmt.Errorf("duplicate endpoint id %q", ep.ID)
		}
		seen[ep.ID] = struct{}{}
		if ep.URL == "" {
			return fmt.Errorf("endpoint %s is missing url", ep.ID)
		}
		if ep.CheckType == "" {
			return fmt.Errorf("endpoint %s is missing check_type", ep.ID)
		}
	}
	return nil
}
