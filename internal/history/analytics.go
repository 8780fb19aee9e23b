package history

import (
	"math"
	"sort"
	"time"

	"github.com/hamed0406/statusboard/internal/probe"
)

// DownSentinel is the sparkline value for a snapshot where the endpoint was
// DOWN, letting the renderer draw a visible drop instead of a gap.
const DownSentinel int64 = -1

// Sparklines returns, for each endpoint present in the latest snapshot, a
// per-snapshot value series across the full retained window: the response
// time when UP or DEGRADED, DownSentinel when DOWN, and nil for cycles where
// the endpoint was not checked.
func (s *Store) Sparklines() map[string][]*int64 {
	snaps := s.Snapshots()
	if len(snaps) == 0 {
		return map[string][]*int64{}
	}

	latest := snaps[len(snaps)-1]
	out := make(map[string][]*int64, len(latest.Endpoints))
	for id := range latest.Endpoints {
		series := make([]*int64, len(snaps))
		for i, snap := range snaps {
			sample, checked := snap.Endpoints[id]
			if !checked {
				continue
			}
			v := sample.ResponseTimeMS
			if probe.FromCode(sample.Status) == probe.StatusDown {
				v = DownSentinel
			}
			series[i] = &v
		}
		out[id] = series
	}
	return out
}

// Uptimes computes the UP percentage over the snapshots each endpoint was
// present in, two decimal places, for every endpoint in the latest snapshot.
// Zero observations default to 100.
func (s *Store) Uptimes() map[string]float64 {
	snaps := s.Snapshots()
	if len(snaps) == 0 {
		return map[string]float64{}
	}

	latest := snaps[len(snaps)-1]
	out := make(map[string]float64, len(latest.Endpoints))
	for id := range latest.Endpoints {
		present, up := 0, 0
		for _, snap := range snaps {
			sample, checked := snap.Endpoints[id]
			if !checked {
				continue
			}
			present++
			if probe.FromCode(sample.Status) == probe.StatusUp {
				up++
			}
		}
		if present == 0 {
			out[id] = 100
			continue
		}
		out[id] = round2(float64(up) / float64(present) * 100)
	}
	return out
}

// Incident records one status transition between two adjacent snapshots in
// which the endpoint was present.
type Incident struct {
	ID   string       `json:"id"`
	From probe.Status `json:"from"`
	To   probe.Status `json:"to"`
	At   time.Time    `json:"at"`
}

// Incidents scans the retained window chronologically and returns every
// status transition, newest first. The first sighting of an endpoint seeds
// its baseline and emits nothing.
func (s *Store) Incidents() []Incident {
	snaps := s.Snapshots()

	last := make(map[string]int)
	var incidents []Incident
	for _, snap := range snaps {
		for _, id := range sortedIDs(snap.Endpoints) {
			cur := snap.Endpoints[id].Status
			prev, seen := last[id]
			if seen && prev != cur {
				incidents = append(incidents, Incident{
					ID:   id,
					From: probe.FromCode(prev),
					To:   probe.FromCode(cur),
					At:   snap.T,
				})
			}
			last[id] = cur
		}
	}

	// Chronological scan, newest-first contract.
	for i, j := 0, len(incidents)-1; i < j; i, j = i+1, j-1 {
		incidents[i], incidents[j] = incidents[j], incidents[i]
	}
	return incidents
}

func sortedIDs(m map[string]Sample) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
