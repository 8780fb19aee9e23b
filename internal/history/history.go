package history

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statusboard/internal/probe"
)

// DefaultCapacity is the number of snapshots retained when none is
// configured.
const DefaultCapacity = 120

// Sample is the compact per-endpoint record inside a snapshot:
// status code 0=DOWN, 1=UP, 2=DEGRADED plus the measured response time.
type Sample struct {
	Status         int   `json:"s"`
	ResponseTimeMS int64 `json:"rt"`
}

// Snapshot summarises one check cycle. Only endpoints actually checked that
// cycle appear in Endpoints.
type Snapshot struct {
	T         time.Time         `json:"t"`
	Endpoints map[string]Sample `json:"ep"`
}

// Store is a fixed-capacity, time-ordered ring of snapshots with a
// best-effort persistence backend. Losing the backend loses history and
// nothing else; a cold start with a missing or corrupt backend is a normal
// empty store.
type Store struct {
	mu        sync.RWMutex
	capacity  int
	backend   Backend
	logger    *zap.Logger
	snapshots []Snapshot
}

// NewStore loads persisted snapshots from backend. Any load or decode
// failure silently resets to empty.
func NewStore(capacity int, backend Backend, logger *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{capacity: capacity, backend: backend, logger: logger}
	s.load()
	return s
}

func (s *Store) load() {
	if s.backend == nil {
		return
	}
	data, err := s.backend.Load()
	if err != nil || len(data) == 0 {
		if err != nil {
			s.logger.Info("history_load_reset", zap.Error(err))
		}
		return
	}
	var snaps []Snapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		s.logger.Info("history_load_reset", zap.Error(err))
		return
	}
	if over := len(snaps) - s.capacity; over > 0 {
		snaps = snaps[over:]
	}
	s.snapshots = snaps
}

// Append builds a snapshot from one cycle's results, pushes it and persists
// best-effort.
func (s *Store) Append(results []probe.Result) Snapshot {
	return s.AppendAt(time.Now().UTC(), results)
}

// AppendAt is Append with an explicit capture time.
func (s *Store) AppendAt(t time.Time, results []probe.Result) Snapshot {
	snap := Snapshot{T: t, Endpoints: make(map[string]Sample, len(results))}
	for _, r := range results {
		snap.Endpoints[r.ID] = Sample{
			Status:         r.Status.Code(),
			ResponseTimeMS: r.ResponseTimeMS,
		}
	}

	s.mu.Lock()
	s.snapshots = append(s.snapshots, snap)
	if over := len(s.snapshots) - s.capacity; over > 0 {
		s.snapshots = append(s.snapshots[:0], s.snapshots[over:]...)
	}
	data, err := json.Marshal(s.snapshots)
	s.mu.Unlock()

	if s.backend != nil {
		if err == nil {
			err = s.backend.Save(data)
		}
		if err != nil {
			s.logger.Warn("history_save_failed", zap.Error(err))
		}
	}
	return snap
}

// Snapshots returns a copy of the retained window, oldest first.
func (s *Store) Snapshots() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}

// Len reports the number of retained snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
