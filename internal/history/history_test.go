package history

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statusboard/internal/probe"
)

func upResult(id string, rt int64) probe.Result {
	return probe.Result{ID: id, Status: probe.StatusUp, ResponseTimeMS: rt}
}

func downResult(id string) probe.Result {
	return probe.Result{ID: id, Status: probe.StatusDown, Error: "boom"}
}

func TestAppend_EvictsOldestAtCapacity(t *testing.T) {
	s := NewStore(3, NewMemoryBackend(), zap.NewNop())

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s.AppendAt(base.Add(time.Duration(i)*time.Minute), []probe.Result{upResult("a", 10)})
	}

	snaps := s.Snapshots()
	if len(snaps) != 3 {
		t.Fatalf("want capacity 3 retained, got %d", len(snaps))
	}
	if !snaps[0].T.Equal(base.Add(1 * time.Minute)) {
		t.Fatalf("oldest retained should be the second appended, got %v", snaps[0].T)
	}
	if !snaps[2].T.Equal(base.Add(3 * time.Minute)) {
		t.Fatalf("newest wrong: %v", snaps[2].T)
	}
}

func TestAppend_CompactEncoding(t *testing.T) {
	s := NewStore(10, nil, nil)
	snap := s.Append([]probe.Result{
		upResult("a", 42),
		downResult("b"),
		{ID: "c", Status: probe.StatusDegraded, ResponseTimeMS: 7},
	})

	if snap.Endpoints["a"] != (Sample{Status: 1, ResponseTimeMS: 42}) {
		t.Fatalf("UP encoding wrong: %+v", snap.Endpoints["a"])
	}
	if snap.Endpoints["b"].Status != 0 {
		t.Fatalf("DOWN should encode as 0: %+v", snap.Endpoints["b"])
	}
	if snap.Endpoints["c"].Status != 2 {
		t.Fatalf("DEGRADED should encode as 2: %+v", snap.Endpoints["c"])
	}
}

func TestNewStore_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	backend := NewFileBackend(path)

	s := NewStore(5, backend, zap.NewNop())
	s.AppendAt(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), []probe.Result{upResult("a", 33)})
	s.AppendAt(time.Date(2026, 8, 1, 12, 1, 0, 0, time.UTC), []probe.Result{downResult("a")})

	reloaded := NewStore(5, NewFileBackend(path), zap.NewNop())
	if reloaded.Len() != 2 {
		t.Fatalf("want 2 reloaded snapshots, got %d", reloaded.Len())
	}
	snaps := reloaded.Snapshots()
	if snaps[1].Endpoints["a"].Status != 0 {
		t.Fatalf("reloaded snapshot lost data: %+v", snaps[1])
	}
}

func TestNewStore_CorruptBackendResetsToEmpty(t *testing.T) {
	backend := NewMemoryBackend()
	backend.Seed([]byte("{not json"))

	s := NewStore(5, backend, zap.NewNop())
	if s.Len() != 0 {
		t.Fatalf("corrupt backend should reset to empty, got %d snapshots", s.Len())
	}
}

func TestNewStore_LoadErrorResetsToEmpty(t *testing.T) {
	backend := NewMemoryBackend()
	backend.LoadErr = errors.New("disk on fire")

	s := NewStore(5, backend, zap.NewNop())
	if s.Len() != 0 {
		t.Fatalf("load failure should reset to empty, got %d", s.Len())
	}
}

func TestNewStore_TrimsOversizedPersistedState(t *testing.T) {
	snaps := make([]Snapshot, 6)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range snaps {
		snaps[i] = Snapshot{T: base.Add(time.Duration(i) * time.Minute), Endpoints: map[string]Sample{}}
	}
	data, _ := json.Marshal(snaps)
	backend := NewMemoryBackend()
	backend.Seed(data)

	s := NewStore(4, backend, zap.NewNop())
	if s.Len() != 4 {
		t.Fatalf("want oversized state trimmed to 4, got %d", s.Len())
	}
	if !s.Snapshots()[0].T.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("trim should drop from the front: %v", s.Snapshots()[0].T)
	}
}

func TestAppend_SaveFailureIsNonFatal(t *testing.T) {
	backend := NewMemoryBackend()
	backend.SaveErr = errors.New("read-only filesystem")

	s := NewStore(5, backend, zap.NewNop())
	s.Append([]probe.Result{upResult("a", 1)})
	if s.Len() != 1 {
		t.Fatalf("append must survive a failing save, got %d", s.Len())
	}
}
