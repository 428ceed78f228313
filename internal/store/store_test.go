package store

import (
	"reflect"
	"testing"
	"time"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

func TestUpsertPreservesFirstSeen(t *testing.T) {
	s := New()
	t0 := time.Unix(1000, 0)
	t1 := t0.Add(5 * time.Second)

	e := domain.Entity{ID: "lan-aa:bb:cc:dd:ee:ff", Type: domain.SignalLAN, Name: "thing"}
	got := s.Upsert(e, t0)
	if got.FirstSeen != t0.UnixMilli() {
		t.Fatalf("expected firstSeen %d, got %d", t0.UnixMilli(), got.FirstSeen)
	}

	got = s.Upsert(e, t1)
	if got.FirstSeen != t0.UnixMilli() {
		t.Errorf("firstSeen changed on re-observation: got %d, want %d", got.FirstSeen, t0.UnixMilli())
	}
	if got.LastSeen != t1.UnixMilli() {
		t.Errorf("lastSeen not bumped: got %d, want %d", got.LastSeen, t1.UnixMilli())
	}
	if got.Status != domain.StatusActive {
		t.Errorf("expected status active, got %s", got.Status)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	s1 := New()
	s2 := New()
	now := time.Unix(2000, 0)

	e := domain.Entity{ID: "wifi-home", Type: domain.SignalWiFiAP, Name: "Home"}
	s1.Upsert(e, now)
	s1.Upsert(e, now)
	s2.Upsert(e, now)

	got1, _ := s1.Get("wifi-home")
	got2, _ := s2.Get("wifi-home")
	if !reflect.DeepEqual(got1, got2) {
		t.Errorf("double upsert diverged from single upsert: %+v vs %+v", got1, got2)
	}
}

func TestPatchDoesNotTouchLifecycle(t *testing.T) {
	s := New()
	t0 := time.Unix(1000, 0)
	s.Upsert(domain.Entity{ID: "lan-x", Type: domain.SignalLAN, Name: "x"}, t0)

	before, _ := s.Get("lan-x")

	ok := s.Patch("lan-x", func(e *domain.Entity) {
		e.DeviceType = "printer"
	})
	if !ok {
		t.Fatal("expected patch to succeed")
	}

	after, _ := s.Get("lan-x")
	if after.LastSeen != before.LastSeen {
		t.Errorf("patch touched lastSeen: before=%d after=%d", before.LastSeen, after.LastSeen)
	}
	if after.Status != before.Status {
		t.Errorf("patch touched status: before=%s after=%s", before.Status, after.Status)
	}
	if after.DeviceType != "printer" {
		t.Errorf("patch did not apply field: got %q", after.DeviceType)
	}
}

func TestPatchNoopOnMissingID(t *testing.T) {
	s := New()
	if s.Patch("nonexistent", func(e *domain.Entity) {}) {
		t.Error("expected patch on missing id to report false")
	}
}

func TestTickLifecycle(t *testing.T) {
	s := New()
	th := DefaultThresholds()
	t0 := time.Unix(10_000, 0)
	s.Upsert(domain.Entity{ID: "lan-x", Type: domain.SignalLAN, Name: "x"}, t0)

	res := s.Tick(t0.Add(31*time.Second), th)
	if !res.Changed {
		t.Fatal("expected a status change at t+31s")
	}
	e, _ := s.Get("lan-x")
	if e.Status != domain.StatusStale {
		t.Errorf("expected stale at t+31s, got %s", e.Status)
	}

	res = s.Tick(t0.Add(61*time.Second), th)
	e, _ = s.Get("lan-x")
	if e.Status != domain.StatusExpired {
		t.Errorf("expected expired at t+61s, got %s", e.Status)
	}

	res = s.Tick(t0.Add(91*time.Second), th)
	if len(res.Removed) != 1 || res.Removed[0] != "lan-x" {
		t.Errorf("expected lan-x removed at t+91s, got %v", res.Removed)
	}
	if _, ok := s.Get("lan-x"); ok {
		t.Error("entity still present after removal tick")
	}
}

func TestHostExemptFromLifecycle(t *testing.T) {
	s := New()
	th := DefaultThresholds()
	t0 := time.Unix(5000, 0)
	s.Upsert(domain.Entity{ID: domain.HostID, Type: domain.SignalHost, Name: "host"}, t0)

	s.Tick(t0.Add(10*time.Hour), th)
	e, ok := s.Get(domain.HostID)
	if !ok {
		t.Fatal("host entity removed, should be exempt")
	}
	if e.Status != domain.StatusActive {
		t.Errorf("host status changed to %s, should remain active", e.Status)
	}
}

func TestRemoveEntityPrunesRelations(t *testing.T) {
	s := New()
	now := time.Unix(1, 0)
	s.Upsert(domain.Entity{ID: "lan-x", Type: domain.SignalLAN, Name: "x"}, now)
	s.Upsert(domain.Entity{ID: domain.HostID, Type: domain.SignalHost, Name: "host"}, now)
	s.UpsertRelation(domain.NewRelation("lan-x", domain.HostID, domain.RelationConnectedTo))

	s.Remove("lan-x")

	if len(s.SnapshotRelations()) != 0 {
		t.Error("expected relation referencing removed entity to be pruned")
	}
}

func TestMassRemovalSingleTick(t *testing.T) {
	s := New()
	th := DefaultThresholds()
	t0 := time.Unix(1, 0)
	for i := 0; i < 50; i++ {
		s.Upsert(domain.Entity{ID: "lan-" + string(rune('a'+i%26)) + string(rune(i)), Type: domain.SignalLAN}, t0)
	}

	res := s.Tick(t0.Add(91*time.Second), th)
	if len(res.Removed) != 50 {
		t.Errorf("expected 50 removed ids in a single tick, got %d", len(res.Removed))
	}
}

func TestUpsertRelationDeduplicates(t *testing.T) {
	s := New()
	r1 := domain.NewRelation("a", "b", domain.RelationConnectedTo)
	r2 := domain.NewRelation("a", "b", domain.RelationConnectedTo)
	s.UpsertRelation(r1)
	s.UpsertRelation(r2)

	if len(s.SnapshotRelations()) != 1 {
		t.Errorf("expected deduplicated relation set of size 1, got %d", len(s.SnapshotRelations()))
	}
}
