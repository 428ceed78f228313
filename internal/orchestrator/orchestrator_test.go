package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/InfinityBowman/network-vis/internal/config"
	"github.com/InfinityBowman/network-vis/internal/fingerprint"
	"github.com/InfinityBowman/network-vis/internal/transport"
)

type fakePublisher struct {
	mu          sync.Mutex
	fullStates  []transport.FullState
	updates     []transport.Update
	topologies  []transport.TopologyPayload
	packetEvents []transport.PacketEventPayload
}

func (f *fakePublisher) BroadcastFullState(payload transport.FullState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullStates = append(f.fullStates, payload)
}

func (f *fakePublisher) BroadcastUpdate(payload transport.Update) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, payload)
}

func (f *fakePublisher) BroadcastTopology(payload transport.TopologyPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topologies = append(f.topologies, payload)
}

func (f *fakePublisher) BroadcastPacketEvent(payload transport.PacketEventPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packetEvents = append(f.packetEvents, payload)
}

func newTestOrchestrator() (*Orchestrator, *fakePublisher) {
	pub := &fakePublisher{}
	o := New(config.DefaultConfig(), pub)
	go o.writerLoop(context.Background())
	return o, pub
}

func TestPauseSuppressesPolledDispatchFlag(t *testing.T) {
	o, _ := newTestOrchestrator()
	if o.isPaused() {
		t.Fatal("expected orchestrator to start unpaused")
	}
	o.Pause()
	if !o.isPaused() {
		t.Error("expected paused after Pause()")
	}
	o.Resume()
	if o.isPaused() {
		t.Error("expected unpaused after Resume()")
	}
}

func TestReadyToPublishGatesOnBothSignals(t *testing.T) {
	o, _ := newTestOrchestrator()

	if o.readyToPublish() {
		t.Fatal("should not be ready before transport or initial scan")
	}

	o.readyMu.Lock()
	o.initialDone = true
	o.readyMu.Unlock()
	if o.readyToPublish() {
		t.Fatal("should not be ready with only initial scan done")
	}

	o.readyMu.Lock()
	o.transportUp = true
	o.readyMu.Unlock()
	if !o.readyToPublish() {
		t.Fatal("expected ready once both signals are set")
	}

	// Once published, stays ready even if flags are cleared.
	o.readyMu.Lock()
	o.transportUp = false
	o.readyMu.Unlock()
	if !o.readyToPublish() {
		t.Error("expected readiness to stick after first publish")
	}
}

func TestReadyReflectsPublishedState(t *testing.T) {
	o, _ := newTestOrchestrator()
	if o.Ready() {
		t.Fatal("expected not ready before any publish")
	}
	o.readyMu.Lock()
	o.published = true
	o.readyMu.Unlock()
	if !o.Ready() {
		t.Error("expected ready after published flag set")
	}
}

func TestTelemetryRecordsPerCollectorRun(t *testing.T) {
	o, _ := newTestOrchestrator()
	o.telemetry.record("linklayer", 5*time.Millisecond, collectorCounts{entities: 2, relations: 1})

	snap := o.Telemetry()
	if len(snap) != 1 {
		t.Fatalf("expected 1 telemetry entry, got %d", len(snap))
	}
	if snap[0].Name != "linklayer" {
		t.Errorf("expected name linklayer, got %q", snap[0].Name)
	}
	if snap[0].EntityCount != 2 || snap[0].RelationCount != 1 {
		t.Errorf("unexpected counts: %+v", snap[0])
	}
	if snap[0].Empty {
		t.Error("expected Empty=false when counts are nonzero")
	}
}

func TestTelemetryMarksEmptyRun(t *testing.T) {
	o, _ := newTestOrchestrator()
	o.telemetry.record("bluetooth", time.Millisecond, collectorCounts{})

	snap := o.Telemetry()
	if len(snap) != 1 || !snap[0].Empty {
		t.Fatalf("expected a single empty telemetry entry, got %+v", snap)
	}
}

func TestSnapshotProbesReturnsACopy(t *testing.T) {
	o, _ := newTestOrchestrator()
	o.activeProbes["host-1"] = fingerprint.ActiveProbeResult{Family: "linux", Confidence: 0.9}
	snap := o.snapshotProbes()
	snap["host-2"] = snap["host-1"]

	o.activeProbesMu.Lock()
	_, ok := o.activeProbes["host-2"]
	o.activeProbesMu.Unlock()
	if ok {
		t.Error("mutating the snapshot leaked into the orchestrator's own map")
	}
}
