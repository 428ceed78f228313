package orchestrator

import (
	"sync"
	"time"

	"github.com/InfinityBowman/network-vis/internal/transport"
)

type telemetryStore struct {
	mu     sync.Mutex
	byName map[string]transport.CollectorTelemetry
}

func newTelemetryStore() *telemetryStore {
	return &telemetryStore{byName: make(map[string]transport.CollectorTelemetry)}
}

func (t *telemetryStore) record(name string, dur time.Duration, counts collectorCounts) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[name] = transport.CollectorTelemetry{
		Name:           name,
		LastRunUnixMs:  time.Now().UnixMilli(),
		LastDurationMs: dur.Milliseconds(),
		EntityCount:    counts.entities,
		RelationCount:  counts.relations,
		Empty:          counts.entities == 0 && counts.relations == 0,
	}
}

func (t *telemetryStore) snapshot() []transport.CollectorTelemetry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]transport.CollectorTelemetry, 0, len(t.byName))
	for _, v := range t.byName {
		out = append(out, v)
	}
	return out
}

// collectorCounts avoids importing internal/collector here just to read
// two slice lengths off a Result.
type collectorCounts struct {
	entities  int
	relations int
}

// Telemetry answers a health-reporting surface over every collector's
// last run (SPEC_FULL.md "Readiness/health reporting").
func (o *Orchestrator) Telemetry() []transport.CollectorTelemetry {
	return o.telemetry.snapshot()
}

// Ready reports whether the orchestrator has completed its initial scan
// and transport is accepting clients, i.e. whether the first snapshot has
// gone out (spec.md §4.6 "Initial-readiness gate").
func (o *Orchestrator) Ready() bool {
	o.readyMu.Lock()
	defer o.readyMu.Unlock()
	return o.published
}
