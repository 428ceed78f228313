// Package collector implements seven of the eight independent producers:
// Link-Layer Neighbor, Wi-Fi, Bluetooth, mDNS, Socket, Routing/Topology,
// and Throughput. The eighth, Packet, lives in internal/packetpipe. Each
// fails closed — a
// collector never returns an error from Scan; on any internal failure it
// logs a concise reason and returns an empty Result (spec.md §4.2).
package collector

import (
	"context"
	"time"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

// Result is what a single scan contributes to the store: fresh entity
// observations and the relations between them.
type Result struct {
	Entities  []domain.Entity
	Relations []domain.Relation
}

// Empty reports whether a result carries nothing.
func (r Result) Empty() bool {
	return len(r.Entities) == 0 && len(r.Relations) == 0
}

// Polled is the contract for the five interval-scheduled collectors
// (Link-Layer, Wi-Fi, Bluetooth, Socket, Topology) plus Throughput.
type Polled interface {
	Name() string
	Interval() time.Duration
	Scan(ctx context.Context) Result
}

// EventUpdateFunc is invoked by an event-driven collector whenever its
// accumulated result changes.
type EventUpdateFunc func(Result)

// EventDriven is the contract for collectors that run their own loop
// rather than being polled — currently just mDNS. Snapshot returns the
// currently accumulated result without driving new work.
type EventDriven interface {
	Name() string
	Start(ctx context.Context, onUpdate EventUpdateFunc) error
	Stop()
	Snapshot() Result
}
