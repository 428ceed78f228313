package transport

import (
	"github.com/InfinityBowman/network-vis/internal/domain"
	"github.com/InfinityBowman/network-vis/internal/packetpipe"
)

// FullState is sent on control.get_full_state and once on initial
// readiness (spec.md §4.6 "Publishing").
type FullState struct {
	Type      string           `json:"type"`
	Entities  []domain.Entity  `json:"entities"`
	Relations []domain.Relation `json:"relations"`
	Timestamp int64            `json:"timestamp"`
}

func NewFullState(entities []domain.Entity, relations []domain.Relation, now int64) FullState {
	return FullState{Type: "full_state", Entities: entities, Relations: relations, Timestamp: now}
}

// Update is sent after any scan or lifecycle change. Both payloads carry
// the complete current entity and relation set; Removed is delta
// information for consumers that cache (spec.md §4.6, §8 invariant 6).
type Update struct {
	Type      string            `json:"type"`
	Entities  []domain.Entity   `json:"entities"`
	Relations []domain.Relation `json:"relations"`
	Removed   []string          `json:"removed"`
	Timestamp int64             `json:"timestamp"`
}

func NewUpdate(entities []domain.Entity, relations []domain.Relation, removed []string, now int64) Update {
	if removed == nil {
		removed = []string{}
	}
	return Update{Type: "node_update", Entities: entities, Relations: relations, Removed: removed, Timestamp: now}
}

// TopologyPayload is publish.topology (spec.md §6).
type TopologyPayload struct {
	Type    string          `json:"type"`
	Subnets []domain.Subnet `json:"subnets"`
}

func NewTopologyPayload(subnets []domain.Subnet) TopologyPayload {
	return TopologyPayload{Type: "topology", Subnets: subnets}
}

// PacketEventPayload wraps a single packet.event (spec.md §6).
type PacketEventPayload struct {
	Type  string                `json:"type"`
	Event packetpipe.PacketEvent `json:"event"`
}

func NewPacketEventPayload(e packetpipe.PacketEvent) PacketEventPayload {
	return PacketEventPayload{Type: "packet.event", Event: e}
}

// NmapScanResult answers os.nmap_scan (spec.md §6).
type NmapScanResult struct {
	Success    bool    `json:"success"`
	IP         string  `json:"ip"`
	OSFamily   string  `json:"osFamily,omitempty"`
	OSVersion  string  `json:"osVersion,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// NmapStatus answers os.nmap_status (spec.md §6).
type NmapStatus struct {
	Available bool `json:"available"`
}

// PacketStatus answers packet.status (spec.md §6).
type PacketStatus struct {
	Available     bool     `json:"available"`
	HasPermission bool     `json:"hasPermission"`
	Capturing     bool     `json:"capturing"`
	Interface     *string  `json:"interface"`
	Interfaces    []string `json:"interfaces"`
	Error         string   `json:"error,omitempty"`
}

// PacketStartResult answers packet.start (spec.md §6).
type PacketStartResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CollectorTelemetry is the last-run operability snapshot for one
// collector, surfaced on the health endpoint (SPEC_FULL.md "Per-collector
// last-run telemetry").
type CollectorTelemetry struct {
	Name          string `json:"name"`
	LastRunUnixMs int64  `json:"last_run_unix_ms"`
	LastDurationMs int64 `json:"last_duration_ms"`
	EntityCount   int    `json:"entity_count"`
	RelationCount int    `json:"relation_count"`
	Empty         bool   `json:"empty"`
}

// HealthStatus answers control.health (SPEC_FULL.md "Readiness/health
// reporting").
type HealthStatus struct {
	Ready     bool                 `json:"ready"`
	Collectors []CollectorTelemetry `json:"collectors"`
}
