package orchestrator

import (
	"context"

	"github.com/InfinityBowman/network-vis/internal/packetpipe"
	"github.com/InfinityBowman/network-vis/internal/transport"
)

// PacketStart answers packet.start (spec.md §6): it resolves the capture
// interface and starts the pipeline, wiring enrichProtocols as the
// orchestrator-supplied flush hook (spec.md §4.4 "Enrichment flush").
func (o *Orchestrator) PacketStart(ctx context.Context, iface string) transport.PacketStartResult {
	if !o.packetCfg.Enabled {
		return transport.PacketStartResult{Success: false, Error: "packet capture is disabled in configuration"}
	}
	o.refreshCorrelationIndexSync()
	if err := o.packets.Start(ctx, iface, o.enrichProtocols); err != nil {
		return transport.PacketStartResult{Success: false, Error: err.Error()}
	}
	return transport.PacketStartResult{Success: true}
}

// PacketStop answers packet.stop (spec.md §6).
func (o *Orchestrator) PacketStop() {
	o.packets.Stop()
}

// PacketStatus answers packet.status (spec.md §6).
func (o *Orchestrator) PacketStatus() transport.PacketStatus {
	s := o.packets.Status()
	var iface *string
	if s.Interface != "" {
		iface = &s.Interface
	}
	return transport.PacketStatus{
		Available:     s.Available,
		HasPermission: s.HasPermission,
		Capturing:     s.Capturing,
		Interface:     iface,
		Interfaces:    s.Interfaces,
		Error:         s.Error,
	}
}

// PacketEvents answers packet.get_events: a snapshot copy of the ring
// (spec.md §6).
func (o *Orchestrator) PacketEvents() []packetpipe.PacketEvent {
	return o.packets.Events()
}

// refreshCorrelationIndexSync rebuilds the IP→entity index synchronously
// before capture starts, so the very first packets correlate correctly
// (spec.md §4.4 "rebuilt... on capture start").
func (o *Orchestrator) refreshCorrelationIndexSync() {
	o.submitWait(o.refreshCorrelationIndex)
}
