package orchestrator

import (
	"context"

	"github.com/InfinityBowman/network-vis/internal/fingerprint"
	"github.com/InfinityBowman/network-vis/internal/transport"
)

// NmapScan answers os.nmap_scan (spec.md §6): a single on-demand OS
// detection probe, distinct from the continuous passive fingerprinting.
// On success it records the result for the fingerprinter's weighted
// signal set but never patches the store directly (spec.md §7 "Active
// probe failure" — and more generally, only the fingerprinter's own
// Apply pass ever patches OS fields).
func (o *Orchestrator) NmapScan(ctx context.Context, ip string) transport.NmapScanResult {
	if !o.nmapCfg.Enabled {
		return transport.NmapScanResult{Success: false, IP: ip, Error: "nmap probing is disabled in configuration"}
	}
	if d := o.nmapCfg.Timeout.Duration(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	result := o.nmap.Probe(ctx, ip)
	if !result.Success {
		return transport.NmapScanResult{Success: false, IP: ip, Error: result.Error}
	}

	entityID := o.resolveEntityIDForIP(ip)
	if entityID != "" {
		o.activeProbesMu.Lock()
		o.activeProbes[entityID] = fingerprint.ActiveProbeResult{
			Family:     result.OSFamily,
			Confidence: result.Confidence,
		}
		o.activeProbesMu.Unlock()
		o.submit(func() {
			o.fingerprint.Apply(o.store, o.snapshotProbes())
			o.publish(nil)
		})
	}

	return transport.NmapScanResult{
		Success:    true,
		IP:         ip,
		OSFamily:   result.OSFamily,
		OSVersion:  result.OSVersion,
		Confidence: result.Confidence,
	}
}

// NmapStatus answers os.nmap_status (spec.md §6). A probe disabled by
// configuration reports unavailable regardless of the binary's presence.
func (o *Orchestrator) NmapStatus(ctx context.Context) transport.NmapStatus {
	if !o.nmapCfg.Enabled {
		return transport.NmapStatus{Available: false}
	}
	return transport.NmapStatus{Available: o.nmap.Available(ctx)}
}

func (o *Orchestrator) resolveEntityIDForIP(ip string) string {
	id := ""
	o.submitWait(func() {
		for _, e := range o.store.SnapshotEntities() {
			if e.IP == ip {
				id = e.ID
				return
			}
		}
	})
	return id
}
