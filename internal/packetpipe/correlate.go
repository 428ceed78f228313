package packetpipe

import "sync"

// correlationIndex maps an IP to the entity id responsible for it, with a
// parallel set of Host IPs used for aggregation exclusion. It is rebuilt on
// demand by the orchestrator after every Link-Layer scan and on capture
// start (spec.md §4.4 "Correlation", GLOSSARY "Correlation index").
type correlationIndex struct {
	mu       sync.RWMutex
	ipToID   map[string]string
	hostIPs  map[string]bool
}

func newCorrelationIndex() *correlationIndex {
	return &correlationIndex{
		ipToID:  make(map[string]string),
		hostIPs: make(map[string]bool),
	}
}

// Set replaces the index wholesale. hostIPs all map to domain.HostID by the
// caller before calling Set, so lookups never need a separate host check.
func (c *correlationIndex) Set(ipToID map[string]string, hostIPs map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ipToID = ipToID
	c.hostIPs = hostIPs
}

// Resolve maps an IP to an entity id, or "" if unknown.
func (c *correlationIndex) Resolve(ip string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ipToID[ip]
}

// IsHost reports whether ip belongs to this machine.
func (c *correlationIndex) IsHost(ip string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hostIPs[ip]
}

// resolveNode picks the entity id to attribute a packet to: prefer the
// non-Host side, else any resolved side (spec.md §4.4 "Correlation").
func (c *correlationIndex) resolveNode(srcIP, dstIP string) (nodeID string, ok bool) {
	srcID := c.Resolve(srcIP)
	dstID := c.Resolve(dstIP)
	srcIsHost := c.IsHost(srcIP)
	dstIsHost := c.IsHost(dstIP)

	if dstID != "" && !dstIsHost {
		return dstID, true
	}
	if srcID != "" && !srcIsHost {
		return srcID, true
	}
	if dstID != "" {
		return dstID, true
	}
	if srcID != "" {
		return srcID, true
	}
	return "", false
}
