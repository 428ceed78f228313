package packetpipe

// aggregates accumulates per-IP protocol, byte, and packet counters for
// entities that are not the Host (spec.md §4.4 "Per-packet work" step 2).
type aggregates struct {
	protocolsByIP map[string]map[string]int64
	bytesByIP     map[string]int64
	packetsByIP   map[string]int64
}

func newAggregates() *aggregates {
	return &aggregates{
		protocolsByIP: make(map[string]map[string]int64),
		bytesByIP:     make(map[string]int64),
		packetsByIP:   make(map[string]int64),
	}
}

func (a *aggregates) record(ip, protocol string, length int) {
	if a.protocolsByIP[ip] == nil {
		a.protocolsByIP[ip] = make(map[string]int64)
	}
	a.protocolsByIP[ip][protocol]++
	a.bytesByIP[ip] += int64(length)
	a.packetsByIP[ip]++
}

func (a *aggregates) reset() {
	a.protocolsByIP = make(map[string]map[string]int64)
	a.bytesByIP = make(map[string]int64)
	a.packetsByIP = make(map[string]int64)
}
