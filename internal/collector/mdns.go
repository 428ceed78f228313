package collector

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

// commonServiceTypes are browsed unconditionally on start (spec.md §4.2.4).
var commonServiceTypes = []string{
	"_airplay._tcp", "_raop._tcp", "_googlecast._tcp", "_spotify-connect._tcp",
	"_hue._tcp", "_printer._tcp", "_ipp._tcp", "_ipps._tcp", "_homekit._tcp",
	"_hap._tcp", "_smb._tcp", "_afpovertcp._tcp", "_ssh._tcp", "_http._tcp",
	"_https._tcp", "_sonos._tcp", "_airport._tcp", "_workstation._tcp",
	"_device-info._tcp", "_rfb._tcp",
}

const (
	mdnsDynamicDiscoveryTimeout = 5 * time.Second
)

// MDNS is the event-driven mDNS/DNS-SD collector. It retains state across
// scans: Snapshot returns whatever has been discovered so far without
// driving new browsing (spec.md §4.2.4, §9 "event-driven collectors as
// state machines").
type MDNS struct {
	mu       sync.Mutex
	entities map[string]domain.Entity
	onUpdate EventUpdateFunc

	cancel context.CancelFunc
}

func NewMDNS() *MDNS {
	return &MDNS{entities: make(map[string]domain.Entity)}
}

func (c *MDNS) Name() string { return "mdns" }

func (c *MDNS) Start(ctx context.Context, onUpdate EventUpdateFunc) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.onUpdate = onUpdate
	c.cancel = cancel
	c.mu.Unlock()

	types := append([]string{}, commonServiceTypes...)
	types = append(types, c.discoverDynamicTypes(ctx)...)

	for _, svcType := range dedupe(types) {
		if err := c.browse(runCtx, svcType); err != nil {
			log.Printf("mdns: skipping browser for %s: %v", svcType, err)
			continue
		}
	}

	return nil
}

func (c *MDNS) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *MDNS) Snapshot() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *MDNS) currentLocked() Result {
	res := Result{Entities: make([]domain.Entity, 0, len(c.entities))}
	for _, e := range c.entities {
		res.Entities = append(res.Entities, e)
		res.Relations = append(res.Relations, domain.NewRelation(e.ID, domain.HostID, domain.RelationHostsService))
	}
	return res
}

// browse registers a zeroconf browser for svcType. Construction errors are
// swallowed per-type; mDNS must never abort its session over one bad type
// (spec.md §7).
func (c *MDNS) browse(ctx context.Context, svcType string) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return err
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	go func() {
		for entry := range entries {
			c.applyEntry(svcType, entry)
		}
	}()

	return resolver.Browse(ctx, svcType, "local.", entries)
}

func (c *MDNS) applyEntry(svcType string, entry *zeroconf.ServiceEntry) {
	ip := ""
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	key := entry.Instance
	if key == "" {
		key = entry.HostName
	}
	id := fmt.Sprintf("bonjour-%s-%s", svcType, strings.ReplaceAll(key, " ", "-"))

	e := domain.Entity{
		ID:          id,
		Type:        domain.SignalMDNS,
		Name:        key,
		IP:          ip,
		ServiceType: normalizeServiceType(svcType),
		Port:        entry.Port,
		Host:        entry.HostName,
	}

	c.mu.Lock()
	c.entities[id] = e
	onUpdate := c.onUpdate
	snapshot := c.currentLocked()
	c.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot)
	}
}

// discoverDynamicTypes runs the OS dynamic discovery command for a fixed
// window and returns any additional service types it surfaced. Partial
// stdout captured before the deadline kills the process is valid input
// (spec.md §4.2.4, §5).
func (c *MDNS) discoverDynamicTypes(ctx context.Context) []string {
	out, _ := runWithTimeout(ctx, mdnsDynamicDiscoveryTimeout, "dns-sd", "-B", "_services._dns-sd._udp", "local.")

	var types []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		for _, f := range fields {
			if strings.HasPrefix(f, "_") && strings.Contains(f, "._") {
				types = append(types, f)
			}
		}
	}
	return types
}

// normalizeServiceType reduces svcType to its core label and reformats it
// as `_{core}._tcp`, regardless of whether svcType arrived bare (from
// dns-sd's dynamic discovery), already suffixed (from commonServiceTypes),
// or with a trailing domain dot (spec.md §3 serviceType, e.g. `_airplay._tcp`).
func normalizeServiceType(svcType string) string {
	core := strings.TrimSuffix(svcType, ".")
	core = strings.TrimPrefix(core, "_")
	core = strings.TrimSuffix(core, "._tcp")
	core = strings.TrimSuffix(core, "._udp")
	return "_" + core + "._tcp"
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
