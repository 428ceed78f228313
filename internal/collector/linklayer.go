package collector

import (
	"bufio"
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

// LinkLayer discovers MAC-level LAN neighbors from the OS ARP/neighbor
// cache (spec.md §4.2.1).
type LinkLayer struct{}

func NewLinkLayer() *LinkLayer { return &LinkLayer{} }

func (c *LinkLayer) Name() string          { return "linklayer" }
func (c *LinkLayer) Interval() time.Duration { return 5 * time.Second }

const linkLayerTimeout = 5 * time.Second

var arpLineRe = regexp.MustCompile(`^\S+\s*\(([0-9.]+)\)\s+at\s+(\S+)\s+on\s+(\S+)(.*)$`)

func (c *LinkLayer) Scan(ctx context.Context) Result {
	// Best-effort cache warm; failure is ignored entirely.
	_, _ = runWithTimeout(ctx, time.Second, "ping", "-c", "1", "-W", "1", "224.0.0.1")

	out, err := runWithTimeout(ctx, linkLayerTimeout, "arp", "-an")
	if err != nil && len(out) == 0 {
		log.Printf("linklayer: arp read failed: %v", truncateErr(err))
		return Result{}
	}

	var res Result
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		m := arpLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ip, rawMAC, iface, flags := m[1], m[2], m[3], m[4]
		if rawMAC == "(incomplete)" {
			continue
		}
		mac := normalizeMAC(rawMAC)
		if mac == "ff:ff:ff:ff:ff:ff" {
			continue
		}

		isGateway := strings.Contains(flags, "ifscope") && strings.HasSuffix(ip, ".1")
		vendor := lookupVendor(mac)

		name := ip
		if vendor != "" {
			name = vendor + " (" + ip + ")"
		}

		id := "lan-" + mac
		e := domain.Entity{
			ID:        id,
			Type:      domain.SignalLAN,
			Name:      name,
			MAC:       mac,
			IP:        ip,
			Interface: iface,
			IsGateway: isGateway,
			Vendor:    vendor,
		}
		res.Entities = append(res.Entities, e)

		kind := domain.RelationConnectedTo
		if isGateway {
			kind = domain.RelationGateway
		}
		res.Relations = append(res.Relations, domain.NewRelation(id, domain.HostID, kind))
	}

	return res
}

func truncateErr(err error) string {
	return truncate(err.Error(), 200)
}
