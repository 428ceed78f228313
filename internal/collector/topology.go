package collector

import (
	"bufio"
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

// Topology parses the OS routing table into a subnet list. It produces no
// entities or relations — subnets are a side channel the orchestrator
// publishes separately (spec.md §4.2.6).
type Topology struct {
	mu      sync.Mutex
	subnets []domain.Subnet
}

func NewTopology() *Topology { return &Topology{} }

func (c *Topology) Name() string            { return "topology" }
func (c *Topology) Interval() time.Duration { return 30 * time.Second }

const topologyTimeout = 5 * time.Second

// Subnets returns the most recently computed subnet list.
func (c *Topology) Subnets() []domain.Subnet {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Subnet, len(c.subnets))
	copy(out, c.subnets)
	return out
}

func (c *Topology) Scan(ctx context.Context) Result {
	out, err := runWithTimeout(ctx, topologyTimeout, "netstat", "-rn")
	if err != nil && len(out) == 0 {
		log.Printf("topology: netstat failed: %v", truncateErr(err))
		return Result{}
	}

	hostIfaces := HostInterfaces()
	ifaceIP := make(map[string]string, len(hostIfaces))
	for _, iface := range hostIfaces {
		ifaceIP[iface.Name] = iface.IPv4
	}

	seen := make(map[string]bool)
	var subnets []domain.Subnet

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		dest, gw, iface := fields[0], fields[1], fields[len(fields)-1]

		if dest == "Destination" || dest == "default" || dest == "" {
			continue
		}
		if strings.Contains(dest, ":") {
			continue // IPv6
		}

		network, prefix, ok := parseDestination(dest)
		if !ok {
			continue
		}
		if network == "169.254" || strings.HasPrefix(network, "169.254.") {
			continue
		}
		if strings.HasPrefix(network, "224.") || strings.HasPrefix(network, "255.") {
			continue
		}
		if prefix == 32 {
			continue
		}

		localIP, ok := ifaceIP[iface]
		if !ok {
			continue
		}

		cidr := network + "/" + strconv.Itoa(prefix)
		if seen[cidr] {
			continue
		}
		seen[cidr] = true

		gateway := gw
		if strings.HasPrefix(gw, "link#") {
			gateway = ""
		}

		subnets = append(subnets, domain.Subnet{
			CIDR:      cidr,
			Network:   network,
			Prefix:    prefix,
			Gateway:   gateway,
			Interface: iface,
			HostIPv4:  localIP,
		})
	}

	c.mu.Lock()
	c.subnets = subnets
	c.mu.Unlock()

	return Result{}
}

// parseDestination infers a network address and prefix length from a
// netstat destination field that may or may not carry an explicit
// "/prefix" suffix (spec.md §4.2.6).
func parseDestination(dest string) (string, int, bool) {
	if strings.Contains(dest, "/") {
		parts := strings.SplitN(dest, "/", 2)
		prefix, err := strconv.Atoi(parts[1])
		if err != nil {
			return "", 0, false
		}
		return parts[0], prefix, true
	}

	octets := strings.Split(dest, ".")
	switch len(octets) {
	case 4:
		return dest, 32, true
	case 3:
		return dest, 24, true
	case 2:
		return dest, 16, true
	case 1:
		n, err := strconv.Atoi(octets[0])
		if err != nil || n == 0 {
			return "", 0, false
		}
		return dest, 8, true
	default:
		return "", 0, false
	}
}
