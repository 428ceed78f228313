package collector

import (
	"net"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

// HostInterfaces enumerates the host's own non-internal IPv4 interfaces,
// used both to seed the Host entity (spec.md §4.6) and to correlate
// routing-table rows with a local IPv4 in the Topology collector
// (spec.md §4.2.6).
func HostInterfaces() []domain.Interface {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []domain.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}
			out = append(out, domain.Interface{
				Name: iface.Name,
				IPv4: ip4.String(),
				MAC:  iface.HardwareAddr.String(),
			})
			break
		}
	}
	return out
}

// HostInterfaceNames returns the names of the host's non-loopback IPv4
// interfaces, satisfying packetpipe.InterfaceLister for the packet
// pipeline's interface-selection step (spec.md §4.4 "Interface selection").
func HostInterfaceNames() []string {
	ifaces := HostInterfaces()
	out := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		out = append(out, iface.Name)
	}
	return out
}

// HostIPSet returns the set of IPv4 addresses assigned to this machine,
// used by the Packet pipeline to exclude self from aggregation
// (spec.md §GLOSSARY "Host IP set").
func HostIPSet() map[string]bool {
	set := make(map[string]bool)
	for _, iface := range HostInterfaces() {
		if iface.IPv4 != "" {
			set[iface.IPv4] = true
		}
	}
	return set
}
