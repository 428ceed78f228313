// Package fingerprint performs continuous passive OS fingerprinting by
// scoring weighted signals against a static OS-family profile database
// (spec.md §4.5). It is distinct from internal/nmapprobe's on-demand probe.
package fingerprint

import (
	"regexp"
	"sort"
	"strings"

	"github.com/InfinityBowman/network-vis/internal/domain"
	"github.com/InfinityBowman/network-vis/internal/store"
)

const (
	weightTTL          = 0.3
	weightVendor       = 0.4
	weightHostname     = 0.5
	weightMDNS         = 0.5
	weightBluetoothName = 0.5
	weightActiveProbe  = 0.9

	minConfidence      = 0.45
	alreadyConfident   = 0.85
	ttlWindowSize      = 100
)

// ttlRange is an inclusive [low, high] band.
type ttlRange struct{ low, high int }

// profile is one entry of the static OS-family database.
type profile struct {
	family            string
	ttl               *ttlRange
	vendorSubstrings  []string
	hostnamePatterns  []*regexp.Regexp
	mdnsServiceLabels []string // core label, underscore/._tcp stripped
	bluetoothPatterns []*regexp.Regexp
}

var profiles = []profile{
	{
		family:           "windows",
		ttl:              &ttlRange{low: 128, high: 128},
		vendorSubstrings: []string{"microsoft"},
		hostnamePatterns: compile(`(?i)^desktop-`, `(?i)^win-`),
	},
	{
		family:            "macos",
		ttl:               &ttlRange{low: 64, high: 64},
		vendorSubstrings:  []string{"apple"},
		hostnamePatterns:  compile(`(?i)\.local$`, `(?i)macbook`, `(?i)imac`),
		mdnsServiceLabels: []string{"workstation", "afpovertcp"},
		bluetoothPatterns: compile(`(?i)macbook`, `(?i)imac`, `(?i)mac mini`),
	},
	{
		family:            "ios",
		ttl:               &ttlRange{low: 64, high: 64},
		vendorSubstrings:  []string{"apple"},
		hostnamePatterns:  compile(`(?i)iphone`, `(?i)ipad`),
		mdnsServiceLabels: []string{"airplay"},
		bluetoothPatterns: compile(`(?i)iphone`, `(?i)ipad`),
	},
	{
		family:            "android",
		ttl:               &ttlRange{low: 64, high: 64},
		hostnamePatterns:  compile(`(?i)android`, `(?i)-android`, `(?i)galaxy`, `(?i)pixel`),
		bluetoothPatterns: compile(`(?i)galaxy`, `(?i)pixel`, `(?i)android`),
	},
	{
		family:           "linux",
		ttl:              &ttlRange{low: 64, high: 64},
		vendorSubstrings: []string{"raspberry pi"},
		hostnamePatterns: compile(`(?i)^ubuntu`, `(?i)^raspberrypi`, `(?i)^debian`),
	},
	{
		family: "freebsd",
		ttl:    &ttlRange{low: 64, high: 64},
	},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Fingerprinter scores LAN and Bluetooth entities against the static OS
// database and maintains per-IP TTL sample windows.
type Fingerprinter struct {
	ttlWindows map[string][]int // ip -> recent TTL samples, newest last
}

func New() *Fingerprinter {
	return &Fingerprinter{ttlWindows: make(map[string][]int)}
}

// ObserveTTL records one packet TTL sample for ip, keeping at most the last
// 100 values (spec.md §4.5 "rolling per-IP window").
func (f *Fingerprinter) ObserveTTL(ip string, ttl int) {
	samples := f.ttlWindows[ip]
	samples = append(samples, ttl)
	if len(samples) > ttlWindowSize {
		samples = samples[len(samples)-ttlWindowSize:]
	}
	f.ttlWindows[ip] = samples
}

// medianTTL returns the median (lower median on ties) of the current
// window for ip, or (0, false) if empty.
func (f *Fingerprinter) medianTTL(ip string) (int, bool) {
	samples := f.ttlWindows[ip]
	if len(samples) == 0 {
		return 0, false
	}
	sorted := append([]int(nil), samples...)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return sorted[n/2-1], true
}

// ActiveProbeResult carries an on-demand probe outcome into the weighted
// signal set for one entity (spec.md §4.5 "Active probe").
type ActiveProbeResult struct {
	Family     string
	Confidence float64
}

// mdnsIndex maps an IP to the set of mDNS service types observed there.
type mdnsIndex map[string]map[string]bool

// Apply runs the scoring pass over every eligible LAN/Bluetooth entity,
// patching osFamily, deviceCategory, and osFingerprintConfidence through the
// lifecycle-safe path (spec.md §4.5, §8 invariant 8).
func (f *Fingerprinter) Apply(st *store.Store, probes map[string]ActiveProbeResult) {
	entities := st.SnapshotEntities()
	mdns := buildMDNSIndex(entities)

	for _, e := range entities {
		if e.Type == domain.SignalHost {
			continue
		}
		if e.Type != domain.SignalLAN && e.Type != domain.SignalBluetooth {
			continue
		}
		if e.OSFingerprintConfidence >= alreadyConfident {
			continue
		}

		scores := make(map[string]float64)

		if median, ok := f.medianTTL(e.IP); ok {
			for _, p := range profiles {
				if p.ttl != nil && median >= p.ttl.low && median <= p.ttl.high {
					scores[p.family] += weightTTL
				}
			}
		}

		if e.Vendor != "" {
			vendor := strings.ToLower(e.Vendor)
			for _, p := range profiles {
				for _, v := range p.vendorSubstrings {
					if strings.Contains(vendor, strings.ToLower(v)) {
						scores[p.family] += weightVendor
						break
					}
				}
			}
		}

		if e.Name != "" {
			for _, p := range profiles {
				for _, re := range p.hostnamePatterns {
					if re.MatchString(e.Name) {
						scores[p.family] += weightHostname
						break
					}
				}
			}
			if e.Type == domain.SignalBluetooth {
				for _, p := range profiles {
					for _, re := range p.bluetoothPatterns {
						if re.MatchString(e.Name) {
							scores[p.family] += weightBluetoothName
							break
						}
					}
				}
			}
		}

		if e.IP != "" {
			for svcType := range mdns[e.IP] {
				label := mdnsCoreLabel(svcType)
				for _, p := range profiles {
					for _, l := range p.mdnsServiceLabels {
						if l == label {
							scores[p.family] += weightMDNS
							break
						}
					}
				}
			}
		}

		if probe, ok := probes[e.ID]; ok && probe.Family != "" {
			scores[probe.Family] += weightActiveProbe
		}

		family, sum := bestFamily(scores)
		if family == "" {
			continue
		}
		confidence := sum
		if confidence > 1 {
			confidence = 1
		}
		if confidence < minConfidence {
			continue
		}

		category := deviceCategory(e, family)

		id := e.ID
		st.Patch(id, func(ent *domain.Entity) {
			ent.OSFamily = family
			ent.DeviceCategory = category
			ent.OSFingerprintConfidence = confidence
		})
	}
}

func bestFamily(scores map[string]float64) (string, float64) {
	best := ""
	bestSum := 0.0
	for family, sum := range scores {
		if sum > bestSum {
			bestSum = sum
			best = family
		}
	}
	return best, bestSum
}

func buildMDNSIndex(entities []domain.Entity) mdnsIndex {
	idx := make(mdnsIndex)
	for _, e := range entities {
		if e.Type != domain.SignalMDNS || e.IP == "" {
			continue
		}
		if idx[e.IP] == nil {
			idx[e.IP] = make(map[string]bool)
		}
		idx[e.IP][e.ServiceType] = true
	}
	return idx
}

func mdnsCoreLabel(serviceType string) string {
	label := strings.TrimPrefix(serviceType, "_")
	label = strings.TrimSuffix(label, "._tcp")
	label = strings.TrimSuffix(label, "._udp")
	return label
}

// deviceCategory derives a coarse category for display, with Bluetooth
// minor-type tokens taking precedence over the classifier's device type,
// which in turn takes precedence over the OS family (spec.md §4.5).
func deviceCategory(e domain.Entity, osFamily string) string {
	if e.Type == domain.SignalBluetooth && e.MinorType != "" {
		minor := strings.ToLower(e.MinorType)
		switch {
		case strings.Contains(minor, "phone") || strings.Contains(minor, "smartphone"):
			return "mobile"
		case strings.Contains(minor, "laptop") || strings.Contains(minor, "notebook"):
			return "laptop"
		case strings.Contains(minor, "desktop") || strings.Contains(minor, "computer"):
			return "desktop"
		case strings.Contains(minor, "audio") || strings.Contains(minor, "speaker") || strings.Contains(minor, "headphone"):
			return "iot"
		}
	}

	if e.DeviceType != "" {
		switch e.DeviceType {
		case "computer":
			if osFamily == "ios" || osFamily == "android" {
				return "mobile"
			}
			return "desktop"
		case "server":
			return "server"
		case "smart-home", "speaker", "media-player", "camera":
			return "iot"
		case "nas":
			return "server"
		case "router":
			return "embedded"
		}
	}

	switch osFamily {
	case "ios", "android":
		return "mobile"
	case "macos", "windows":
		return "desktop"
	case "linux", "freebsd":
		return "server"
	default:
		return "unknown"
	}
}
