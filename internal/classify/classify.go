// Package classify assigns a device type, product name, and icon to LAN
// entities using a static profile database scored against vendor,
// service-type, and hostname signals (spec.md §4.3).
package classify

import (
	"regexp"
	"strings"

	"github.com/InfinityBowman/network-vis/internal/domain"
	"github.com/InfinityBowman/network-vis/internal/store"
)

// Profile is one entry of the static device database.
type Profile struct {
	Category          string
	DefaultProduct    string
	IconKey           string
	VendorSubstrings  []string
	ServiceTypes      []string
	HostnamePatterns  []*regexp.Regexp
}

// profiles is evaluated in file order; ties are broken by earlier entries
// winning (spec.md §4.3).
var profiles = []Profile{
	{Category: "smart-home", DefaultProduct: "Philips Hue Bridge", IconKey: "lightbulb",
		VendorSubstrings: []string{"philips"}, ServiceTypes: []string{"_hue._tcp"}},
	{Category: "media-player", DefaultProduct: "Apple TV", IconKey: "tv",
		VendorSubstrings: []string{"apple"}, ServiceTypes: []string{"_airplay._tcp", "_raop._tcp"}},
	{Category: "media-player", DefaultProduct: "Chromecast", IconKey: "tv",
		VendorSubstrings: []string{"google"}, ServiceTypes: []string{"_googlecast._tcp"}},
	{Category: "speaker", DefaultProduct: "Sonos Speaker", IconKey: "speaker",
		VendorSubstrings: []string{"sonos"}, ServiceTypes: []string{"_sonos._tcp"}},
	{Category: "speaker", DefaultProduct: "Spotify Connect Device", IconKey: "speaker",
		ServiceTypes: []string{"_spotify-connect._tcp"}},
	{Category: "printer", DefaultProduct: "Network Printer", IconKey: "printer",
		ServiceTypes: []string{"_printer._tcp", "_ipp._tcp", "_ipps._tcp"},
		HostnamePatterns: compile(`(?i)printer`, `(?i)hp-`, `(?i)canon`, `(?i)epson`)},
	{Category: "printer", DefaultProduct: "Canon Printer", IconKey: "printer",
		VendorSubstrings: []string{"canon"}},
	{Category: "printer", DefaultProduct: "HP Printer", IconKey: "printer",
		VendorSubstrings: []string{"hewlett", "hp inc"}},
	{Category: "nas", DefaultProduct: "Network-Attached Storage", IconKey: "storage",
		ServiceTypes: []string{"_afpovertcp._tcp", "_smb._tcp"},
		HostnamePatterns: compile(`(?i)synology`, `(?i)qnap`, `(?i)nas`)},
	{Category: "smart-home", DefaultProduct: "HomeKit Accessory", IconKey: "home",
		ServiceTypes: []string{"_homekit._tcp", "_hap._tcp"}},
	{Category: "router", DefaultProduct: "Router", IconKey: "router",
		VendorSubstrings: []string{"tp-link", "netgear", "ubiquiti", "d-link", "asus", "linksys"},
		HostnamePatterns: compile(`(?i)router`, `(?i)gateway`)},
	{Category: "camera", DefaultProduct: "Network Camera", IconKey: "camera",
		HostnamePatterns: compile(`(?i)camera`, `(?i)cam-`, `(?i)nestcam`, `(?i)ring-`)},
	{Category: "camera", DefaultProduct: "Nest Camera", IconKey: "camera",
		VendorSubstrings: []string{"nest labs"}},
	{Category: "set-top-box", DefaultProduct: "Roku Player", IconKey: "tv",
		VendorSubstrings: []string{"roku"}},
	{Category: "gaming", DefaultProduct: "Game Console", IconKey: "gamepad",
		HostnamePatterns: compile(`(?i)playstation|ps[345]`, `(?i)xbox`, `(?i)switch`)},
	{Category: "hub", DefaultProduct: "Smart Home Hub", IconKey: "home",
		HostnamePatterns: compile(`(?i)smartthings`, `(?i)hubitat`)},
	{Category: "voice-assistant", DefaultProduct: "Amazon Echo", IconKey: "speaker",
		VendorSubstrings: []string{"amazon"}},
	{Category: "wearable", DefaultProduct: "Smartwatch", IconKey: "watch",
		HostnamePatterns: compile(`(?i)watch`)},
	{Category: "server", DefaultProduct: "File Share", IconKey: "storage",
		ServiceTypes: []string{"_ssh._tcp"}, HostnamePatterns: compile(`(?i)server`, `(?i)nas`)},
	{Category: "remote-display", DefaultProduct: "Remote Desktop Host", IconKey: "display",
		ServiceTypes: []string{"_rfb._tcp"}},
	{Category: "smart-home", DefaultProduct: "Smart Plug", IconKey: "power",
		HostnamePatterns: compile(`(?i)plug`, `(?i)kasa`)},
	{Category: "smart-home", DefaultProduct: "Smart Thermostat", IconKey: "thermostat",
		HostnamePatterns: compile(`(?i)nest-?therm`, `(?i)ecobee`)},
	{Category: "computer", DefaultProduct: "macOS Workstation", IconKey: "desktop",
		ServiceTypes: []string{"_workstation._tcp"}, VendorSubstrings: []string{"apple"}},
	{Category: "computer", DefaultProduct: "Windows Workstation", IconKey: "desktop",
		ServiceTypes: []string{"_device-info._tcp"}},
	{Category: "mobile", DefaultProduct: "Mobile Device", IconKey: "mobile",
		HostnamePatterns: compile(`(?i)iphone`, `(?i)android`, `(?i)galaxy`)},
	{Category: "vm", DefaultProduct: "Virtual Machine", IconKey: "vm",
		VendorSubstrings: []string{"vmware"}},
	{Category: "embedded", DefaultProduct: "Raspberry Pi", IconKey: "chip",
		VendorSubstrings: []string{"raspberry pi"}},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Classifier scores LAN entities against the static profile database.
type Classifier struct{}

func New() *Classifier { return &Classifier{} }

// Apply classifies every LAN entity in the store that does not already
// carry a device category, patching matches through the lifecycle-safe
// path (spec.md §4.3, §8 invariant 9: never demotes a classified entity).
func (c *Classifier) Apply(st *store.Store) {
	entities := st.SnapshotEntities()
	servicesAtIP, namesAtIP := buildMDNSIndex(entities)

	for _, e := range entities {
		if e.Type != domain.SignalLAN || e.DeviceType != "" {
			continue
		}
		profile, ok := bestMatch(e, servicesAtIP[e.IP])
		if !ok {
			continue
		}

		product := profile.DefaultProduct
		if display, ok := namesAtIP[e.IP]; ok && display != "" {
			product = display
		}

		id := e.ID
		st.Patch(id, func(ent *domain.Entity) {
			ent.DeviceType = profile.Category
			ent.ProductName = product
			ent.IconKey = profile.IconKey
		})
	}
}

func buildMDNSIndex(entities []domain.Entity) (map[string]map[string]bool, map[string]string) {
	services := make(map[string]map[string]bool)
	names := make(map[string]string)
	for _, e := range entities {
		if e.Type != domain.SignalMDNS || e.IP == "" {
			continue
		}
		if services[e.IP] == nil {
			services[e.IP] = make(map[string]bool)
		}
		services[e.IP][e.ServiceType] = true
		if _, ok := names[e.IP]; !ok {
			names[e.IP] = stripParenthetical(e.Name)
		}
	}
	return services, names
}

func stripParenthetical(name string) string {
	if idx := strings.Index(name, " ("); idx >= 0 {
		return strings.TrimSpace(name[:idx])
	}
	return name
}

func bestMatch(e domain.Entity, serviceTypes map[string]bool) (Profile, bool) {
	vendor := strings.ToLower(e.Vendor)
	bestScore := 0
	var best Profile
	found := false

	for _, p := range profiles {
		score := 0
		for _, v := range p.VendorSubstrings {
			if vendor != "" && strings.Contains(vendor, strings.ToLower(v)) {
				score++
				break
			}
		}
		for _, st := range p.ServiceTypes {
			if serviceTypes[st] {
				score++
				break
			}
		}
		for _, re := range p.HostnamePatterns {
			if re.MatchString(e.Name) {
				score++
				break
			}
		}
		if score > bestScore {
			bestScore = score
			best = p
			found = true
		}
	}

	if bestScore <= 0 {
		return Profile{}, false
	}
	return best, found
}
