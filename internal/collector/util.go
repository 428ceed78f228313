package collector

import (
	"regexp"
	"strconv"
	"strings"
)

// normalizeMAC lowercases and colon-joins a MAC address that may arrive
// without separators, with dashes, or already colon-separated.
func normalizeMAC(mac string) string {
	mac = strings.ToLower(mac)
	mac = strings.ReplaceAll(mac, "-", ":")
	if !strings.Contains(mac, ":") && len(mac) == 12 {
		var parts []string
		for i := 0; i < 12; i += 2 {
			parts = append(parts, mac[i:i+2])
		}
		mac = strings.Join(parts, ":")
	}
	return mac
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// rssiToSignal converts an RSSI in dBm to the 0..100 normalized signal
// strength used throughout the data model (spec.md §4.2.2/§4.2.3).
func rssiToSignal(rssi int) int {
	return int(clamp(float64(rssi+90)*100.0/60.0, 0, 100))
}

var signedIntRe = regexp.MustCompile(`-?\d+`)

// parseRSSI accepts either a plain integer or a string whose first signed
// integer is the RSSI (a second, if present, is noise and ignored).
func parseRSSI(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		m := signedIntRe.FindString(t)
		if m == "" {
			return 0, false
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// truncate shortens s to at most n runes, used for info-column and error
// message truncation (spec.md §4.4, §7).
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// shortenHost reduces a resolved hostname to its registrable domain: the
// last two labels, or the last three when the second-to-last label is a
// short ccTLD-style segment (spec.md §4.2.5).
func shortenHost(host string) string {
	labels := strings.Split(strings.TrimSuffix(host, "."), ".")
	if len(labels) <= 2 {
		return host
	}
	secondToLast := labels[len(labels)-2]
	n := 2
	if len(secondToLast) <= 3 {
		n = 3
	}
	if n > len(labels) {
		n = len(labels)
	}
	return strings.Join(labels[len(labels)-n:], ".")
}
