package packetpipe

import (
	"strconv"
	"strings"
)

// parsedLine is one tshark output row reduced to the fields the pipeline
// cares about (spec.md §4.4 "Stdout is parsed line-by-line").
type parsedLine struct {
	timestampMs int64
	srcIP       string
	dstIP       string
	protocol    string
	length      int
	info        string
	ttl         int
}

// parseTsharkLine parses a pipe-separated tshark fields line. It returns
// ok=false if the line has fewer than seven fields or lacks a usable src/dst
// pair; IPv4 is preferred over IPv6 when both are present (spec.md §4.4).
func parseTsharkLine(line string) (parsedLine, bool) {
	fields := strings.Split(line, "|")
	if len(fields) < 7 {
		return parsedLine{}, false
	}

	epoch := fields[0]
	ip4Src, ip4Dst := fields[1], fields[2]
	ip6Src, ip6Dst := fields[3], fields[4]
	protocol := fields[5]
	lengthStr := fields[6]
	info := ""
	if len(fields) > 7 {
		info = fields[7]
	}
	ttl := 0
	if len(fields) > 8 {
		ttl, _ = strconv.Atoi(strings.TrimSpace(fields[8]))
	}

	src := ip4Src
	if src == "" {
		src = ip6Src
	}
	dst := ip4Dst
	if dst == "" {
		dst = ip6Dst
	}
	if src == "" || dst == "" {
		return parsedLine{}, false
	}

	ts := parseEpochMs(epoch)
	length, _ := strconv.Atoi(strings.TrimSpace(lengthStr))

	if len(info) > 80 {
		info = info[:80]
	}

	return parsedLine{
		timestampMs: ts,
		srcIP:       src,
		dstIP:       dst,
		protocol:    protocol,
		length:      length,
		info:        info,
		ttl:         ttl,
	}, true
}

// parseEpochMs converts a tshark "frame.time_epoch" string (seconds with a
// fractional part) to milliseconds.
func parseEpochMs(epoch string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(epoch), 64)
	if err != nil {
		return 0
	}
	return int64(f * 1000)
}

// permissionDeniedPhrases are matched case-insensitively against stderr
// lines to detect capture permission failure (spec.md §4.4, §7).
var permissionDeniedPhrases = []string{"permission denied", "operation not permitted"}

func isPermissionDenied(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range permissionDeniedPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// isSuppressedBanner matches the startup/teardown banners tshark prints to
// stderr that carry no error information (spec.md §4.4 "Stderr discipline").
func isSuppressedBanner(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "capturing on") || strings.Contains(lower, "packets captured")
}
