// Package nmapprobe performs an on-demand single-target OS detection probe,
// distinct from the continuous passive fingerprinting in internal/fingerprint
// (spec.md §6 "Probe").
package nmapprobe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

const probeDeadline = 15 * time.Second

// Result is the outcome of a single nmap OS probe.
type Result struct {
	Success    bool
	IP         string
	OSFamily   string
	OSVersion  string
	Confidence float64
	Error      string
}

// familyPatterns is evaluated in order; the first match wins (spec.md §6
// "OS probe parsing").
var familyPatterns = []struct {
	family string
	re     *regexp.Regexp
}{
	{"windows", regexp.MustCompile(`(?i)windows`)},
	{"macos", regexp.MustCompile(`(?i)mac ?os|darwin`)},
	{"ios", regexp.MustCompile(`(?i)ios`)},
	{"android", regexp.MustCompile(`(?i)android`)},
	{"freebsd", regexp.MustCompile(`(?i)freebsd`)},
	{"linux", regexp.MustCompile(`(?i)linux`)},
}

var percentRe = regexp.MustCompile(`\((\d+)%\)`)

// Prober wraps the nmap binary for on-demand OS detection.
type Prober struct{}

func New() *Prober { return &Prober{} }

// Available reports whether nmap can run at all, used to answer
// os.nmap_status (spec.md §6).
func (p *Prober) Available(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(ctx, nmap.WithTargets("localhost"), nmap.WithListScan())
	if err != nil {
		return false
	}
	_, _, err = scanner.Run()
	return err == nil
}

// Probe runs a single targeted OS detection scan and never returns an error
// that should reach the store; failures are reported in the Result
// (spec.md §7 "Active probe failure").
func (p *Prober) Probe(ctx context.Context, ip string) Result {
	ctx, cancel := context.WithTimeout(ctx, probeDeadline)
	defer cancel()

	scanner, err := nmap.NewScanner(ctx,
		nmap.WithTargets(ip),
		nmap.WithOSDetection(),
		nmap.WithTimingTemplate(nmap.TimingAggressive),
		nmap.WithDisabledDNSResolution(),
		nmap.WithCustomArguments("--osscan-guess", "--max-os-tries", "1"),
	)
	if err != nil {
		return Result{Success: false, IP: ip, Error: fmt.Sprintf("scanner init: %v", err)}
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return Result{Success: false, IP: ip, Error: err.Error()}
	}
	if warnings != nil && len(*warnings) > 0 {
		// warnings are non-fatal; the raw run output is still parsed below.
	}

	line := findOSLine(result)
	if line == "" {
		return Result{Success: false, IP: ip, Error: "no OS details in scan output"}
	}

	family := ""
	for _, fp := range familyPatterns {
		if fp.re.MatchString(line) {
			family = fp.family
			break
		}
	}

	confidence := 0.9
	if m := percentRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			confidence = float64(n) / 100.0
		}
	}

	version := parseVersion(line)

	return Result{
		Success:    true,
		IP:         ip,
		OSFamily:   family,
		OSVersion:  version,
		Confidence: confidence,
	}
}

// findOSLine mimics reading stdout for the first "OS details: ..." or
// "Running(: JUST GUESSING)? ..." line, but works against the library's
// structured result instead of raw text (spec.md §6).
func findOSLine(result *nmap.Run) string {
	if result == nil {
		return ""
	}
	for _, host := range result.Hosts {
		if len(host.OS.Matches) == 0 {
			continue
		}
		match := host.OS.Matches[0]
		line := fmt.Sprintf("OS details: %s", match.Name)
		if match.Accuracy > 0 {
			line = fmt.Sprintf("%s (%d%%)", line, match.Accuracy)
		}
		return line
	}
	return ""
}

// parseVersion takes the first comma-delimited entry with the percentage
// suffix stripped, truncated to 80 characters (spec.md §6).
func parseVersion(line string) string {
	rest := line
	if idx := strings.Index(rest, ":"); idx >= 0 {
		rest = rest[idx+1:]
	}
	parts := strings.SplitN(rest, ",", 2)
	first := strings.TrimSpace(parts[0])
	first = percentRe.ReplaceAllString(first, "")
	first = strings.TrimSpace(first)
	if len(first) > 80 {
		first = first[:80]
	}
	return first
}
