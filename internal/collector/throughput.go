package collector

import (
	"bufio"
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Rate is a single key's observed throughput, published only when total is
// positive (spec.md §4.2.7).
type Rate struct {
	InPerSec  float64
	OutPerSec float64
	Total     float64
}

type sample struct {
	bytesIn, bytesOut int64
	at                time.Time
}

// Throughput derives per-connection byte rates from successive
// point-in-time samples of the kernel's per-process network counters. It
// never writes to the store — rates are read by the orchestrator at
// publish time through Rates() (spec.md §4.2.7, §4.6).
type Throughput struct {
	mu       sync.Mutex
	previous map[string]sample
	rates    map[string]Rate
}

func NewThroughput() *Throughput {
	return &Throughput{
		previous: make(map[string]sample),
		rates:    make(map[string]Rate),
	}
}

func (c *Throughput) Name() string            { return "throughput" }
func (c *Throughput) Interval() time.Duration { return 3 * time.Second }

const throughputTimeout = 10 * time.Second

// Rates returns a snapshot of the currently published rate map.
func (c *Throughput) Rates() map[string]Rate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Rate, len(c.rates))
	for k, v := range c.rates {
		out[k] = v
	}
	return out
}

var connKeyRe = regexp.MustCompile(`(->|<->)`)

func (c *Throughput) Scan(ctx context.Context) Result {
	out, err := runWithTimeout(ctx, throughputTimeout, "nettop", "-m", "tcp", "-L", "1",
		"-J", "bytes_in,bytes_out", "-n", "-x")
	if err != nil && len(out) == 0 {
		log.Printf("throughput: nettop failed: %v", truncateErr(err))
		return Result{}
	}

	now := time.Now()
	currentProcess := ""
	current := make(map[string]sample)

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			continue
		}
		key := strings.TrimSpace(fields[0])

		if connKeyRe.MatchString(key) {
			remoteHost, remotePort, ok := extractRemote(key)
			if !ok || isSkippableRemote(remoteHost, remotePort) {
				continue
			}
			bytesIn, _ := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
			bytesOut, _ := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)

			connKey := "conn-TCP-" + remoteHost + "-" + strconv.Itoa(remotePort) + "-" + currentProcess
			current[connKey] = sample{bytesIn: bytesIn, bytesOut: bytesOut, at: now}
			continue
		}

		// Process row, shape "name.pid".
		if idx := strings.LastIndex(key, "."); idx > 0 {
			if _, err := strconv.Atoi(key[idx+1:]); err == nil {
				currentProcess = key[:idx]
			}
		}
	}

	c.mu.Lock()
	rates := make(map[string]Rate)
	for key, curr := range current {
		prev, ok := c.previous[key]
		if ok {
			elapsed := curr.at.Sub(prev.at).Seconds()
			if elapsed > 0 {
				inDelta := curr.bytesIn - prev.bytesIn
				outDelta := curr.bytesOut - prev.bytesOut
				if inDelta < 0 {
					inDelta = 0
				}
				if outDelta < 0 {
					outDelta = 0
				}
				inRate := float64(inDelta) / elapsed
				outRate := float64(outDelta) / elapsed
				total := inRate + outRate
				if total > 0 {
					rates[key] = Rate{InPerSec: inRate, OutPerSec: outRate, Total: total}
				}
			}
		}
	}
	c.previous = current
	c.rates = rates
	c.mu.Unlock()

	for key, r := range rates {
		log.Printf("throughput: %s %s/s", key, humanize.Bytes(uint64(r.Total)))
	}

	// Throughput never produces store entities directly; it is a pure
	// side-channel signal consumed at publish time.
	return Result{}
}

func extractRemote(key string) (string, int, bool) {
	parts := connKeyRe.Split(key, 2)
	if len(parts) != 2 {
		return "", 0, false
	}
	host, port := splitHostPort(strings.TrimSpace(parts[1]))
	if host == "" || port == 0 {
		return "", 0, false
	}
	return host, port, true
}
