package collector

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

// Socket discovers the host's outbound/inbound socket endpoints via the
// system socket lister (spec.md §4.2.5).
type Socket struct {
	mu        sync.Mutex
	dnsCache  map[string]*string // host -> resolved hostname, nil = failed
	dnsPending map[string]bool
}

func NewSocket() *Socket {
	return &Socket{
		dnsCache:   make(map[string]*string),
		dnsPending: make(map[string]bool),
	}
}

func (c *Socket) Name() string            { return "socket" }
func (c *Socket) Interval() time.Duration { return 3 * time.Second }

const (
	socketTimeout     = 10 * time.Second
	psLookupTimeout   = 5 * time.Second
	reverseDNSTimeout = 3 * time.Second
)

type socketRecord struct {
	pid         string
	process     string
	protocol    string
	state       string
	localHost   string
	localPort   int
	remoteHost  string
	remotePort  int
}

func (c *Socket) Scan(ctx context.Context) Result {
	out, err := runWithTimeout(ctx, socketTimeout, "lsof", "-i", "-P", "-n", "-F", "cnPTs")
	if err != nil && len(out) == 0 {
		log.Printf("socket: lsof failed: %v", truncateErr(err))
		return Result{}
	}

	records, pids := parseLsof(string(out))
	pidToProcess := c.resolveProcessNames(ctx, pids)

	seen := make(map[string]bool)
	var res Result
	for _, r := range records {
		if isSkippableRemote(r.remoteHost, r.remotePort) {
			continue
		}

		process := r.process
		if resolved, ok := pidToProcess[r.pid]; ok && resolved != process {
			process = resolved
		}

		id := fmt.Sprintf("conn-%s-%s-%d-%s", r.protocol, r.remoteHost, r.remotePort, process)
		if seen[id] {
			continue
		}
		seen[id] = true

		c.maybeResolveAsync(r.remoteHost)
		name := c.displayName(process, r.remoteHost, r.remotePort)

		resolvedHostname := ""
		c.mu.Lock()
		if h := c.dnsCache[r.remoteHost]; h != nil {
			resolvedHostname = *h
		}
		c.mu.Unlock()

		e := domain.Entity{
			ID:               id,
			Type:             domain.SignalSocket,
			Name:             name,
			IP:               r.remoteHost,
			Protocol:         r.protocol,
			LocalPort:        r.localPort,
			RemotePort:       r.remotePort,
			RemoteHost:       r.remoteHost,
			State:            r.state,
			ProcessName:      process,
			ResolvedHostname: resolvedHostname,
			ServiceName:      wellKnownPorts[r.remotePort],
		}
		res.Entities = append(res.Entities, e)
		res.Relations = append(res.Relations, domain.NewRelation(id, domain.HostID, domain.RelationConnectedTo))
	}

	return res
}

// parseLsof walks the field-prefixed output of lsof -F cnPTs. Field p
// resets the current process block; fields c, P, T, n fill it in.
func parseLsof(out string) ([]socketRecord, map[string]bool) {
	var records []socketRecord
	pids := make(map[string]bool)

	var cur socketRecord
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		field, value := line[0], line[1:]

		switch field {
		case 'p':
			cur = socketRecord{pid: value}
			pids[value] = true
		case 'c':
			cur.process = value
		case 'P':
			cur.protocol = strings.ToUpper(value)
		case 'T':
			if strings.HasPrefix(value, "ST=") {
				cur.state = strings.TrimPrefix(value, "ST=")
			}
		case 'n':
			local, remote, ok := splitConnName(value)
			if !ok {
				continue
			}
			lh, lp := splitHostPort(local)
			rh, rp := splitHostPort(remote)
			cur.localHost, cur.localPort = lh, lp
			cur.remoteHost, cur.remotePort = rh, rp
			records = append(records, cur)
		}
	}

	return records, pids
}

func splitConnName(n string) (local, remote string, ok bool) {
	idx := strings.Index(n, "->")
	if idx < 0 {
		return "", "", false
	}
	return n[:idx], n[idx+2:], true
}

// splitHostPort extracts host and port from a possibly-bracketed IPv6
// "host:port" pair.
func splitHostPort(hp string) (string, int) {
	if strings.HasPrefix(hp, "[") {
		end := strings.Index(hp, "]")
		if end < 0 {
			return hp, 0
		}
		host := hp[1:end]
		rest := hp[end+1:]
		port := 0
		if strings.HasPrefix(rest, ":") {
			port, _ = strconv.Atoi(rest[1:])
		}
		return host, port
	}

	idx := strings.LastIndex(hp, ":")
	if idx < 0 {
		return hp, 0
	}
	port, _ := strconv.Atoi(hp[idx+1:])
	return hp[:idx], port
}

func isSkippableRemote(host string, port int) bool {
	if port == 0 || host == "*" {
		return true
	}
	switch host {
	case "127.0.0.1", "::1", "localhost":
		return true
	}
	return false
}

// resolveProcessNames looks up executable basenames for the accumulated
// PID set in a single invocation and rewrites .app bundle paths to their
// product name (spec.md §4.2.5).
func (c *Socket) resolveProcessNames(ctx context.Context, pids map[string]bool) map[string]string {
	if len(pids) == 0 {
		return nil
	}
	list := make([]string, 0, len(pids))
	for pid := range pids {
		list = append(list, pid)
	}

	out, err := runWithTimeout(ctx, psLookupTimeout, "ps", "-p", strings.Join(list, ","), "-o", "pid=,comm=")
	if err != nil && len(out) == 0 {
		return nil
	}

	result := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		pid := fields[0]
		execPath := strings.Join(fields[1:], " ")
		result[pid] = execName(execPath)
	}
	return result
}

func execName(execPath string) string {
	if idx := strings.Index(execPath, ".app/"); idx >= 0 {
		before := execPath[:idx]
		appName := path.Base(before)
		return appName
	}
	return path.Base(execPath)
}

// maybeResolveAsync starts a non-blocking reverse DNS lookup for host if
// it is neither cached nor already in flight. Results surface on the next
// scan, never this one (spec.md §4.2.5, §5).
func (c *Socket) maybeResolveAsync(host string) {
	c.mu.Lock()
	_, cached := c.dnsCache[host]
	pending := c.dnsPending[host]
	if cached || pending {
		c.mu.Unlock()
		return
	}
	c.dnsPending[host] = true
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reverseDNSTimeout)
		defer cancel()

		names, err := net.DefaultResolver.LookupAddr(ctx, host)

		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.dnsPending, host)
		if err != nil || len(names) == 0 {
			c.dnsCache[host] = nil
			return
		}
		name := strings.TrimSuffix(names[0], ".")
		c.dnsCache[host] = &name
	}()
}

func (c *Socket) displayName(process, remoteHost string, remotePort int) string {
	c.mu.Lock()
	resolved := c.dnsCache[remoteHost]
	c.mu.Unlock()

	if resolved != nil && *resolved != "" {
		short := shortenHost(*resolved)
		if svc, ok := wellKnownPorts[remotePort]; ok {
			return fmt.Sprintf("%s → %s (%s)", process, short, svc)
		}
		return fmt.Sprintf("%s → %s:%d", process, short, remotePort)
	}
	return fmt.Sprintf("%s → %s:%d", process, remoteHost, remotePort)
}
