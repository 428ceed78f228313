// Package orchestrator owns the collector schedule, the entity store, the
// enrichment pipeline, and the packet pipeline. It is the sole writer to
// the store and the sole publisher of snapshots and updates (spec.md
// §4.6, §5).
package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/InfinityBowman/network-vis/internal/classify"
	"github.com/InfinityBowman/network-vis/internal/collector"
	"github.com/InfinityBowman/network-vis/internal/config"
	"github.com/InfinityBowman/network-vis/internal/domain"
	"github.com/InfinityBowman/network-vis/internal/fingerprint"
	"github.com/InfinityBowman/network-vis/internal/nmapprobe"
	"github.com/InfinityBowman/network-vis/internal/packetpipe"
	"github.com/InfinityBowman/network-vis/internal/store"
	"github.com/InfinityBowman/network-vis/internal/transport"
)

// Publisher is the outbound side of the transport contract the
// Orchestrator talks to. transport.Hub satisfies it; tests use a fake.
// One method per payload kind keeps a topology publish from ever queuing
// behind a flood of packet events on a shared channel.
type Publisher interface {
	BroadcastFullState(transport.FullState)
	BroadcastUpdate(transport.Update)
	BroadcastTopology(transport.TopologyPayload)
	BroadcastPacketEvent(transport.PacketEventPayload)
}

// Orchestrator is the sole writer to the store. All store mutation,
// enrichment, and publication happens on its single writer goroutine,
// fed by a bounded job queue — option (b) of spec.md §5's two allowed
// concurrency shapes.
type Orchestrator struct {
	store      *store.Store
	thresholds store.Thresholds
	intervals  config.IntervalConfig
	packetCfg  config.PacketConfig
	nmapCfg    config.NmapProbeConfig

	linklayer  *collector.LinkLayer
	wifi       *collector.WiFi
	bluetooth  *collector.Bluetooth
	socket     *collector.Socket
	topology   *collector.Topology
	throughput *collector.Throughput
	mdns       *collector.MDNS

	classifier  *classify.Classifier
	fingerprint *fingerprint.Fingerprinter
	packets     *packetpipe.Pipeline
	nmap        *nmapprobe.Prober

	pub Publisher

	jobs   chan func()
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pausedMu sync.RWMutex
	paused   bool

	readyMu       sync.Mutex
	transportUp   bool
	initialDone   bool
	published     bool

	activeProbesMu sync.Mutex
	activeProbes   map[string]fingerprint.ActiveProbeResult

	telemetry *telemetryStore
}

// New builds an Orchestrator with one instance of each collector, the
// classifier, the OS fingerprinter, and the packet pipeline. Nothing
// starts running until Run is called.
func New(cfg *config.Config, pub Publisher) *Orchestrator {
	o := &Orchestrator{
		store:      store.New(),
		thresholds: store.Thresholds{
			Stale:   cfg.Lifecycle.Stale.Duration(),
			Expired: cfg.Lifecycle.Expired.Duration(),
			Remove:  cfg.Lifecycle.Remove.Duration(),
		},
		intervals: cfg.Intervals,
		packetCfg: cfg.Packet,
		nmapCfg:   cfg.NmapProbe,
		linklayer:    collector.NewLinkLayer(),
		wifi:         collector.NewWiFi(),
		bluetooth:    collector.NewBluetooth(),
		socket:       collector.NewSocket(),
		topology:     collector.NewTopology(),
		throughput:   collector.NewThroughput(),
		mdns:         collector.NewMDNS(),
		classifier:   classify.New(),
		fingerprint:  fingerprint.New(),
		packets:      packetpipe.New(collector.HostInterfaceNames),
		nmap:         nmapprobe.New(),
		pub:          pub,
		jobs:         make(chan func(), 256),
		activeProbes: make(map[string]fingerprint.ActiveProbeResult),
		telemetry:    newTelemetryStore(),
	}
	o.packets.OnEvent(func(e packetpipe.PacketEvent) { o.onPacketEvent(e) })
	o.packets.OnTTL(func(ip string, ttl int) { o.submit(func() { o.fingerprint.ObserveTTL(ip, ttl) }) })
	return o
}

// submit enqueues a closure to run on the writer goroutine. Callers off
// the writer (collector tickers, the packet pipeline's own goroutines)
// use this exclusively to touch the store (spec.md §5 "no two writer-side
// operations proceed simultaneously").
func (o *Orchestrator) submit(fn func()) {
	select {
	case o.jobs <- fn:
	default:
		// Writer queue saturated; log and drop rather than block the caller
		// (spec.md §5 "The consumer may not block the writer" extends to
		// every producer feeding the writer).
		log.Println("orchestrator: writer queue full, dropping job")
	}
}

// submitWait enqueues fn with a blocking send and waits for it to run.
// Callers that need a reply from the writer (FullState, the synchronous
// correlation-index rebuild) use this instead of submit, whose drop-on-
// saturation behavior would leave them waiting on a reply that never comes.
func (o *Orchestrator) submitWait(fn func()) {
	done := make(chan struct{})
	o.jobs <- func() {
		fn()
		close(done)
	}
	<-done
}

// Run seeds the Host entity, starts every collector, and blocks until ctx
// is cancelled. It returns once shutdown is complete.
func (o *Orchestrator) Run(ctx context.Context) {
	writerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.writerLoop(writerCtx)
	}()

	o.seedHost()

	if err := o.mdns.Start(writerCtx, func(r collector.Result) {
		o.submit(func() { o.onScanResult("mdns", r) })
	}); err != nil {
		log.Printf("orchestrator: mdns start failed: %v", err)
	}

	o.runInitialScan(writerCtx)

	o.schedulePolled(writerCtx, o.linklayer, o.intervals.LinkLayer.Duration())
	o.schedulePolled(writerCtx, o.wifi, o.intervals.WiFi.Duration())
	o.schedulePolled(writerCtx, o.bluetooth, o.intervals.Bluetooth.Duration())
	o.schedulePolled(writerCtx, o.socket, o.intervals.Socket.Duration())
	o.schedulePolled(writerCtx, o.topology, o.intervals.Topology.Duration())
	o.schedulePolled(writerCtx, o.throughput, o.intervals.Throughput.Duration())
	o.scheduleTick(writerCtx, o.intervals.Tick.Duration())

	<-ctx.Done()
	o.shutdown()
}

// seedHost creates the single Host entity from the OS interface
// enumeration (spec.md §4.6 "Startup").
func (o *Orchestrator) seedHost() {
	ifaces := collector.HostInterfaces()
	host := domain.Entity{
		ID:         domain.HostID,
		Type:       domain.SignalHost,
		Name:       "This Device",
		Interfaces: ifaces,
	}
	if len(ifaces) > 0 {
		host.IP = ifaces[0].IPv4
		host.MAC = ifaces[0].MAC
	}
	o.submit(func() {
		o.store.Upsert(host, time.Now())
	})
}

// runInitialScan runs every polled collector once, in parallel, and
// blocks until all have returned, per spec.md §4.6 "Immediately run all
// polled collectors once in parallel and await completion." It uses
// errgroup.Group in place of a hand-rolled WaitGroup + error channel
// (SPEC_FULL.md DOMAIN STACK).
func (o *Orchestrator) runInitialScan(ctx context.Context) {
	polled := []collector.Polled{o.linklayer, o.wifi, o.bluetooth, o.socket, o.topology, o.throughput}

	var g errgroup.Group
	for _, c := range polled {
		c := c
		g.Go(func() error {
			start := time.Now()
			res := c.Scan(ctx)
			o.telemetry.record(c.Name(), time.Since(start), collectorCounts{len(res.Entities), len(res.Relations)})
			done := make(chan struct{})
			o.submit(func() {
				o.onScanResult(c.Name(), res)
				close(done)
			})
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		})
	}
	_ = g.Wait()

	o.readyMu.Lock()
	o.initialDone = true
	o.readyMu.Unlock()
	o.maybePublishFirst()
}

// schedulePolled starts a ticker for c at interval, which comes from
// configuration rather than c.Interval() directly — the config's
// intervals section overrides each collector's own default cadence
// (SPEC_FULL.md AMBIENT STACK "Configuration"). The subprocess work in
// c.Scan runs off the writer goroutine; only the apply/classify/enrich/
// publish sequence is submitted to the writer (spec.md §5 "Scheduling").
func (o *Orchestrator) schedulePolled(ctx context.Context, c collector.Polled, interval time.Duration) {
	if interval <= 0 {
		interval = c.Interval()
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if o.isPaused() {
					continue
				}
				start := time.Now()
				res := c.Scan(ctx)
				o.telemetry.record(c.Name(), time.Since(start), collectorCounts{len(res.Entities), len(res.Relations)})
				o.submit(func() { o.onScanResult(c.Name(), res) })
			}
		}
	}()
}

func (o *Orchestrator) scheduleTick(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.submit(o.onTick)
			}
		}
	}()
}

func (o *Orchestrator) isPaused() bool {
	o.pausedMu.RLock()
	defer o.pausedMu.RUnlock()
	return o.paused
}

// Pause suppresses dispatch of polled collectors only; mDNS and the
// packet pipeline continue (spec.md §4.6 "Pause/resume").
func (o *Orchestrator) Pause() {
	o.pausedMu.Lock()
	o.paused = true
	o.pausedMu.Unlock()
}

func (o *Orchestrator) Resume() {
	o.pausedMu.Lock()
	o.paused = false
	o.pausedMu.Unlock()
}

// ScanNow runs the named collector (or every polled collector if name is
// empty) immediately, regardless of the paused flag.
func (o *Orchestrator) ScanNow(ctx context.Context, name string) {
	polled := map[string]collector.Polled{
		o.linklayer.Name():  o.linklayer,
		o.wifi.Name():       o.wifi,
		o.bluetooth.Name():  o.bluetooth,
		o.socket.Name():     o.socket,
		o.topology.Name():   o.topology,
		o.throughput.Name(): o.throughput,
	}

	run := func(c collector.Polled) {
		start := time.Now()
		res := c.Scan(ctx)
		o.telemetry.record(c.Name(), time.Since(start), collectorCounts{len(res.Entities), len(res.Relations)})
		o.submit(func() { o.onScanResult(c.Name(), res) })
	}

	if name == "" {
		for _, c := range polled {
			run(c)
		}
		return
	}
	if c, ok := polled[name]; ok {
		run(c)
	}
}

func (o *Orchestrator) writerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.jobs:
			job()
		}
	}
}

// onScanResult applies one collector's result to the store, runs the
// relevant enrichment hooks, and publishes — all on the writer goroutine
// (spec.md §4.6 "Per-scan post-processing").
func (o *Orchestrator) onScanResult(name string, res collector.Result) {
	now := time.Now()
	for _, e := range res.Entities {
		o.store.Upsert(e, now)
	}
	for _, r := range res.Relations {
		o.store.UpsertRelation(r)
	}

	switch name {
	case "linklayer", "mdns":
		o.classifier.Apply(o.store)
	}

	if name == "linklayer" && o.packetPipelineActive() {
		o.refreshCorrelationIndex()
	}

	if name == "topology" {
		o.pub.BroadcastTopology(transport.NewTopologyPayload(o.topology.Subnets()))
	}

	o.fingerprint.Apply(o.store, o.snapshotProbes())

	o.publish(nil)
}

func (o *Orchestrator) onTick() {
	result := o.store.Tick(time.Now(), o.thresholds)
	if result.Changed || len(result.Removed) > 0 {
		o.publish(result.Removed)
	}
}

func (o *Orchestrator) packetPipelineActive() bool {
	return o.packets.Status().Capturing
}

func (o *Orchestrator) refreshCorrelationIndex() {
	ipToID := make(map[string]string)
	for _, e := range o.store.SnapshotEntities() {
		if e.IP != "" {
			ipToID[e.IP] = e.ID
		}
	}
	hostIPs := collector.HostIPSet()
	for ip := range hostIPs {
		ipToID[ip] = domain.HostID
	}
	o.packets.SetCorrelationIndex(ipToID, hostIPs)
}

func (o *Orchestrator) onPacketEvent(e packetpipe.PacketEvent) {
	o.pub.BroadcastPacketEvent(transport.NewPacketEventPayload(e))
}

// enrichProtocols is the EnrichFunc the packet pipeline's 2s flush timer
// invokes (spec.md §4.4 "Enrichment flush"). It refreshes the correlation
// index, patches accumulated protocol/byte/packet totals onto matching
// entities via the lifecycle-safe path, and publishes if anything changed.
func (o *Orchestrator) enrichProtocols(p *packetpipe.Pipeline) {
	o.submit(func() {
		o.refreshCorrelationIndex()

		changed := false
		for _, e := range o.store.SnapshotEntities() {
			if e.IP == "" {
				continue
			}
			protocols := p.ProtocolsFor(e.IP)
			if len(protocols) == 0 {
				continue
			}
			bytes, packets := p.TotalsFor(e.IP)
			id := e.ID
			ok := o.store.Patch(id, func(ent *domain.Entity) {
				ent.Protocols = protocols
				ent.TotalBytes = bytes
				ent.TotalPackets = packets
			})
			if ok {
				changed = true
			}
		}
		if changed {
			o.publish(nil)
		}
	})
}

func (o *Orchestrator) snapshotProbes() map[string]fingerprint.ActiveProbeResult {
	o.activeProbesMu.Lock()
	defer o.activeProbesMu.Unlock()
	out := make(map[string]fingerprint.ActiveProbeResult, len(o.activeProbes))
	for k, v := range o.activeProbes {
		out[k] = v
	}
	return out
}

// publish composes a full snapshot enriched with throughput at the
// boundary and broadcasts it as an Update (spec.md §4.6 "Publishing",
// "Boundary enrichment"). A nil or empty removed list still publishes:
// any apply cycle or lifecycle tick warrants a fresh Update.
func (o *Orchestrator) publish(removed []string) {
	if !o.readyToPublish() {
		return
	}
	entities := o.store.SnapshotEntities()
	relations := o.store.SnapshotRelations()
	o.attachThroughput(entities, relations)

	now := time.Now().UnixMilli()
	o.pub.BroadcastUpdate(transport.NewUpdate(entities, relations, removed, now))
}

// attachThroughput mutates the outbound copies only — the store is never
// written with throughput data (spec.md §4.6 "Boundary enrichment", §9
// "Boundary-only throughput").
func (o *Orchestrator) attachThroughput(entities []domain.Entity, relations []domain.Relation) {
	rates := o.throughput.Rates()
	if len(rates) == 0 {
		return
	}
	for i := range entities {
		if rate, ok := rates[entities[i].ID]; ok {
			total := rate.InPerSec + rate.OutPerSec
			in, out := rate.InPerSec, rate.OutPerSec
			entities[i].BytesPerSec = &total
			entities[i].BytesInPerSec = &in
			entities[i].BytesOutPerSec = &out
		}
	}
	for i := range relations {
		rate, ok := rates[relations[i].Target]
		if !ok {
			rate, ok = rates[relations[i].Source]
		}
		if !ok {
			continue
		}
		total := rate.InPerSec + rate.OutPerSec
		in, out := rate.InPerSec, rate.OutPerSec
		relations[i].BytesPerSec = &total
		relations[i].BytesInPerSec = &in
		relations[i].BytesOutPerSec = &out
	}
}

// readyToPublish holds the first publication until both the transport and
// the initial scan are ready, as required by spec.md §4.6's "Initial-
// readiness gate". Subsequent publishes always proceed.
func (o *Orchestrator) readyToPublish() bool {
	o.readyMu.Lock()
	defer o.readyMu.Unlock()
	if o.published {
		return true
	}
	if o.transportUp && o.initialDone {
		o.published = true
		return true
	}
	return false
}

// SetTransportReady signals the transport half of the initial-readiness
// gate. Called once the SSE hub's event loop is running.
func (o *Orchestrator) SetTransportReady() {
	o.readyMu.Lock()
	o.transportUp = true
	o.readyMu.Unlock()
	o.maybePublishFirst()
}

func (o *Orchestrator) maybePublishFirst() {
	o.submit(func() {
		if o.readyToPublish() {
			entities := o.store.SnapshotEntities()
			relations := o.store.SnapshotRelations()
			o.attachThroughput(entities, relations)
			o.pub.BroadcastFullState(transport.NewFullState(entities, relations, time.Now().UnixMilli()))
		}
	})
}

// FullState answers control.get_full_state synchronously (spec.md §6).
func (o *Orchestrator) FullState() transport.FullState {
	var state transport.FullState
	o.submitWait(func() {
		entities := o.store.SnapshotEntities()
		relations := o.store.SnapshotRelations()
		o.attachThroughput(entities, relations)
		state = transport.NewFullState(entities, relations, time.Now().UnixMilli())
	})
	return state
}

// shutdown cancels all timers, stops mDNS and the packet pipeline
// (including its 2s escalation), and stops publishing (spec.md §5
// "On process shutdown").
func (o *Orchestrator) shutdown() {
	o.mdns.Stop()
	o.packets.Stop()
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}
