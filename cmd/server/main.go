package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/InfinityBowman/network-vis/internal/config"
	"github.com/InfinityBowman/network-vis/internal/orchestrator"
	"github.com/InfinityBowman/network-vis/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to config file (overrides search order)")
	addr := flag.String("addr", "", "control/transport listen address (overrides config)")
	packetIface := flag.String("packet-iface", "", "interface to auto-start packet capture on, if packet.auto_start is set")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting network-vis discovery engine...")

	cfg, loadedFrom, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if loadedFrom != "" {
		log.Printf("Loaded config from %s", loadedFrom)
	} else {
		log.Println("No config file found, using defaults")
	}
	if *addr != "" {
		cfg.Transport.Addr = *addr
	}

	hub := transport.New()
	go hub.Run()

	orch := orchestrator.New(cfg, hub)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-hub.Ready()
		orch.SetTransportReady()
	}()

	orchDone := make(chan struct{})
	go func() {
		orch.Run(ctx)
		close(orchDone)
	}()

	if cfg.Packet.AutoStart {
		go func() {
			iface := cfg.Packet.DefaultIface
			if *packetIface != "" {
				iface = *packetIface
			}
			result := orch.PacketStart(ctx, iface)
			if !result.Success {
				log.Printf("packet auto-start failed: %s", result.Error)
			}
		}()
	}

	mux := http.NewServeMux()
	control := transport.NewControlHandler(orch)

	mux.HandleFunc("POST /control/pause", control.Pause)
	mux.HandleFunc("POST /control/resume", control.Resume)
	mux.HandleFunc("POST /control/scan_now", control.ScanNow)
	mux.HandleFunc("GET /control/full_state", control.GetFullState)
	mux.HandleFunc("GET /control/health", control.Health)

	mux.HandleFunc("POST /packet/start", control.PacketStart)
	mux.HandleFunc("POST /packet/stop", control.PacketStop)
	mux.HandleFunc("GET /packet/status", control.PacketStatus)
	mux.HandleFunc("GET /packet/events", control.PacketEvents)

	mux.HandleFunc("POST /os/nmap_scan", control.NmapScan)
	mux.HandleFunc("GET /os/nmap_status", control.NmapStatus)

	mux.Handle("GET /events", hub)

	finalHandler := transport.Chain(mux,
		transport.Recover,
		transport.CORS,
		transport.Logger,
	)

	server := &http.Server{
		Addr:         cfg.Transport.Addr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Control/transport listening on %s", cfg.Transport.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	// Drain the orchestrator first: collectors, mDNS, and the packet
	// pipeline (with its 2s kill escalation) must all be stopped before
	// the process may exit.
	<-orchDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("network-vis stopped")
}

func loadConfig(explicitPath string) (*config.Config, string, error) {
	if explicitPath != "" {
		return config.LoadFromPath(explicitPath)
	}
	return config.Load()
}
