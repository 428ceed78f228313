// Package transport implements the outbound SSE publication channel and the
// inbound HTTP control surface described in spec.md §6's external
// interfaces table.
package transport

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// client is one connected SSE consumer.
type client struct {
	id     string
	events chan []byte
}

const broadcastBuffer = 256

// Hub fans published payloads out to every connected SSE client. Each
// payload kind the orchestrator emits (spec.md §4.6 "Publishing") owns its
// own bounded channel and its own send method, so a burst of packet events
// can never queue behind, or crowd out, a topology or full-state publish.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client

	fullState   chan FullState
	update      chan Update
	topology    chan TopologyPayload
	packetEvent chan PacketEventPayload

	readyOnce sync.Once
	ready     chan struct{}
}

func New() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),

		fullState:   make(chan FullState, broadcastBuffer),
		update:      make(chan Update, broadcastBuffer),
		topology:    make(chan TopologyPayload, broadcastBuffer),
		packetEvent: make(chan PacketEventPayload, broadcastBuffer),

		ready: make(chan struct{}),
	}
}

// Ready closes once the hub's event loop is running, satisfying one half of
// the orchestrator's initial-readiness gate (spec.md §4.6).
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// Run drives the hub's event loop; call it once in its own goroutine.
func (h *Hub) Run() {
	h.readyOnce.Do(func() { close(h.ready) })

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("transport: client %s connected (total: %d)", c.id, n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.events)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("transport: client %s disconnected (total: %d)", c.id, n)

		case payload := <-h.fullState:
			h.fanOut(payload)

		case payload := <-h.update:
			h.fanOut(payload)

		case payload := <-h.topology:
			h.fanOut(payload)

		case payload := <-h.packetEvent:
			h.fanOut(payload)
		}
	}
}

// fanOut marshals payload once and writes it to every connected client's
// outbound buffer, skipping any client whose buffer is full (spec.md §5
// "The consumer may not block the writer").
func (h *Hub) fanOut(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("transport: failed to marshal payload: %v", err)
		return
	}
	msg := []byte(fmt.Sprintf("data: %s\n\n", data))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.events <- msg:
		default:
			log.Printf("transport: client %s is slow, dropping message", c.id)
		}
	}
}

// BroadcastFullState publishes a full snapshot. Never blocks the writer:
// if the channel is full the payload is dropped and logged.
func (h *Hub) BroadcastFullState(payload FullState) {
	select {
	case h.fullState <- payload:
	default:
		log.Println("transport: full_state channel full, dropping payload")
	}
}

// BroadcastUpdate publishes a node_update (the full current set plus the
// removed-id list).
func (h *Hub) BroadcastUpdate(payload Update) {
	select {
	case h.update <- payload:
	default:
		log.Println("transport: update channel full, dropping payload")
	}
}

// BroadcastTopology publishes a topology payload.
func (h *Hub) BroadcastTopology(payload TopologyPayload) {
	select {
	case h.topology <- payload:
	default:
		log.Println("transport: topology channel full, dropping payload")
	}
}

// BroadcastPacketEvent publishes a single packet.event.
func (h *Hub) BroadcastPacketEvent(payload PacketEventPayload) {
	select {
	case h.packetEvent <- payload:
	default:
		log.Println("transport: packet event channel full, dropping payload")
	}
}

// ClientCount reports the number of currently connected SSE clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to an SSE stream.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no")

	c := &client{id: uuid.NewString(), events: make(chan []byte, 64)}

	h.register <- c
	defer func() { h.unregister <- c }()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.events:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
