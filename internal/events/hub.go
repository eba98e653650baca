package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Dan9191/barakah/internal/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event types pushed to connected dashboards
const (
	TypeLocationSaved  = "location_saved"
	TypeLocationFailed = "location_failed"
	TypeSyncCompleted  = "sync_completed"
	TypeReminderSent   = "reminder_sent"
	TypeCommandHandled = "command_handled"
)

// Event is the JSON frame written to every client
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// writeWait bounds a single frame write so a stalled client cannot hold
// the broadcast loop
const writeWait = 5 * time.Second

// Hub fans events out to WebSocket clients from a single loop goroutine
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mu         sync.Mutex
	upgrader   websocket.Upgrader
	log        *logrus.Logger
}

// NewHub creates a hub; call Start before publishing. Browser handshakes
// are accepted only from allowedOrigins; clients that send no Origin
// header are not browsers and pass.
func NewHub(log *logrus.Logger, allowedOrigins ...string) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		log: log,
	}
}

// Start runs the hub loop until Stop
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case client := <-h.register:
				h.mu.Lock()
				h.clients[client] = true
				n := len(h.clients)
				h.mu.Unlock()
				h.log.Debugf("WebSocket client connected. Total clients: %d", n)
			case client := <-h.unregister:
				h.mu.Lock()
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					client.Close()
				}
				n := len(h.clients)
				h.mu.Unlock()
				h.log.Debugf("WebSocket client disconnected. Remaining clients: %d", n)
			case message := <-h.broadcast:
				h.mu.Lock()
				for client := range h.clients {
					client.SetWriteDeadline(time.Now().Add(writeWait))
					if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
						h.log.Warnf("Error sending event to client: %v", err)
						client.Close()
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			case <-h.done:
				h.mu.Lock()
				for client := range h.clients {
					client.Close()
					delete(h.clients, client)
				}
				h.mu.Unlock()
				return
			}
		}
	}()
}

// Stop closes every client and ends the loop
func (h *Hub) Stop() {
	close(h.done)
}

// Publish queues ev for broadcast. It never blocks: when the queue is full
// the event is dropped and logged.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("Failed to marshal %s event: %v", ev.Type, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warnf("Event queue full, dropping %s event", ev.Type)
	}
}

// Register adds a connected client
func (h *Hub) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

// Unregister removes and closes a client
func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	h.Register(conn)

	go func() {
		for {
			// clients only listen; reads detect disconnects
			if _, _, err := conn.ReadMessage(); err != nil {
				h.Unregister(conn)
				return
			}
		}
	}()
}

// Recorder collects published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan Event
}

func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan Event, 16)}
}

func (r *Recorder) Publish(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	select {
	case r.notify <- ev:
	default:
	}
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Next waits up to d for the next published event
func (r *Recorder) Next(d time.Duration) (Event, bool) {
	select {
	case ev := <-r.notify:
		return ev, true
	case <-time.After(d):
		return Event{}, false
	}
}
