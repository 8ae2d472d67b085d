package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventType is the kind of row change
type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Entity names carried on change events
const (
	EntityCustomer = "customer"
	EntityFoodItem = "food_item"
	EntityOrder    = "order"
)

const (
	writeWait = 5 * time.Second

	// sendBuffer is how many events a client may fall behind before it is dropped
	sendBuffer = 32
)

// ChangeEvent describes one inserted, updated or deleted row.
// New is empty for deletes and Old is empty for inserts.
type ChangeEvent struct {
	Event  EventType `json:"event"`
	Entity string    `json:"entity"`
	New    any       `json:"new,omitempty"`
	Old    any       `json:"old,omitempty"`
	At     time.Time `json:"at"`
}

// Listener receives every published event. Listeners run synchronously on the
// publishing goroutine and must not block.
type Listener func(ChangeEvent)

// Hub fans change events out to in-process listeners and websocket clients
type Hub struct {
	mu        sync.RWMutex
	clients   map[*wsConn]struct{}
	listeners []Listener
	logger    *zap.Logger
}

// wsConn owns a websocket connection. Only its writer goroutine writes to conn.
// entity filters the events the client receives; empty means all.
type wsConn struct {
	conn   *websocket.Conn
	entity string
	send   chan ChangeEvent
	done   chan struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[*wsConn]struct{}), logger: logger}
}

// Subscribe registers an in-process listener
func (h *Hub) Subscribe(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

// Register adds a websocket client and returns a function that removes it
func (h *Hub) Register(conn *websocket.Conn, entity string) (unregister func()) {
	wc := &wsConn{
		conn:   conn,
		entity: entity,
		send:   make(chan ChangeEvent, sendBuffer),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[wc] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(wc)
	return func() { h.remove(wc) }
}

func (h *Hub) remove(wc *wsConn) {
	h.mu.Lock()
	_, ok := h.clients[wc]
	delete(h.clients, wc)
	h.mu.Unlock()
	if ok {
		close(wc.done)
		wc.conn.Close()
	}
}

// writeLoop drains the client's queue until the client is removed or a write fails
func (h *Hub) writeLoop(wc *wsConn) {
	for {
		select {
		case <-wc.done:
			return
		case ev := <-wc.send:
			if err := wc.write(ev); err != nil {
				h.logger.Warn("ws: write failed, dropping client",
					zap.String("entity", ev.Entity),
					zap.String("event", string(ev.Event)),
					zap.Error(err))
				h.remove(wc)
				return
			}
		}
	}
}

// ClientCount returns the number of connected websocket clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers ev to every listener, then queues it for every matching
// websocket client. It never waits on a client: one whose queue is full is dropped.
func (h *Hub) Publish(ev ChangeEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.RLock()
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	targets := make([]*wsConn, 0, len(h.clients))
	for wc := range h.clients {
		if wc.entity == "" || wc.entity == ev.Entity {
			targets = append(targets, wc)
		}
	}
	h.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}

	for _, wc := range targets {
		select {
		case wc.send <- ev:
		case <-wc.done:
		default:
			h.logger.Warn("ws: client is too slow, dropping it",
				zap.String("entity", ev.Entity),
				zap.String("event", string(ev.Event)))
			h.remove(wc)
		}
	}
}

func (wc *wsConn) write(ev ChangeEvent) error {
	if err := wc.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return wc.conn.WriteJSON(ev)
}
