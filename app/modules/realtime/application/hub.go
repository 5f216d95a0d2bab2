package realtimeservice

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Black-And-White-Club/dingleup/internal/observability/attr"
	"github.com/google/uuid"
)

// DefaultBufferSize is the number of frames queued per connection before the
// connection is dropped as too slow.
const DefaultBufferSize = 32

// Frame is the JSON envelope written to clients.
type Frame struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// Presence is one connected user.
type Presence struct {
	UserUUID        uuid.UUID
	TZOffsetMinutes int
}

// Client is one websocket connection registered with the hub.
type Client struct {
	id       uint64
	userUUID uuid.UUID
	tzOffset int
	send     chan Frame
	done     chan struct{}
	once     sync.Once
}

// UserUUID returns the owner of the connection.
func (c *Client) UserUUID() uuid.UUID { return c.userUUID }

// Send yields queued frames.
func (c *Client) Send() <-chan Frame { return c.send }

// Done is closed when the hub drops the client.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) offer(f Frame) bool {
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

// Hub tracks connected clients and fans frames out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	nextID  atomic.Uint64
	buffer  int
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		clients: map[uuid.UUID]map[*Client]struct{}{},
		buffer:  bufferSize,
		logger:  logger,
	}
}

// Register adds a connection. A user may hold several.
func (h *Hub) Register(userUUID uuid.UUID, tzOffsetMinutes int) *Client {
	c := &Client{
		id:       h.nextID.Add(1),
		userUUID: userUUID,
		tzOffset: tzOffsetMinutes,
		send:     make(chan Frame, h.buffer),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	set, ok := h.clients[userUUID]
	if !ok {
		set = map[*Client]struct{}{}
		h.clients[userUUID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Client connected", attr.UserUUID(userUUID), attr.Int64("client_id", int64(c.id)))
	return c
}

// Unregister removes a connection and stops it. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userUUID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userUUID)
		}
	}
	h.mu.Unlock()
	c.stop()
}

// SendToUser queues f on every connection of a user and returns how many
// accepted it.
func (h *Hub) SendToUser(userUUID uuid.UUID, f Frame) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userUUID]))
	for c := range h.clients[userUUID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	return h.deliver(targets, f)
}

// Broadcast queues f on every connection.
func (h *Hub) Broadcast(f Frame) int {
	h.mu.RLock()
	var targets []*Client
	for _, set := range h.clients {
		for c := range set {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	return h.deliver(targets, f)
}

func (h *Hub) deliver(targets []*Client, f Frame) int {
	n := 0
	for _, c := range targets {
		if c.offer(f) {
			n++
			continue
		}
		h.logger.Warn("Dropping slow client",
			attr.UserUUID(c.userUUID),
			attr.String("topic", f.Topic),
		)
		h.Unregister(c)
	}
	return n
}

// OnlineUsers lists each connected user once, with the offset of their most
// recent connection.
func (h *Hub) OnlineUsers() []Presence {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Presence, 0, len(h.clients))
	for userUUID, set := range h.clients {
		var latest *Client
		for c := range set {
			if latest == nil || c.id > latest.id {
				latest = c
			}
		}
		out = append(out, Presence{UserUUID: userUUID, TZOffsetMinutes: latest.tzOffset})
	}
	return out
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.clients
	h.clients = map[uuid.UUID]map[*Client]struct{}{}
	h.mu.Unlock()

	for _, set := range all {
		for c := range set {
			c.stop()
		}
	}
}
