package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/logger"
	"github.com/fittrack/fittrack/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// StateSource is the auth state the hub streams to clients.
type StateSource interface {
	Subscribe(fn auth.Listener) (unsubscribe func())
	State() types.AuthState
}

// StreamMetrics counts open streams.
type StreamMetrics interface {
	StreamOpened()
	StreamClosed()
}

type noopStreamMetrics struct{}

func (noopStreamMetrics) StreamOpened() {}
func (noopStreamMetrics) StreamClosed() {}

// Hub manages auth state streams. Every connection holds its own
// subscription to the state source.
type Hub struct {
	log          *zap.SugaredLogger
	source       StateSource
	metrics      StreamMetrics
	connections  map[string]*Connection // connection ID -> connection
	mu           sync.RWMutex
	shutdownOnce sync.Once
	pingInterval time.Duration
	writeTimeout time.Duration
	sendBuffer   int
}

// Connection is one client's state stream.
type Connection struct {
	ID          string
	Conn        *websocket.Conn
	sendCh      chan types.AuthState
	unsubscribe func()
	mu          sync.Mutex
	closed      bool
}

// HubConfig contains configuration options for the Hub.
type HubConfig struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
}

// DefaultHubConfig returns sensible defaults for Hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   32,
	}
}

// NewHub creates a hub streaming source. metrics may be nil.
func NewHub(source StateSource, metrics StreamMetrics, cfg ...HubConfig) *Hub {
	config := DefaultHubConfig()
	if len(cfg) > 0 {
		config = cfg[0]
	}
	if metrics == nil {
		metrics = noopStreamMetrics{}
	}
	if config.SendBuffer < 1 {
		config.SendBuffer = 1
	}
	return &Hub{
		log:          logger.GetLogger().Named("websocket_hub"),
		source:       source,
		metrics:      metrics,
		connections:  make(map[string]*Connection),
		pingInterval: config.PingInterval,
		writeTimeout: config.WriteTimeout,
		sendBuffer:   config.SendBuffer,
	}
}

// Register subscribes a new connection to the state source. The current
// state is queued before Register returns.
func (h *Hub) Register(ctx context.Context, conn *websocket.Conn) *Connection {
	connection := &Connection{
		ID:     uuid.NewString(),
		Conn:   conn,
		sendCh: make(chan types.AuthState, h.sendBuffer),
	}

	h.mu.Lock()
	h.connections[connection.ID] = connection
	h.mu.Unlock()
	h.metrics.StreamOpened()

	unsubscribe := h.source.Subscribe(func(state types.AuthState) {
		if !connection.offer(state) {
			h.log.Warnw("Stream send buffer full, closing connection", "connectionID", connection.ID)
			go h.Unregister(connection.ID, "client cannot keep up")
		}
	})

	connection.mu.Lock()
	if connection.closed {
		connection.mu.Unlock()
		unsubscribe()
	} else {
		connection.unsubscribe = unsubscribe
		connection.mu.Unlock()
	}

	h.log.Infow("Auth stream registered", "connectionID", connection.ID)
	return connection
}

// offer queues state without blocking. It reports false only when the
// buffer is full.
func (c *Connection) offer(state types.AuthState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.sendCh <- state:
		return true
	default:
		return false
	}
}

// Unregister closes and forgets a connection.
func (h *Hub) Unregister(id string, reason string) {
	h.mu.Lock()
	conn, ok := h.connections[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.connections, id)
	h.mu.Unlock()

	h.closeConnection(conn, reason)
}

func (h *Hub) closeConnection(conn *Connection, reason string) {
	conn.mu.Lock()
	if conn.closed {
		conn.mu.Unlock()
		return
	}
	conn.closed = true
	unsubscribe := conn.unsubscribe
	conn.unsubscribe = nil
	close(conn.sendCh)
	conn.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if conn.Conn != nil {
		_ = conn.Conn.Close(websocket.StatusNormalClosure, reason)
	}
	h.metrics.StreamClosed()

	h.log.Infow("Auth stream closed",
		"connectionID", conn.ID,
		"reason", reason)
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Shutdown closes every connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(func() {
		h.mu.Lock()
		connections := make([]*Connection, 0, len(h.connections))
		for _, conn := range h.connections {
			connections = append(connections, conn)
		}
		h.connections = make(map[string]*Connection)
		h.mu.Unlock()

		for _, conn := range connections {
			h.closeConnection(conn, "server shutdown")
		}
	})

	h.log.Info("Auth stream hub shutdown complete")
	return nil
}

// SendChannel returns the states queued for the client.
func (c *Connection) SendChannel() <-chan types.AuthState {
	return c.sendCh
}

// IsClosed returns whether the connection is closed.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
