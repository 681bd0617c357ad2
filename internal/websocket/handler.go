package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fittrack/fittrack/config"
	"github.com/fittrack/fittrack/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Handler upgrades requests to auth state streams.
type Handler struct {
	log            *zap.SugaredLogger
	hub            *Hub
	pingInterval   time.Duration
	writeTimeout   time.Duration
	allowedOrigins []string
	isDevelopment  bool
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, serverCfg *config.ServerConfig) *Handler {
	return &Handler{
		log:            logger.GetLogger().Named("websocket_handler"),
		hub:            hub,
		pingInterval:   hub.pingInterval,
		writeTimeout:   hub.writeTimeout,
		allowedOrigins: serverCfg.AllowedOrigins,
		isDevelopment:  serverCfg.Environment == config.EnvDevelopment,
	}
}

// getAcceptOptions returns WebSocket accept options based on configuration.
// In development, all origins are allowed. In production, only configured origins are allowed.
func (h *Handler) getAcceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	}

	if h.isDevelopment {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = h.allowedOrigins
	}

	return opts
}

// ClientMessage represents a message from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message to the client.
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

const (
	MessageTypeState = "state"
	MessageTypePong  = "pong"
	MessageTypeError = "error"
)

// HandleWebSocket streams the auth state: the current value first, then
// every change until the client goes away.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	h.ServeHTTP(c.Writer, c.Request)
}

// ServeHTTP allows the handler to be used directly with http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, h.getAcceptOptions())
	if err != nil {
		h.log.Errorw("Failed to accept WebSocket connection", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	connection := h.hub.Register(ctx, conn)
	defer h.hub.Unregister(connection.ID, "connection ended")

	errCh := make(chan error, 3)

	go func() {
		errCh <- h.readLoop(ctx, conn)
	}()

	go func() {
		errCh <- h.writeLoop(ctx, conn, connection)
	}()

	go func() {
		errCh <- h.pingLoop(ctx, conn)
	}()

	err = <-errCh
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure &&
		websocket.CloseStatus(err) != websocket.StatusGoingAway {
		h.log.Warnw("WebSocket connection error",
			"connectionID", connection.ID,
			"error", err)
	}
}

// readLoop handles incoming messages from the client.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}
		h.handleClientMessage(ctx, conn, msg)
	}
}

// writeLoop forwards queued states to the client.
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, connection *Connection) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-connection.SendChannel():
			if !ok {
				return nil
			}
			if err := h.sendMessage(ctx, conn, ServerMessage{Type: MessageTypeState, Payload: state}); err != nil {
				return err
			}
		}
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) error {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (h *Handler) handleClientMessage(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	switch msg.Type {
	case "ping":
		_ = h.sendMessage(ctx, conn, ServerMessage{Type: MessageTypePong})
	case "state":
		_ = h.sendMessage(ctx, conn, ServerMessage{Type: MessageTypeState, Payload: h.hub.source.State()})
	default:
		_ = h.sendMessage(ctx, conn, ServerMessage{
			Type:  MessageTypeError,
			Error: "Unknown message type",
		})
	}
}

// sendMessage sends a message to the client.
func (h *Handler) sendMessage(ctx context.Context, conn *websocket.Conn, msg ServerMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, msg)
}
