package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fittrack/fittrack/config"
	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// fakeSource is a minimal state cell.
type fakeSource struct {
	mu        sync.Mutex
	state     types.AuthState
	listeners map[int]auth.Listener
	next      int
}

func newFakeSource(initial types.AuthState) *fakeSource {
	return &fakeSource{state: initial, listeners: make(map[int]auth.Listener)}
}

func (s *fakeSource) Subscribe(fn auth.Listener) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	current := s.state
	s.mu.Unlock()

	fn(current)
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *fakeSource) State() types.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *fakeSource) publish(state types.AuthState) {
	s.mu.Lock()
	s.state = state
	listeners := make([]auth.Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()
	for _, l := range listeners {
		l(state)
	}
}

func (s *fakeSource) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

type countingMetrics struct {
	mu     sync.Mutex
	open   int
	closed int
}

func (m *countingMetrics) StreamOpened() { m.mu.Lock(); m.open++; m.mu.Unlock() }
func (m *countingMetrics) StreamClosed() { m.mu.Lock(); m.closed++; m.mu.Unlock() }

func (m *countingMetrics) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open, m.closed
}

func signedInState() types.AuthState {
	return types.AuthState{
		User:    &types.AuthUser{ID: "u1", Email: "alba@example.com"},
		Profile: &types.Profile{ID: "u1", Username: types.UsernameAlba},
		Session: &types.Session{AccessToken: "tok", User: types.AuthUser{ID: "u1"}},
	}
}

func TestDefaultHubConfig(t *testing.T) {
	cfg := DefaultHubConfig()
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 32, cfg.SendBuffer)
}

func TestHub_RegisterQueuesCurrentState(t *testing.T) {
	source := newFakeSource(types.LoadingState())
	metrics := &countingMetrics{}
	hub := NewHub(source, metrics)

	conn := hub.Register(context.Background(), nil)

	assert.Equal(t, 1, hub.GetConnectionCount())
	assert.Equal(t, 1, source.listenerCount())
	assert.Equal(t, types.LoadingState(), <-conn.SendChannel())

	source.publish(signedInState())
	assert.Equal(t, signedInState(), <-conn.SendChannel())

	hub.Unregister(conn.ID, "test")
	hub.Unregister(conn.ID, "test")

	assert.True(t, conn.IsClosed())
	assert.Equal(t, 0, hub.GetConnectionCount())
	assert.Equal(t, 0, source.listenerCount())
	open, closed := metrics.counts()
	assert.Equal(t, 1, open)
	assert.Equal(t, 1, closed)

	_, ok := <-conn.SendChannel()
	assert.False(t, ok)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	source := newFakeSource(types.SignedOutState())
	hub := NewHub(source, nil, HubConfig{PingInterval: time.Second, WriteTimeout: time.Second, SendBuffer: 1})

	conn := hub.Register(context.Background(), nil)
	source.publish(signedInState())

	assert.Eventually(t, conn.IsClosed, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, source.listenerCount())
	assert.Equal(t, 0, hub.GetConnectionCount())
}

func TestHub_Shutdown(t *testing.T) {
	source := newFakeSource(types.SignedOutState())
	hub := NewHub(source, nil)
	a := hub.Register(context.Background(), nil)
	b := hub.Register(context.Background(), nil)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
	assert.Equal(t, 0, source.listenerCount())
}

type streamMessage struct {
	Type    string          `json:"type"`
	Payload types.AuthState `json:"payload"`
	Error   string          `json:"error"`
}

func dialStream(t *testing.T, source *fakeSource) (*websocket.Conn, *Hub) {
	t.Helper()
	hub := NewHub(source, nil)
	handler := NewHandler(hub, &config.ServerConfig{Environment: config.EnvDevelopment})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn, hub
}

func readMessage(t *testing.T, conn *websocket.Conn) streamMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg streamMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func TestHandler_StreamsStates(t *testing.T) {
	source := newFakeSource(types.LoadingState())
	conn, _ := dialStream(t, source)

	first := readMessage(t, conn)
	assert.Equal(t, MessageTypeState, first.Type)
	assert.True(t, first.Payload.Loading)

	require.Eventually(t, func() bool { return source.listenerCount() == 1 }, time.Second, 10*time.Millisecond)
	source.publish(signedInState())

	second := readMessage(t, conn)
	assert.Equal(t, MessageTypeState, second.Type)
	assert.False(t, second.Payload.Loading)
	require.NotNil(t, second.Payload.User)
	assert.Equal(t, "u1", second.Payload.User.ID)
	assert.Equal(t, "Alba", second.Payload.Profile.Name())
}

func TestHandler_ClientMessages(t *testing.T) {
	source := newFakeSource(types.SignedOutState())
	conn, _ := dialStream(t, source)
	readMessage(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "ping"}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "state"}))
	state := readMessage(t, conn)
	assert.Equal(t, MessageTypeState, state.Type)
	assert.Equal(t, types.SignedOutState(), state.Payload)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "bogus"}))
	unknown := readMessage(t, conn)
	assert.Equal(t, MessageTypeError, unknown.Type)
	assert.Equal(t, "Unknown message type", unknown.Error)
}

func TestHandler_UnsubscribesOnClose(t *testing.T) {
	source := newFakeSource(types.SignedOutState())
	conn, hub := dialStream(t, source)
	readMessage(t, conn)
	require.Equal(t, 1, source.listenerCount())

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	assert.Eventually(t, func() bool {
		return source.listenerCount() == 0 && hub.GetConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
