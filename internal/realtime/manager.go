// Package realtime manages the client's websocket connections. Each logical
// slot (the active chat conversation, the user's notification stream) owns at
// most one live connection; connecting a slot again supersedes the previous
// connection and detaches its handlers before anything else happens, so frames
// from an abandoned connection can never reach the new handlers.
package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ugcmarket/realtime-go/internal/apierr"
	"github.com/ugcmarket/realtime-go/internal/observability"
)

// State is the lifecycle state of one connection slot.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
	StateErrored    State = "errored"
)

// Envelope wraps every realtime push payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handlers receives callbacks for one slot. OnEvent runs on the connection's
// read goroutine; implementations must not block for long. OnError signals a
// transient transport failure; the manager does not retry. OnClose fires once
// when the connection ends for any reason other than being superseded or
// explicitly disconnected.
type Handlers struct {
	OnEvent func(Envelope)
	OnError func(error)
	OnClose func()
}

// Manager owns at most one live websocket connection per slot.
type Manager struct {
	dialer *websocket.Dialer
	logger zerolog.Logger

	mu    sync.Mutex
	conns map[string]*connection
}

type connection struct {
	id       string
	slot     string
	url      string
	handlers Handlers
	logger   zerolog.Logger

	// detached flips once when the connection is superseded or disconnected;
	// the read loop checks it before every dispatch.
	detached atomic.Bool

	mu    sync.Mutex
	ws    *websocket.Conn
	state State
}

// NewManager builds a slot manager with the given handshake timeout.
func NewManager(dialTimeout time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		dialer: &websocket.Dialer{HandshakeTimeout: dialTimeout},
		logger: logger.With().Str("component", "realtime_manager").Logger(),
		conns:  make(map[string]*connection),
	}
}

// Connect opens a connection for the slot. Any existing connection in the same
// slot has its handlers detached synchronously, then is closed in the
// background; the dial itself also runs in the background so selection flows
// are not blocked on the handshake.
func (m *Manager) Connect(slot, url string, handlers Handlers) {
	conn := &connection{
		id:       uuid.NewString(),
		slot:     slot,
		url:      url,
		handlers: handlers,
		state:    StateConnecting,
	}
	conn.logger = m.logger.With().Str("slot", slot).Str("conn_id", conn.id).Logger()

	m.mu.Lock()
	if prev, ok := m.conns[slot]; ok {
		prev.detach()
		go prev.close()
	}
	m.conns[slot] = conn
	m.mu.Unlock()

	go m.run(conn)
}

// Disconnect closes the slot's connection if one exists. Disconnecting an
// unknown or already-closed slot is a no-op.
func (m *Manager) Disconnect(slot string) {
	m.mu.Lock()
	conn, ok := m.conns[slot]
	if ok {
		delete(m.conns, slot)
		conn.detach()
	}
	m.mu.Unlock()

	if ok {
		conn.close()
	}
}

// Close tears down every open slot.
func (m *Manager) Close() {
	m.mu.Lock()
	conns := make([]*connection, 0, len(m.conns))
	for _, conn := range m.conns {
		conn.detach()
		conns = append(conns, conn)
	}
	m.conns = make(map[string]*connection)
	m.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
}

// SlotState reports the lifecycle state of a slot. Unknown slots are closed.
func (m *Manager) SlotState(slot string) State {
	m.mu.Lock()
	conn, ok := m.conns[slot]
	m.mu.Unlock()

	if !ok {
		return StateClosed
	}
	return conn.currentState()
}

func (m *Manager) run(c *connection) {
	ws, resp, err := m.dialer.Dial(c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.setState(StateErrored)
		observability.SocketErrors().WithLabelValues(c.slot).Inc()
		c.logger.Warn().Err(err).Msg("websocket dial failed")
		if !c.detached.Load() && c.handlers.OnError != nil {
			c.handlers.OnError(&apierr.TransportError{Slot: c.slot, Err: err})
		}
		m.forget(c)
		return
	}

	c.mu.Lock()
	if c.detached.Load() {
		// superseded while dialing
		c.mu.Unlock()
		_ = ws.Close()
		return
	}
	c.ws = ws
	c.state = StateOpen
	c.mu.Unlock()

	observability.SocketDials().WithLabelValues(c.slot).Inc()
	c.logger.Debug().Msg("websocket connected")

	c.readLoop(ws)
	m.forget(c)
}

// forget clears the manager's reference so a later Connect does not reuse a
// dead handle, then notifies the consumer unless the connection was superseded.
func (m *Manager) forget(c *connection) {
	m.mu.Lock()
	if m.conns[c.slot] == c {
		delete(m.conns, c.slot)
	}
	m.mu.Unlock()

	if !c.detached.Load() && c.handlers.OnClose != nil {
		c.handlers.OnClose()
	}
}

func (c *connection) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if c.detached.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setState(StateClosed)
				c.logger.Debug().Msg("websocket closed by peer")
				return
			}
			c.setState(StateErrored)
			observability.SocketErrors().WithLabelValues(c.slot).Inc()
			c.logger.Warn().Err(err).Msg("websocket read failed")
			if c.handlers.OnError != nil {
				c.handlers.OnError(&apierr.TransportError{Slot: c.slot, Err: err})
			}
			return
		}

		if c.detached.Load() {
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			c.logger.Warn().Err(err).Msg("dropping malformed realtime frame")
			continue
		}
		if envelope.Event == "" {
			c.logger.Warn().Msg("dropping realtime frame without event")
			continue
		}

		if c.handlers.OnEvent != nil {
			c.handlers.OnEvent(envelope)
		}
	}
}

func (c *connection) detach() {
	c.detached.Store(true)
}

func (c *connection) close() {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.state = StateClosed
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
	}
}

func (c *connection) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *connection) currentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
