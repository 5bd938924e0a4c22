// Package realtime keeps a best-effort event channel open to the site's
// websocket endpoint.
//
// Frames are JSON envelopes {"event": name, "data": payload}. When the
// connection drops the channel redials after attempt × base delay, up to a
// fixed number of consecutive attempts; a successful connection resets the
// count. Failures are logged and surfaced only through the "connect",
// "disconnect" and "error" events.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Reserved event names fired by the channel itself.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
	EventError      = "error"
)

// Reconnect policy defaults.
const (
	DefaultBaseDelay   = time.Second
	DefaultMaxAttempts = 5
)

// ErrAlreadyConnected is returned by Connect while a connection is open or being dialed.
var ErrAlreadyConnected = errors.New("realtime: already connected")

// State is the connection status of a Channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Handler receives the raw data of an event. Connect and disconnect
// handlers receive nil; error handlers receive the message as a JSON string.
type Handler func(data json.RawMessage)

// Envelope is the wire frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type dialFunc func(ctx context.Context, rawURL string) (*websocket.Conn, error)

// afterFunc schedules f after d and returns a function that cancels it.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

// Channel is a reconnecting event connection. The zero value is not usable;
// call New.
type Channel struct {
	mu       sync.Mutex
	url      string
	state    State
	conn     *websocket.Conn
	handlers map[string]Handler
	attempts int
	gen      uint64
	stop     func() bool

	writeMu sync.Mutex

	baseDelay   time.Duration
	maxAttempts int
	dialer      *websocket.Dialer
	header      http.Header
	logger      *zap.Logger
	dial        dialFunc
	after       afterFunc
	onGiveUp    func()
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger for connection events and failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Channel) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseDelay sets the delay unit; attempt n waits n × d.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithMaxAttempts sets the number of consecutive redials before giving up.
func WithMaxAttempts(n int) Option {
	return func(c *Channel) {
		if n >= 0 {
			c.maxAttempts = n
		}
	}
}

// WithHeader adds headers to the websocket handshake.
func WithHeader(h http.Header) Option {
	return func(c *Channel) {
		c.header = h.Clone()
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithGiveUp registers fn to run once the reconnect ceiling is reached and
// the channel stops retrying.
func WithGiveUp(fn func()) Option {
	return func(c *Channel) {
		c.onGiveUp = fn
	}
}

// New returns a disconnected channel.
func New(opts ...Option) *Channel {
	c := &Channel{
		handlers:    make(map[string]Handler),
		baseDelay:   DefaultBaseDelay,
		maxAttempts: DefaultMaxAttempts,
		dialer:      &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:      zap.NewNop(),
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	c.dial = c.dialWebsocket
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection status.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of consecutive reconnect attempts made since
// the last successful connection.
func (c *Channel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Connect dials rawURL (ws or wss) and blocks until the first attempt
// resolves. Only an invalid URL or a second Connect on a live channel is
// returned as an error; dial failures are logged and retried.
func (c *Channel) Connect(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("realtime: invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("realtime: url %q must use ws or wss", rawURL)
	}

	c.mu.Lock()
	if c.state == Connecting || c.state == Connected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.url = rawURL
	c.state = Connecting
	c.attempts = 0
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.open(ctx, gen)
	return nil
}

// Disconnect tears the channel down regardless of its state. Pending
// reconnects are cancelled and none are scheduled afterwards.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.gen++
	wasConnected := c.state == Connected
	c.state = Closed
	c.attempts = 0
	conn := c.conn
	c.conn = nil
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	onDisconnect := c.handlers[EventDisconnect]
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	if wasConnected {
		c.logger.Info("disconnected from server", zap.String("reason", "client disconnect"))
		if onDisconnect != nil {
			onDisconnect(nil)
		}
	}
}

// On registers h for event, replacing any earlier handler for the same
// name. Handlers survive reconnects and take effect on the current
// connection immediately.
func (c *Channel) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h == nil {
		delete(c.handlers, event)
		return
	}
	c.handlers[event] = h
}

// Off removes the handler for event.
func (c *Channel) Off(event string) {
	c.On(event, nil)
}

// Subscribe registers a typed handler for event. Payloads that do not
// decode into T are logged and reported on the error event.
func Subscribe[T any](c *Channel, event string, fn func(T)) {
	c.On(event, func(data json.RawMessage) {
		var v T
		if len(data) > 0 {
			if err := json.Unmarshal(data, &v); err != nil {
				c.protocolError(fmt.Errorf("decoding %q payload: %w", event, err))
				return
			}
		}
		fn(v)
	})
}

// Emit sends an event. It is dropped without error when the channel is not
// connected; encoding and write failures are logged.
func (c *Channel) Emit(event string, data any) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == Connected
	c.mu.Unlock()
	if !connected || conn == nil {
		c.logger.Debug("dropping event while disconnected", zap.String("event", event))
		return
	}

	raw, err := encodeEnvelope(event, data)
	if err != nil {
		c.logger.Error("encoding event failed", zap.String("event", event), zap.Error(err))
		return
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, raw)
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Error("sending event failed", zap.String("event", event), zap.Error(err))
	}
}

func encodeEnvelope(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = payload
	}
	return json.Marshal(env)
}

func (c *Channel) dialWebsocket(ctx context.Context, rawURL string) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, rawURL, c.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial websocket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	return conn, nil
}

// open dials for generation gen and installs the connection if the
// channel has not moved on in the meantime.
func (c *Channel) open(ctx context.Context, gen uint64) {
	c.mu.Lock()
	rawURL := c.url
	c.mu.Unlock()

	conn, err := c.dial(ctx, rawURL)

	c.mu.Lock()
	if gen != c.gen || c.state == Closed {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("connecting to server failed", zap.String("url", rawURL), zap.Error(err))
		c.protocolError(err)
		c.handleDrop(gen, nil)
		return
	}
	c.conn = conn
	c.state = Connected
	c.attempts = 0
	onConnect := c.handlers[EventConnect]
	c.mu.Unlock()

	c.logger.Info("connected to server", zap.String("url", rawURL))
	if onConnect != nil {
		onConnect(nil)
	}
	go c.readLoop(conn, gen)
}

func (c *Channel) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("connection closed unexpectedly", zap.Error(err))
			}
			c.handleDrop(gen, conn)
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		c.dispatch(raw)
	}
}

func (c *Channel) dispatch(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.protocolError(fmt.Errorf("decoding frame: %w", err))
		return
	}
	if env.Event == "" {
		c.protocolError(errors.New("frame has no event name"))
		return
	}

	c.mu.Lock()
	h := c.handlers[env.Event]
	c.mu.Unlock()
	if h != nil {
		h(env.Data)
	}
}

func (c *Channel) protocolError(err error) {
	c.logger.Error("socket error", zap.Error(err))
	c.mu.Lock()
	h := c.handlers[EventError]
	c.mu.Unlock()
	if h != nil {
		msg, _ := json.Marshal(err.Error())
		h(msg)
	}
}

// handleDrop records a lost (or never established) connection and
// schedules the next attempt while the ceiling allows it.
func (c *Channel) handleDrop(gen uint64, conn *websocket.Conn) {
	c.mu.Lock()
	if gen != c.gen || c.state == Closed {
		c.mu.Unlock()
		return
	}
	if conn != nil && c.conn == conn {
		c.conn = nil
	}
	wasConnected := c.state == Connected
	c.state = Disconnected
	onDisconnect := c.handlers[EventDisconnect]

	scheduled := false
	var delay time.Duration
	attempt := c.attempts
	if c.attempts < c.maxAttempts {
		c.attempts++
		attempt = c.attempts
		delay = time.Duration(attempt) * c.baseDelay
		c.stop = c.after(delay, func() { c.redial(gen) })
		scheduled = true
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if wasConnected {
		c.logger.Info("disconnected from server")
		if onDisconnect != nil {
			onDisconnect(nil)
		}
	}
	if scheduled {
		c.logger.Info("reconnect scheduled", zap.Int("attempt", attempt), zap.Duration("delay", delay))
	} else {
		c.logger.Warn("giving up reconnecting", zap.Int("attempts", attempt))
		if c.onGiveUp != nil {
			c.onGiveUp()
		}
	}
}

func (c *Channel) redial(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != Disconnected {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	c.stop = nil
	c.mu.Unlock()

	c.open(context.Background(), gen)
}
