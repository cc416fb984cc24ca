// Package socket connects the event bus to the forum's websocket.
//
// Frames are JSON arrays: ["kind", payload]. Incoming frames are handed
// to a Deliverer; Send queues outgoing frames for the writer. The client
// reconnects until its context ends.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/topicview/internal/event"
	"github.com/dshills/topicview/internal/logging"
)

// Source is recorded on every delivered event.
const Source = "socket"

var (
	// ErrBadFrame is returned for frames that are not ["kind", payload].
	ErrBadFrame = errors.New("malformed frame")

	// ErrSendBufferFull is returned by Send when the writer is behind.
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrClosed is returned by Send after Run has returned.
	ErrClosed = errors.New("socket closed")
)

// Deliverer receives decoded events. *event.Bus implements it.
type Deliverer interface {
	Deliver(ctx context.Context, evt event.Event)
}

// Settings are the connection timings.
type Settings struct {
	HandshakeTimeout time.Duration
	ReconnectTimeout time.Duration
	PingInterval     time.Duration
	WriteTimeout     time.Duration
	// ReadTimeout must be longer than PingInterval; pongs extend it.
	ReadTimeout time.Duration
	SendBuffer  int
}

// DefaultSettings returns the timings used in production.
func DefaultSettings() Settings {
	return Settings{
		HandshakeTimeout: 5 * time.Second,
		ReconnectTimeout: 5 * time.Second,
		PingInterval:     25 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadTimeout:      60 * time.Second,
		SendBuffer:       64,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithSettings replaces the default timings.
func WithSettings(s Settings) Option {
	return func(c *Client) { c.settings = s }
}

// WithHeader sets the handshake headers, such as the session cookie.
func WithHeader(h http.Header) Option {
	return func(c *Client) { c.header = h.Clone() }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOnConnect registers a callback run after every successful dial.
func WithOnConnect(fn func(attempt int)) Option {
	return func(c *Client) { c.onConnect = fn }
}

// Stats are the client counters.
type Stats struct {
	Connects  uint64
	Received  uint64
	Dropped   uint64
	Sent      uint64
	Connected bool
}

// Client is a reconnecting websocket client. It implements event.Sender.
type Client struct {
	url       string
	header    http.Header
	sink      Deliverer
	settings  Settings
	logger    *logging.Logger
	onConnect func(attempt int)

	send   chan []byte
	closed chan struct{}
	once   sync.Once

	connected atomic.Bool
	connects  atomic.Uint64
	received  atomic.Uint64
	dropped   atomic.Uint64
	sent      atomic.Uint64
}

// New creates a client for url. Nothing is dialed until Run.
func New(url string, sink Deliverer, opts ...Option) *Client {
	c := &Client{
		url:      url,
		sink:     sink,
		settings: DefaultSettings(),
		logger:   logging.Nop(),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings.SendBuffer <= 0 {
		c.settings.SendBuffer = 1
	}
	c.send = make(chan []byte, c.settings.SendBuffer)
	c.logger = c.logger.WithComponent("socket")
	return c
}

// Send queues a frame. Frames queued while disconnected are written after
// the next dial.
func (c *Client) Send(ctx context.Context, kind event.Kind, payload []byte) error {
	frame, err := EncodeFrame(kind, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrSendBufferFull
	}
}

// Connected reports whether a connection is up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Stats returns the client counters.
func (c *Client) Stats() Stats {
	return Stats{
		Connects:  c.connects.Load(),
		Received:  c.received.Load(),
		Dropped:   c.dropped.Load(),
		Sent:      c.sent.Load(),
		Connected: c.connected.Load(),
	}
}

// Run dials and serves connections until ctx ends.
func (c *Client) Run(ctx context.Context) error {
	defer c.once.Do(func() { close(c.closed) })

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.settings.HandshakeTimeout,
	}
	for attempt := 1; ; attempt++ {
		ws, _, err := dialer.DialContext(ctx, c.url, c.header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("dial %s failed (attempt %d): %v", c.url, attempt, err)
		} else {
			c.connects.Add(1)
			c.logger.Info("connected to %s", c.url)
			if c.onConnect != nil {
				c.onConnect(attempt)
			}
			attempt = 0
			err = c.serve(ctx, ws)
			c.logger.Info("disconnected: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.settings.ReconnectTimeout):
		}
	}
}

// serve runs the reader and writer of one connection until either fails.
func (c *Client) serve(ctx context.Context, ws *websocket.Conn) error {
	defer ws.Close()
	c.connected.Store(true)
	defer c.connected.Store(false)

	connCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	go func() {
		// Events outlive the connection that carried them.
		cancel(c.read(ctx, ws))
	}()
	go func() {
		cancel(c.write(connCtx, ws))
	}()

	<-connCtx.Done()
	deadline := time.Now().Add(c.settings.WriteTimeout)
	ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return context.Cause(connCtx)
}

func (c *Client) read(ctx context.Context, ws *websocket.Conn) error {
	ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
	})
	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
		if messageType != websocket.TextMessage {
			continue
		}

		kind, payload, err := DecodeFrame(message)
		if err != nil {
			c.dropped.Add(1)
			c.logger.Warn("drop frame: %v", err)
			continue
		}
		evt, err := event.Parse(kind, payload, Source)
		if err != nil {
			c.dropped.Add(1)
			c.logger.Warn("drop %s: %v", kind, err)
			continue
		}
		c.received.Add(1)
		c.sink.Deliver(ctx, evt)
	}
}

func (c *Client) write(ctx context.Context, ws *websocket.Conn) error {
	ping := time.NewTicker(c.settings.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			c.sent.Add(1)
		case <-ping.C:
			deadline := time.Now().Add(c.settings.WriteTimeout)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

// EncodeFrame builds ["kind", payload]. An empty payload is sent as a
// one-element frame.
func EncodeFrame(kind event.Kind, payload []byte) ([]byte, error) {
	if kind == "" {
		return nil, event.ErrInvalidKind
	}
	frame, err := sjson.SetBytes([]byte("[]"), "-1", string(kind))
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if len(payload) == 0 {
		return frame, nil
	}
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrBadFrame)
	}
	frame, err = sjson.SetRawBytes(frame, "-1", payload)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return frame, nil
}

// DecodeFrame splits a frame into its kind and raw payload.
func DecodeFrame(frame []byte) (event.Kind, []byte, error) {
	if !gjson.ValidBytes(frame) {
		return "", nil, fmt.Errorf("%w: not JSON", ErrBadFrame)
	}
	parts := gjson.ParseBytes(frame)
	if !parts.IsArray() {
		return "", nil, fmt.Errorf("%w: not an array", ErrBadFrame)
	}
	head := parts.Get("0")
	if head.Type != gjson.String || head.String() == "" {
		return "", nil, fmt.Errorf("%w: missing kind", ErrBadFrame)
	}
	body := parts.Get("1")
	if !body.Exists() {
		return event.Kind(head.String()), nil, nil
	}
	return event.Kind(head.String()), []byte(body.Raw), nil
}
