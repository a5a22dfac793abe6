package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tendant/simple-feed/pkg/simplefeed"
)

// WSConfig tunes a WebSocket subscriber
type WSConfig struct {
	// Buffer is the number of encoded events queued per connection.
	Buffer int
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// PongWait is how long the peer may stay silent before the connection is dropped.
	PongWait time.Duration
	// PingInterval must be shorter than PongWait.
	PingInterval time.Duration
	// MaxMessageSize limits inbound frames; viewers only send control frames.
	MaxMessageSize int64
}

// DefaultWSConfig returns the settings used by the server
func DefaultWSConfig() WSConfig {
	return WSConfig{
		Buffer:         16,
		WriteTimeout:   10 * time.Second,
		PongWait:       60 * time.Second,
		PingInterval:   54 * time.Second,
		MaxMessageSize: 512,
	}
}

func (c WSConfig) withDefaults() WSConfig {
	d := DefaultWSConfig()
	if c.Buffer <= 0 {
		c.Buffer = d.Buffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = c.PongWait * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

// WSSubscriber delivers events over one WebSocket connection. Send only
// enqueues; a writer goroutine started by Serve does the network I/O, so a
// stalled peer fills its own queue and nothing else.
type WSSubscriber struct {
	id     string
	conn   *websocket.Conn
	cfg    WSConfig
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewWSSubscriber wraps an upgraded connection
func NewWSSubscriber(conn *websocket.Conn, cfg WSConfig, logger *slog.Logger) *WSSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &WSSubscriber{
		id:     uuid.NewString(),
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		send:   make(chan []byte, cfg.Buffer),
		done:   make(chan struct{}),
	}
}

func (s *WSSubscriber) ID() string { return s.id }

func (s *WSSubscriber) Send(event simplefeed.Event) error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}

	data, err := simplefeed.EncodeEvent(event)
	if err != nil {
		return err
	}
	return s.SendFrame(data)
}

// SendFrame queues an already encoded event. The frame is shared with other
// subscribers and must not be modified.
func (s *WSSubscriber) SendFrame(frame []byte) error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}

	select {
	case s.send <- frame:
		return nil
	case <-s.done:
		return ErrSubscriberClosed
	default:
		return ErrSubscriberBusy
	}
}

var _ FrameSubscriber = (*WSSubscriber)(nil)

// Serve pumps the connection until the peer goes away, a write fails or ctx
// is cancelled. It always closes the connection before returning.
func (s *WSSubscriber) Serve(ctx context.Context) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	s.readLoop()
	s.Close()
	<-writerDone
}

// Close shuts the connection down. Safe to call more than once.
func (s *WSSubscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		deadline := time.Now().Add(s.cfg.WriteTimeout)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
	})
}

// Done is closed once the subscriber has shut down.
func (s *WSSubscriber) Done() <-chan struct{} { return s.done }

func (s *WSSubscriber) readLoop() {
	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket read ended", "subscriber_id", s.id, "error", err)
			}
			return
		}
	}
}

func (s *WSSubscriber) writeLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Warn("WebSocket write failed", "subscriber_id", s.id, "error", err)
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		}
	}
}
