package hub

import (
	"bytes"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/daxtonb/jtac-bridge/internal/metrics"
)

// Delimiter separates topic from body in both the client↔host control
// protocol and the internally formatted bus messages.
const Delimiter = 0x00

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// MessageCallback is invoked once per client frame that is not a
// SUBSCRIBE/UNSUBSCRIBE control message.
type MessageCallback func(clientID uint32, topic, body string)

// session owns one connected client from accept through teardown. The
// reader goroutine owns writes to subscribedTopics; the writer goroutine
// only reads it, coordinating through subscribedMu.
type session struct {
	id     uint32
	conn   *websocket.Conn
	logger zerolog.Logger

	outbound chan string

	subscribedMu     sync.RWMutex
	subscribedTopics map[string]struct{}

	onMessage    MessageCallback
	onDisconnect func(uint32)
	closeOnce    sync.Once

	limiter *rate.Limiter
	metrics *metrics.Metrics
}

func newSession(id uint32, conn *websocket.Conn, logger zerolog.Logger, queueSize int, onMessage MessageCallback, onDisconnect func(uint32), limiter *rate.Limiter, m *metrics.Metrics) *session {
	return &session{
		id:               id,
		conn:             conn,
		logger:           logger.With().Uint32("client_id", id).Logger(),
		outbound:         make(chan string, queueSize),
		subscribedTopics: make(map[string]struct{}),
		onMessage:        onMessage,
		onDisconnect:     onDisconnect,
		limiter:          limiter,
		metrics:          m,
	}
}

func (s *session) isSubscribed(topic string) bool {
	s.subscribedMu.RLock()
	defer s.subscribedMu.RUnlock()
	_, ok := s.subscribedTopics[topic]
	return ok
}

func (s *session) subscribe(topic string) {
	s.subscribedMu.Lock()
	s.subscribedTopics[topic] = struct{}{}
	s.subscribedMu.Unlock()
}

func (s *session) unsubscribe(topic string) {
	s.subscribedMu.Lock()
	delete(s.subscribedTopics, topic)
	s.subscribedMu.Unlock()
}

// enqueue offers a formatted "<topic><Delimiter><body>" message to this
// client's outbound queue without blocking. It returns false if the queue
// was full, in which case the message was dropped for this client only.
func (s *session) enqueue(formatted string) bool {
	select {
	case s.outbound <- formatted:
		return true
	default:
		return false
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		s.conn.Close()
		if s.onDisconnect != nil {
			s.onDisconnect(s.id)
		}
	})
}

// readPump reads client frames until end-of-stream or a transport error,
// dispatching SUBSCRIBE/UNSUBSCRIBE control frames locally and handing
// everything else to the host-supplied callback.
func (s *session) readPump() {
	defer s.close()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Debug().Err(err).Msg("client read ended")
			return
		}
		if msgType != websocket.TextMessage {
			s.logger.Warn().Int("message_type", msgType).Msg("discarding non-text frame")
			continue
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.logger.Warn().Msg("client control frame dropped: rate limit exceeded")
			continue
		}

		s.handleFrame(data)
	}
}

func (s *session) handleFrame(data []byte) {
	idx := bytes.IndexByte(data, Delimiter)
	if idx < 0 {
		s.logger.Warn().Msg("discarding frame missing topic delimiter")
		return
	}

	topic := string(data[:idx])
	body := string(data[idx+1:])

	switch topic {
	case "SUBSCRIBE":
		s.subscribe(body)
		s.logger.Debug().Str("topic", body).Msg("client subscribed")
	case "UNSUBSCRIBE":
		s.unsubscribe(body)
		s.logger.Debug().Str("topic", body).Msg("client unsubscribed")
	default:
		if s.onMessage != nil {
			s.onMessage(s.id, topic, body)
		}
	}
}

// writePump drains the outbound queue, delivering each message's body to
// the client only if it is currently subscribed to the message's topic. A
// ticker sends WebSocket pings so dead peers are detected even when
// nothing is being broadcast.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case formatted, ok := <-s.outbound:
			if !ok {
				return
			}
			if !s.deliver(formatted) {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug().Err(err).Msg("ping write failed")
				return
			}
		}
	}
}

// deliver writes a message's body to the client if it is subscribed to the
// message's topic. It returns false only on a write failure, signaling the
// caller that the session should end; a message dropped for lack of a
// subscription is not a failure.
func (s *session) deliver(formatted string) bool {
	idx := bytes.IndexByte([]byte(formatted), Delimiter)
	if idx < 0 {
		return true
	}
	topic := formatted[:idx]
	body := formatted[idx+1:]

	if !s.isSubscribed(topic) {
		return true
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(body)); err != nil {
		s.logger.Debug().Err(err).Msg("write failed, ending session")
		return false
	}
	return true
}
