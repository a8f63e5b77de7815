package client

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// streamConfig describes one exchange kline stream: where to connect, how to
// subscribe once connected, how to handle raw frames, and the keep-alive the
// exchange requires (pingInterval of zero disables client pings).
type streamConfig struct {
	name         string
	url          string
	subscribe    func(conn *websocket.Conn) error
	handle       func(message []byte)
	pingInterval time.Duration
	pingPayload  []byte
	logger       *zap.Logger
}

// klineStream is one live subscription. It owns its socket handle and
// reconnect timer; Close is idempotent and guarantees no further message
// handling or reconnect attempt afterwards.
type klineStream struct {
	cfg   streamConfig
	retry *backoff.ExponentialBackOff

	mu     sync.Mutex
	conn   *websocket.Conn
	timer  *time.Timer
	closed bool
}

// newReconnectBackoff builds the reconnect schedule mandated for every
// exchange stream: 1s initial delay doubling up to a 30s cap, no jitter,
// never giving up; Reset returns the schedule to 1s after a successful open.
func newReconnectBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// openKlineStream starts connecting in the background and returns immediately
func openKlineStream(cfg streamConfig) *klineStream {
	s := &klineStream{
		cfg:   cfg,
		retry: newReconnectBackoff(),
	}
	go s.connect()
	return s
}

// Close tears the stream down: stops any pending reconnect timer, closes the
// socket and suppresses all further callbacks. Safe to call multiple times.
func (s *klineStream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.cfg.logger.Debug("Kline stream closed", zap.String("stream", s.cfg.name))
}

func (s *klineStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *klineStream) connect() {
	if s.isClosed() {
		return
	}

	conn, _, err := websocket.DefaultDialer.Dial(s.cfg.url, nil)
	if err != nil {
		s.cfg.logger.Warn("Failed to dial kline stream",
			zap.String("stream", s.cfg.name),
			zap.Error(err))
		s.scheduleReconnect()
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.retry.Reset()
	s.mu.Unlock()

	if s.cfg.subscribe != nil {
		if err := s.cfg.subscribe(conn); err != nil {
			s.cfg.logger.Warn("Failed to subscribe on kline stream",
				zap.String("stream", s.cfg.name),
				zap.Error(err))
			conn.Close()
			s.scheduleReconnect()
			return
		}
	}

	s.cfg.logger.Info("Kline stream connected", zap.String("stream", s.cfg.name))

	stopPing := make(chan struct{})
	if s.cfg.pingInterval > 0 {
		go s.pingLoop(conn, stopPing)
	}

	s.readLoop(conn)
	close(stopPing)
}

// readLoop delivers frames in arrival order until the connection drops.
// A deliberate Close ends the loop silently; an unexpected close schedules a
// reconnect instead of surfacing an error.
func (s *klineStream) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			if s.isClosed() {
				return
			}
			s.cfg.logger.Warn("Kline stream disconnected",
				zap.String("stream", s.cfg.name),
				zap.Error(err))
			s.scheduleReconnect()
			return
		}

		if s.isClosed() {
			return
		}
		s.cfg.handle(message)
	}
}

// pingLoop sends the exchange's keep-alive frame on a fixed interval while
// the connection is up
func (s *klineStream) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, s.cfg.pingPayload); err != nil {
				return
			}
		}
	}
}

func (s *klineStream) scheduleReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	delay := s.retry.NextBackOff()
	s.cfg.logger.Info("Scheduling kline stream reconnect",
		zap.String("stream", s.cfg.name),
		zap.Duration("delay", delay))
	s.timer = time.AfterFunc(delay, s.connect)
}
