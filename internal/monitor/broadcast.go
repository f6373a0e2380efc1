// Package monitor streams dispatched transport messages and engine counters
// to websocket clients.
package monitor

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leandrodaf/noteclock/sdk/contracts"
)

// ErrTooManyConnections is returned when the client limit is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			return
		}
	}
}

// Config tunes a Broadcaster.
type Config struct {
	Throttle      time.Duration // Pending messages are flushed at most this often.
	StatsInterval time.Duration // Zero disables stats frames.
	MaxClients    int           // Zero means unlimited.
	ClientBuffer  int           // Frames queued per client before it is dropped.
	MaxPending    int           // Messages kept between flushes; older ones are folded into the count.
}

// Broadcaster fans transport messages out to websocket clients. Clock pulses
// are counted rather than listed.
type Broadcaster struct {
	logger contracts.Logger
	cfg    Config
	stats  func() contracts.EngineStats
	proc   *processSampler
	hello  HelloPayload

	mu      sync.RWMutex
	clients map[*client]bool

	flushMu    sync.Mutex
	pending    []TransportPayload
	pulses     int
	flushTimer *time.Timer

	statsTicker *time.Ticker
	done        chan struct{}
	stopOnce    sync.Once
}

// NewBroadcaster creates a broadcaster. stats may be nil.
func NewBroadcaster(logger contracts.Logger, cfg Config, hello HelloPayload, stats func() contracts.EngineStats) *Broadcaster {
	if cfg.Throttle <= 0 {
		cfg.Throttle = 50 * time.Millisecond
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = 64
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 1024
	}
	b := &Broadcaster{
		logger:  logger,
		cfg:     cfg,
		stats:   stats,
		hello:   hello,
		clients: make(map[*client]bool),
		done:    make(chan struct{}),
	}
	if stats != nil && cfg.StatsInterval > 0 {
		b.proc = newProcessSampler()
		b.statsTicker = time.NewTicker(cfg.StatsInterval)
		go b.statsLoop()
	}
	return b
}

// AddClient registers conn and greets it.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.cfg.MaxClients > 0 && len(b.clients) >= b.cfg.MaxClients {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	c := &client{conn: conn, b: b, send: make(chan []byte, b.cfg.ClientBuffer)}
	data, _ := json.Marshal(WSMessage{Type: MsgHello, Payload: b.hello})
	c.send <- data
	b.clients[c] = true
	b.mu.Unlock()

	go c.writePump()
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Publish queues m for the next flush.
func (b *Broadcaster) Publish(m contracts.TransportMessage) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if m.Kind == contracts.ClockPulse {
		b.pulses++
	} else if len(b.pending) < b.cfg.MaxPending {
		b.pending = append(b.pending, newTransportPayload(m))
	}
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.cfg.Throttle, b.flush)
	}
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	msgs, pulses := b.pending, b.pulses
	b.pending, b.pulses = nil, 0
	b.flushTimer = nil
	b.flushMu.Unlock()

	if len(msgs) == 0 && pulses == 0 {
		return
	}
	b.broadcast(WSMessage{Type: MsgBatch, Payload: BatchPayload{Messages: msgs, Pulses: pulses}})
}

func (b *Broadcaster) statsLoop() {
	for {
		select {
		case <-b.done:
			return
		case <-b.statsTicker.C:
			b.broadcast(WSMessage{Type: MsgStats, Payload: newStatsPayload(b.stats(), b.proc.sample())})
		}
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Monitor marshal failed", b.logger.Field().Error("error", err))
		return
	}

	// Sends happen under the read lock so RemoveClient cannot close a
	// channel mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.logger.Warn("Monitor client too slow, disconnecting")
		b.RemoveClient(c)
	}
}

// Handler upgrades requests to websocket connections served by b.
func (b *Broadcaster) Handler() http.Handler {
	upgrader := websocket.Upgrader{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Warn("Monitor upgrade failed", b.logger.Field().Error("error", err))
			return
		}
		c, err := b.AddClient(conn)
		if err != nil {
			b.logger.Warn("Monitor client rejected", b.logger.Field().Error("error", err))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			conn.Close()
			return
		}
		b.logger.Info("Monitor client connected", b.logger.Field().String("remote", r.RemoteAddr))

		go func() {
			defer func() {
				b.RemoveClient(c)
				b.logger.Info("Monitor client disconnected", b.logger.Field().String("remote", r.RemoteAddr))
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// Stop halts the stats loop and pending flush and disconnects every client.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		if b.statsTicker != nil {
			b.statsTicker.Stop()
		}
		b.flushMu.Lock()
		if b.flushTimer != nil {
			b.flushTimer.Stop()
			b.flushTimer = nil
		}
		b.flushMu.Unlock()

		b.mu.Lock()
		for c := range b.clients {
			delete(b.clients, c)
			close(c.send)
		}
		b.mu.Unlock()
	})
}
