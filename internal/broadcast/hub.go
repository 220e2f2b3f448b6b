package broadcast

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/maheshdev/marketbridge/internal/metrics"
)

const writeTimeout = 5 * time.Second

// subscriber is one connected client. The mutex serializes writes to the
// connection; gorilla allows only one concurrent writer.
type subscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub accepts WebSocket subscribers and fans messages out to them.
type Hub struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	upgrader websocket.Upgrader

	mu          sync.RWMutex
	subscribers map[string]*subscriber
	notify      chan struct{}
}

// NewHub creates a Hub. The metrics set may be nil.
func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subscribers: make(map[string]*subscriber),
		notify:      make(chan struct{}, 1),
	}
}

// ServeHTTP upgrades the request and registers the subscriber. Inbound
// messages are read and discarded; the read loop exists to detect the
// close.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			"remote", r.RemoteAddr,
			"error", err,
		)
		return
	}

	sub := &subscriber{id: uuid.NewString(), conn: conn}
	h.register(sub)

	go h.readLoop(sub)
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	h.subscribers[sub.id] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	select {
	case h.notify <- struct{}{}:
	default:
	}

	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(count))
	}
	h.logger.Info("subscriber connected",
		"id", sub.id,
		"remote", sub.conn.RemoteAddr().String(),
		"subscribers", count,
	)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.conn.Close()

	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(count))
	}
	h.logger.Info("subscriber removed",
		"id", id,
		"subscribers", count,
	)
}

func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub.id)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// SubscriberCount returns the size of the active set.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// WaitForSubscriber blocks until at least one subscriber is connected or
// the context ends.
func (h *Hub) WaitForSubscriber(ctx context.Context) error {
	for {
		if h.SubscriberCount() > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.notify:
		}
	}
}

// Broadcast encodes the message once and sends it to every subscriber
// concurrently. A failed send removes that subscriber; the rest are
// unaffected. Returns the number of successful deliveries.
func (h *Hub) Broadcast(msg Message) int {
	data, err := Encode(msg)
	if err != nil {
		h.logger.Error("message encode failed",
			"type", msg.MessageType(),
			"error", err,
		)
		return 0
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	sent := 0

	for _, sub := range targets {
		wg.Add(1)
		go func(sub *subscriber) {
			defer wg.Done()
			if err := sub.send(data); err != nil {
				h.logger.Warn("subscriber send failed",
					"id", sub.id,
					"type", msg.MessageType(),
					"error", err,
				)
				if h.metrics != nil {
					h.metrics.BroadcastFailures.Inc()
				}
				h.remove(sub.id)
				return
			}
			mu.Lock()
			sent++
			mu.Unlock()
		}(sub)
	}
	wg.Wait()

	if h.metrics != nil {
		h.metrics.BroadcastTotal.WithLabelValues(string(msg.MessageType())).Inc()
	}
	return sent
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.conn.Close()
	}
	if h.metrics != nil {
		h.metrics.Subscribers.Set(0)
	}
}
