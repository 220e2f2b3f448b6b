package broadcast

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil, nil)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialTestHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestHubSubscriberLifecycle(t *testing.T) {
	hub, url := newTestHub(t)

	if hub.SubscriberCount() != 0 {
		t.Fatalf("fresh hub has %d subscribers", hub.SubscriberCount())
	}

	conn := dialTestHub(t, url)
	waitFor(t, func() bool { return hub.SubscriberCount() == 1 }, "subscriber never registered")

	// Inbound messages are accepted and discarded.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":true}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.Close()
	waitFor(t, func() bool { return hub.SubscriberCount() == 0 }, "subscriber never removed after close")
}

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	hub, url := newTestHub(t)

	a := dialTestHub(t, url)
	b := dialTestHub(t, url)
	waitFor(t, func() bool { return hub.SubscriberCount() == 2 }, "subscribers never registered")

	sent := hub.Broadcast(PCRMsg{Symbol: "NIFTY", Timestamp: 1, PCR: 1.25})
	if sent != 2 {
		t.Errorf("delivered to %d subscribers, want 2", sent)
	}

	for _, conn := range []*websocket.Conn{a, b} {
		out := readEnvelope(t, conn)
		if out["type"] != "pcr_update" || out["symbol"] != "NIFTY" {
			t.Errorf("envelope = %v", out)
		}
	}
}

// TestHubDisconnectMidTick: with three subscribers and one forcibly closed
// between the fetch and the send, the remaining two still receive the
// tick's message and the dead one is removed.
func TestHubDisconnectMidTick(t *testing.T) {
	hub, url := newTestHub(t)

	first := dialTestHub(t, url)
	second := dialTestHub(t, url)
	third := dialTestHub(t, url)
	waitFor(t, func() bool { return hub.SubscriberCount() == 3 }, "subscribers never registered")

	second.Close()

	msg := BreadthMsg{Timestamp: 1, Breadth: breadthFixture()}
	// The hub may need one send to notice the dead connection; the live
	// subscribers must receive every broadcast regardless.
	hub.Broadcast(msg)
	hub.Broadcast(msg)

	for _, conn := range []*websocket.Conn{first, third} {
		out := readEnvelope(t, conn)
		if out["type"] != "market_breadth" {
			t.Errorf("envelope = %v", out)
		}
	}

	waitFor(t, func() bool { return hub.SubscriberCount() == 2 }, "dead subscriber never removed")
}

func TestHubBroadcastNoSubscribers(t *testing.T) {
	hub, _ := newTestHub(t)
	if sent := hub.Broadcast(PCRMsg{Symbol: "NIFTY", PCR: 1}); sent != 0 {
		t.Errorf("delivered to %d subscribers, want 0", sent)
	}
}

func TestWaitForSubscriber(t *testing.T) {
	t.Run("unblocks on connect", func(t *testing.T) {
		hub, url := newTestHub(t)

		done := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			done <- hub.WaitForSubscriber(ctx)
		}()

		time.Sleep(20 * time.Millisecond)
		dialTestHub(t, url)

		if err := <-done; err != nil {
			t.Errorf("WaitForSubscriber() = %v", err)
		}
	})

	t.Run("returns context error when nobody connects", func(t *testing.T) {
		hub, _ := newTestHub(t)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := hub.WaitForSubscriber(ctx); err == nil {
			t.Error("expected context error")
		}
	})

	t.Run("returns immediately when already subscribed", func(t *testing.T) {
		hub, url := newTestHub(t)
		dialTestHub(t, url)
		waitFor(t, func() bool { return hub.SubscriberCount() == 1 }, "subscriber never registered")

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := hub.WaitForSubscriber(ctx); err != nil {
			t.Errorf("WaitForSubscriber() = %v", err)
		}
	})
}
