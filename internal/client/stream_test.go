package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestReconnectBackoffSchedule(t *testing.T) {
	b := newReconnectBackoff()

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, expected := range want {
		if got := b.NextBackOff(); got != expected {
			t.Errorf("attempt %d: got %v, want %v", i+1, got, expected)
		}
	}

	// A successful open resets the schedule back to the initial delay
	b.Reset()
	if got := b.NextBackOff(); got != time.Second {
		t.Errorf("after reset: got %v, want 1s", got)
	}
}

func TestKlineStreamDeliversAndStopsAfterClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	frames := make(chan string, 16)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	received := make(chan string, 16)
	var afterClose atomic.Int32

	stream := openKlineStream(streamConfig{
		name:   "test",
		url:    wsURL,
		logger: zap.NewNop(),
		handle: func(message []byte) {
			received <- string(message)
		},
	})

	frames <- "first"
	select {
	case got := <-received:
		if got != "first" {
			t.Fatalf("got frame %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first frame")
	}

	stream.Close()
	stream.Close() // idempotent

	// Anything handled after Close is a defect
	go func() {
		for range received {
			afterClose.Add(1)
		}
	}()
	select {
	case frames <- "late":
	default:
	}
	time.Sleep(200 * time.Millisecond)

	if n := afterClose.Load(); n != 0 {
		t.Errorf("handled %d frames after Close", n)
	}
	close(frames)
}

func TestKlineStreamSubscribeFrameSent(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subscribed <- string(message)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream := openKlineStream(streamConfig{
		name:   "test-subscribe",
		url:    wsURL,
		logger: zap.NewNop(),
		subscribe: func(conn *websocket.Conn) error {
			return conn.WriteJSON(map[string]interface{}{"op": "subscribe", "args": []string{"kline.60.BTCUSDT"}})
		},
		handle: func([]byte) {},
	})
	defer stream.Close()

	select {
	case frame := <-subscribed:
		if !strings.Contains(frame, "kline.60.BTCUSDT") {
			t.Errorf("unexpected subscribe frame: %s", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscribe frame")
	}
}

func TestKlineStreamCloseBeforeConnect(t *testing.T) {
	// Dial target refuses connections; Close must cancel the pending reconnect
	stream := openKlineStream(streamConfig{
		name:   "test-unreachable",
		url:    "ws://127.0.0.1:1/ws",
		logger: zap.NewNop(),
		handle: func([]byte) {},
	})

	time.Sleep(50 * time.Millisecond)
	stream.Close()
	stream.Close()
}
