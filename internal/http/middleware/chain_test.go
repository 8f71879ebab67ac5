package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestChain_WebSocketUpgrade(t *testing.T) {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.WriteMessage(mt, msg)
	})

	chain := Metrics(RequestLogger(discard())(Recover(discard())(mux)))
	finished := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chain.ServeHTTP(w, r)
		close(finished)
	}))
	defer server.Close()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /ws", "101"))

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial through middleware chain failed: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("Expected 101, got %d", resp.StatusCode)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(msg) != "ping" {
		t.Errorf("Expected echo, got %q", msg)
	}
	conn.Close()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Handler did not return after the client closed")
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /ws", "101"))
	if after-before != 1 {
		t.Errorf("Expected the upgrade recorded as 101, got delta %v", after-before)
	}
}
