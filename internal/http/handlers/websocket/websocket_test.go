package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/ingest-service/internal/types"
	wsClient "github.com/princekumarofficial/ingest-service/internal/websocket"
)

type tokenAuth struct{}

func (tokenAuth) Authenticate(token string) (string, string, error) {
	if token != "good" {
		return "", "", errors.New("bad token")
	}
	return "user-42", "", nil
}

func newServer(t *testing.T) (*httptest.Server, *wsClient.Hub) {
	t.Helper()
	hub := wsClient.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	allowAll := func(*http.Request) bool { return true }
	srv := httptest.NewServer(WebSocketHandler(hub, tokenAuth{}, allowAll))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, hub
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocket_QueryToken(t *testing.T) {
	srv, hub := newServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token=good", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !hub.IsUserConnected("user-42") {
		if time.Now().After(deadline) {
			t.Fatal("Client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.BroadcastToUser("user-42", types.NewEvent(types.EventFileStored, map[string]string{"file_id": "abc"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !strings.Contains(string(msg), `"type":"file.stored"`) {
		t.Errorf("Unexpected message %s", msg)
	}
}

func TestWebSocket_HeaderToken(t *testing.T) {
	srv, _ := newServer(t)

	header := http.Header{"Authorization": []string{"Bearer good"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	conn.Close()
}

func TestWebSocket_Unauthorized(t *testing.T) {
	srv, _ := newServer(t)

	for _, u := range []string{wsURL(srv), wsURL(srv) + "?token=bad"} {
		_, resp, err := websocket.DefaultDialer.Dial(u, nil)
		if err == nil {
			t.Fatalf("Expected dial to %s to fail", u)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected 401 for %s, got %v", u, resp)
		}
	}
}
