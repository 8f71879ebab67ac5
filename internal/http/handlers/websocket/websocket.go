package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/princekumarofficial/ingest-service/internal/http/middleware"
	"github.com/princekumarofficial/ingest-service/internal/utils/response"
	wsClient "github.com/princekumarofficial/ingest-service/internal/websocket"
)

// WebSocketHandler upgrades authenticated requests and registers the
// connection with hub. The token comes from the Authorization header, or
// the token query parameter for browsers that cannot set headers.
// @Summary Upload notifications
// @Description Streams file.stored and file.quarantined events for the caller's uploads.
// @Tags notifications
// @Param token query string false "Bearer token when the Authorization header cannot be set"
// @Success 101 {string} string "Switching protocols"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Router /ws [get]
func WebSocketHandler(hub *wsClient.Hub, auth middleware.Authenticator, checkOrigin func(*http.Request) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		token, err := middleware.BearerToken(r)
		if err != nil {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			slog.Warn("WebSocket connection attempted without token")
			response.WriteJSON(w, http.StatusUnauthorized, response.Message("Authorization header required"))
			return
		}

		userID, _, err := auth.Authenticate(token)
		if err != nil {
			slog.Warn("WebSocket connection attempted with invalid token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusUnauthorized, response.Message("Invalid token"))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		client := wsClient.NewClient(conn, userID, hub)
		if !hub.RegisterClient(client) {
			conn.Close()
			return
		}
		client.Start()
	}
}
