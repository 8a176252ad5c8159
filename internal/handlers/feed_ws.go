package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/manoj0727/Nexify-server/internal/services"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are handled by the CORS layer for the HTTP handshake.
		return true
	},
}

// feedClientMessage is a control message from the client: subscribe to or
// leave a community feed, or a keepalive ping.
type feedClientMessage struct {
	Type        string `json:"type"` // "subscribe", "unsubscribe", "ping"
	CommunityID string `json:"community_id,omitempty"`
}

// FeedWebSocket streams community feed events to a connected client.
// Authentication uses the access token, passed either as a Bearer header
// or a `token` query parameter for browser WebSocket clients. Initial
// subscriptions come from the repeated `community` query parameter.
func FeedWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing access token")
		return
	}
	if _, err := services.ParseAccessToken(token, cfg.JWTSecret); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}

	communityIDs := r.URL.Query()["community"]

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	connID := services.RegisterFeedConnection(conn, communityIDs)
	defer services.UnregisterFeedConnection(connID)

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg feedClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "subscribe":
			if msg.CommunityID != "" {
				services.SubscribeFeed(connID, msg.CommunityID)
			}
		case "unsubscribe":
			if msg.CommunityID != "" {
				services.UnsubscribeFeed(connID, msg.CommunityID)
			}
		case "ping":
			_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		default:
			// Ignore unknown types.
		}
	}
}

// bearerToken extracts the access token from the Authorization header or,
// failing that, the `token` query parameter.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
