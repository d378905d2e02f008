package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsWebsocketHandler registers dashboard clients for the activity feed. Incoming
// messages are discarded; the read loop only detects disconnects.
func EventsWebsocketHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub := manager.ActivityHub()
		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Dashboard disconnected normally")
				} else {
					logger.Warning("Dashboard disconnected: %v", err)
				}
				return
			}
		}
	}
}
