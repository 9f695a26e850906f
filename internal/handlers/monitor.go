package handlers

import (
	"net/http"
	"time"

	gorilla "github.com/gorilla/websocket"

	"emotionserver/internal/logger"
	"emotionserver/internal/services/websocket"
)

var upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// MonitorWebsocketHandler upgrades the connection and registers the
// client with the hub; every prediction processed by the service is
// pushed to it until it disconnects.
func MonitorWebsocketHandler(hub *websocket.HubService, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		hub.Register(connection)
		defer hub.Unregister(connection)

		log.Info("Monitor viewer connected from %s", r.RemoteAddr)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				log.Info("Monitor viewer disconnected: %v", err)
				break
			}
		}
	}
}
