package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"emotionserver/internal/dto"
	"emotionserver/internal/logger"
)

// HubService fans every prediction result out to connected monitor
// clients (live dashboards watching the service).
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
	}
}

func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Monitor client connected. Total: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Monitor client disconnected. Total: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending to monitor client: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// BroadcastPrediction sends a prediction result to every monitor
// client. Marshalling errors are logged and dropped; monitoring must
// never affect the request path.
func (h *HubService) BroadcastPrediction(resp dto.EmotionResponse) {
	message, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("Error encoding prediction broadcast: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warning("Monitor broadcast queue full - dropping message")
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
