package apps

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cozy/apps-engine/pkg/logger"
)

// Event is the envelope pushed to subscribers for every lifecycle
// broadcast (spec.md §6 Event surface).
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	// EventAppInstalling fires after RegisterIntent (spec.md §6).
	EventAppInstalling = "app_installing"
	// EventAppDownloadFailed fires from broadcast_download_failed.
	EventAppDownloadFailed = "app_download_failed"
)

// Hub is a websocket-backed pub/sub broadcaster for lifecycle events,
// mirroring the teacher's realtime.GetHub().Publish(...) fan-out but over
// gorilla/websocket connections instead of an in-process bus, since the
// engine's subscribers (UI, other device services) are separate processes.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	log logger.Logger
}

// NewHub builds an empty Hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
		log:     logger.WithNamespace("apps-events"),
	}
}

// ServeHTTP upgrades the request to a websocket and registers the
// connection as an event subscriber until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade failed: %s", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	// Drain reads so the connection's close is detected; this hub is
	// write-only from the server's perspective.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("could not marshal event %s: %s", ev.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warnf("could not push event to subscriber: %s", err)
		}
	}
}

// BroadcastAppInstalling implements Broadcaster.
func (h *Hub) BroadcastAppInstalling(obj AppsObject) {
	h.publish(Event{Type: EventAppInstalling, Data: obj})
}

// BroadcastAppDownloadFailed implements Broadcaster.
func (h *Hub) BroadcastAppDownloadFailed(reason DownloadFailedReason) {
	h.publish(Event{Type: EventAppDownloadFailed, Data: reason})
}
