package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"retroboard/internal/models"
	"retroboard/internal/observability"
)

// Hub maintains the active websocket room for each board.
type Hub struct {
	boardRooms map[string]map[*websocket.Conn]bool
	connInfo   map[string]map[*websocket.Conn]ConnInfo
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		boardRooms: make(map[string]map[*websocket.Conn]bool),
		connInfo:   make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddBoardClient registers a websocket connection to a board room.
func (h *Hub) AddBoardClient(boardID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.boardRooms[boardID]; !ok {
		h.boardRooms[boardID] = make(map[*websocket.Conn]bool)
	}
	h.boardRooms[boardID][conn] = true
	if _, ok := h.connInfo[boardID]; !ok {
		h.connInfo[boardID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[boardID][conn] = info
}

// RemoveBoardClient removes a board websocket connection.
func (h *Hub) RemoveBoardClient(boardID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.boardRooms[boardID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.boardRooms, boardID)
		}
	}
	if infos, ok := h.connInfo[boardID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, boardID)
		}
	}
}

// BroadcastChange sends a row change event to every client subscribed to the
// board and mirrors it to the AMQP topic exchange.
func (h *Hub) BroadcastChange(boardID string, ev models.ChangeEvent) {
	h.mu.RLock()
	conns := h.boardRooms[boardID]
	h.mu.RUnlock()

	payload, _ := json.Marshal(ev)
	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveBoardClient(boardID, conn)
			h.publishWSError(boardID, conn, err)
		}
	}

	_ = observability.PublishEvent(context.Background(), "board_events."+ev.Table, observability.EventEnvelope{
		EventType: "board_events",
		EventName: ev.Type,
		Payload:   ev,
	}, nil)
}

func (h *Hub) publishWSError(boardID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(boardID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"board_id":    boardID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"ip": info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.boards", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}

func (h *Hub) getConnInfo(boardID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[boardID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
