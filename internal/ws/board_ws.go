package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"retroboard/internal/observability"
	"retroboard/internal/repositories"
)

// BoardWebSocketHandler serves the per-board change-feed subscription.
type BoardWebSocketHandler struct {
	hub       *Hub
	boardRepo repositories.BoardRepository
}

// NewBoardWebSocketHandler constructs a BoardWebSocketHandler.
func NewBoardWebSocketHandler(hub *Hub, boardRepo repositories.BoardRepository) *BoardWebSocketHandler {
	return &BoardWebSocketHandler{hub: hub, boardRepo: boardRepo}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client in the board room.
func (h *BoardWebSocketHandler) Handle(c *gin.Context) {
	boardID := c.Param("board_id")

	ctx, span := otel.Tracer("retroboard/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if _, err := h.boardRepo.GetBoard(c.Request.Context(), boardID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrBoardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "board not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddBoardClient(boardID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	// The feed is one-way. Reading drains client pings and detects closes.
	go func() {
		defer func() {
			h.hub.RemoveBoardClient(boardID, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}
