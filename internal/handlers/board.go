package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"retroboard/internal/models"
	"retroboard/internal/repositories"
	"retroboard/internal/ws"
)

// BoardHandler manages board endpoints.
type BoardHandler struct {
	boardRepo repositories.BoardRepository
	hub       *ws.Hub
}

// NewBoardHandler builds a BoardHandler.
func NewBoardHandler(boardRepo repositories.BoardRepository, hub *ws.Hub) *BoardHandler {
	return &BoardHandler{boardRepo: boardRepo, hub: hub}
}

// CreateBoard creates a board with its template columns.
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	board, err := h.boardRepo.CreateBoard(c.Request.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create board"})
		return
	}

	c.JSON(http.StatusCreated, board)
}

// GetBoard returns a board together with its columns, cards, and groups.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	boardID := c.Param("board_id")

	details, err := h.boardRepo.GetBoardWithDetails(c.Request.Context(), boardID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrBoardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "board not found"})
		return
	}

	c.JSON(http.StatusOK, details)
}

// UpdateBoard applies a partial board update (title, phase).
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	boardID := c.Param("board_id")

	var req struct {
		Title *string `json:"title"`
		Phase *string `json:"phase"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := repositories.BoardUpdate{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
			return
		}
		update.Title = &title
	}
	if req.Phase != nil {
		if !models.ValidPhase(*req.Phase) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase"})
			return
		}
		phase := models.BoardPhase(*req.Phase)
		update.Phase = &phase
	}
	if update.Title == nil && update.Phase == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	board, err := h.boardRepo.UpdateBoard(c.Request.Context(), boardID, update)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrBoardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to update board"})
		return
	}

	h.hub.BroadcastChange(board.ID, models.ChangeEvent{
		Table: models.TableBoards,
		Type:  models.EventUpdate,
		Board: &board,
	})
	c.JSON(http.StatusOK, board)
}
