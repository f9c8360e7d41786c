package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"retroboard/internal/models"
	"retroboard/internal/repositories"
	"retroboard/internal/ws"
)

// CardHandler manages card endpoints.
type CardHandler struct {
	cardRepo  repositories.CardRepository
	boardRepo repositories.BoardRepository
	hub       *ws.Hub
}

// NewCardHandler builds a CardHandler.
func NewCardHandler(cardRepo repositories.CardRepository, boardRepo repositories.BoardRepository, hub *ws.Hub) *CardHandler {
	return &CardHandler{cardRepo: cardRepo, boardRepo: boardRepo, hub: hub}
}

// CreateCard creates a card. The client may supply its own id so an
// optimistic local insert and the confirmed row share identity.
func (h *CardHandler) CreateCard(c *gin.Context) {
	var req struct {
		ID       string  `json:"id"`
		BoardID  string  `json:"board_id" binding:"required"`
		ColumnID string  `json:"column_id" binding:"required"`
		Content  string  `json:"content" binding:"required"`
		Author   *string `json:"author"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "board_id, column_id, and content are required"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content cannot be empty"})
		return
	}
	if req.ID != "" {
		if _, err := uuid.Parse(req.ID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
			return
		}
	}

	card, err := h.cardRepo.CreateCard(c.Request.Context(), req.ID, req.BoardID, req.ColumnID, strings.TrimSpace(req.Content), req.Author)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create card"})
		return
	}

	h.hub.BroadcastChange(card.BoardID, models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventInsert,
		Card:  &card,
	})
	c.JSON(http.StatusCreated, card)
}

// UpdateCard applies a partial update of content, author, or group
// membership. A present-but-null author or group_id clears the field, so the
// body is inspected key by key instead of bound to a struct.
func (h *CardHandler) UpdateCard(c *gin.Context) {
	cardID := c.Param("card_id")

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := repositories.CardUpdate{}
	if v, ok := raw["content"]; ok {
		var content string
		if err := json.Unmarshal(v, &content); err != nil || strings.TrimSpace(content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content cannot be empty"})
			return
		}
		content = strings.TrimSpace(content)
		update.Content = &content
	}
	if v, ok := raw["author"]; ok {
		update.SetAuthor = true
		if err := json.Unmarshal(v, &update.Author); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author"})
			return
		}
	}
	if v, ok := raw["group_id"]; ok {
		update.SetGroupID = true
		if err := json.Unmarshal(v, &update.GroupID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group_id"})
			return
		}
	}
	if update.Content == nil && !update.SetAuthor && !update.SetGroupID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	card, err := h.cardRepo.UpdateCard(c.Request.Context(), cardID, update)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to update card"})
		return
	}

	h.hub.BroadcastChange(card.BoardID, models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventUpdate,
		Card:  &card,
	})
	c.JSON(http.StatusOK, card)
}

// DeleteCard removes a card.
func (h *CardHandler) DeleteCard(c *gin.Context) {
	cardID := c.Param("card_id")

	card, err := h.cardRepo.DeleteCard(c.Request.Context(), cardID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to delete card"})
		return
	}

	h.hub.BroadcastChange(card.BoardID, models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventDelete,
		Card:  &card,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Vote increments a card's vote count. The increment happens inside the
// database, making the server the linearization point for concurrent votes.
func (h *CardHandler) Vote(c *gin.Context) {
	cardID := c.Param("card_id")

	card, err := h.cardRepo.GetCard(c.Request.Context(), cardID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "card not found"})
		return
	}

	board, err := h.boardRepo.GetBoard(c.Request.Context(), card.BoardID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrBoardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "board not found"})
		return
	}
	if board.Phase != models.PhaseVoting {
		c.JSON(http.StatusForbidden, gin.H{"error": "voting is only allowed in the voting phase"})
		return
	}

	updated, err := h.cardRepo.IncrementVotes(c.Request.Context(), cardID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCardNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to vote"})
		return
	}

	h.hub.BroadcastChange(updated.BoardID, models.ChangeEvent{
		Table: models.TableCards,
		Type:  models.EventUpdate,
		Card:  &updated,
	})
	c.JSON(http.StatusOK, updated)
}
