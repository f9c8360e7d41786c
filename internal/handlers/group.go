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

// GroupHandler manages group endpoints.
type GroupHandler struct {
	groupRepo repositories.GroupRepository
	cardRepo  repositories.CardRepository
	hub       *ws.Hub
}

// NewGroupHandler builds a GroupHandler.
func NewGroupHandler(groupRepo repositories.GroupRepository, cardRepo repositories.CardRepository, hub *ws.Hub) *GroupHandler {
	return &GroupHandler{groupRepo: groupRepo, cardRepo: cardRepo, hub: hub}
}

// CreateGroup creates a group. When sort_order is omitted the server appends
// the group after the column's current highest order.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		BoardID   string `json:"board_id" binding:"required"`
		ColumnID  string `json:"column_id" binding:"required"`
		Name      string `json:"name" binding:"required"`
		SortOrder *int   `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "board_id, column_id, and name are required"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
		return
	}

	group, err := h.groupRepo.CreateGroup(c.Request.Context(), req.BoardID, req.ColumnID, strings.TrimSpace(req.Name), req.SortOrder)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	h.hub.BroadcastChange(group.BoardID, models.ChangeEvent{
		Table: models.TableGroups,
		Type:  models.EventInsert,
		Group: &group,
	})
	c.JSON(http.StatusCreated, group)
}

// UpdateGroup renames or reorders a group.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	groupID := c.Param("group_id")

	var req struct {
		Name      *string `json:"name"`
		SortOrder *int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := repositories.GroupUpdate{SortOrder: req.SortOrder}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		update.Name = &name
	}
	if update.Name == nil && update.SortOrder == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	group, err := h.groupRepo.UpdateGroup(c.Request.Context(), groupID, update)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to update group"})
		return
	}

	h.hub.BroadcastChange(group.BoardID, models.ChangeEvent{
		Table: models.TableGroups,
		Type:  models.EventUpdate,
		Group: &group,
	})
	c.JSON(http.StatusOK, group)
}

// DeleteGroup removes a group. Member cards survive with group_id cleared;
// subscribers apply the same cascade from the DELETE event.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID := c.Param("group_id")

	group, err := h.groupRepo.DeleteGroup(c.Request.Context(), groupID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to delete group"})
		return
	}

	h.hub.BroadcastChange(group.BoardID, models.ChangeEvent{
		Table: models.TableGroups,
		Type:  models.EventDelete,
		Group: &group,
	})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AssignCards bulk-assigns cards to a group.
func (h *GroupHandler) AssignCards(c *gin.Context) {
	groupID := c.Param("group_id")

	var req struct {
		CardIDs []string `json:"card_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.CardIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card_ids is required"})
		return
	}

	group, err := h.groupRepo.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "group not found"})
		return
	}

	cards, err := h.cardRepo.AssignCardsToGroup(c.Request.Context(), groupID, req.CardIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign cards"})
		return
	}

	for i := range cards {
		card := cards[i]
		h.hub.BroadcastChange(group.BoardID, models.ChangeEvent{
			Table: models.TableCards,
			Type:  models.EventUpdate,
			Card:  &card,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
