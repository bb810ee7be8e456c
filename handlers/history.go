package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"dashchat/apperrors"
	"dashchat/store"
)

// HistoryHandler serves the conversation history endpoints directly off the
// store.
type HistoryHandler struct {
	store store.Store
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(st store.Store) *HistoryHandler {
	return &HistoryHandler{store: st}
}

// List handles GET /api/history
func (h *HistoryHandler) List(c *gin.Context) {
	summaries, err := h.store.List(c.Request.Context())
	if err != nil {
		log.Printf("Failed to list conversations: %v", err)
		apperrors.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// Get handles GET /api/history/:id
func (h *HistoryHandler) Get(c *gin.Context) {
	conv, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		apperrors.JSON(c, &apperrors.NotFoundError{Msg: "Conversation not found"})
		return
	}
	if err != nil {
		log.Printf("Failed to load conversation: %v", err)
		apperrors.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Delete handles DELETE /api/history/:id
func (h *HistoryHandler) Delete(c *gin.Context) {
	err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		apperrors.JSON(c, &apperrors.NotFoundError{Msg: "Conversation not found or already deleted"})
		return
	}
	if err != nil {
		log.Printf("Failed to delete conversation: %v", err)
		apperrors.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteAll handles DELETE /api/history
func (h *HistoryHandler) DeleteAll(c *gin.Context) {
	if err := h.store.DeleteAll(c.Request.Context()); err != nil {
		log.Printf("Failed to clear conversations: %v", err)
		apperrors.JSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
