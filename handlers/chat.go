// Package handlers translates the HTTP surface into flow and store calls.
package handlers

import (
	"log"
	"net/http"

	"github.com/dbos-inc/dbos-transact-golang/dbos"
	"github.com/gin-gonic/gin"

	"dashchat/apperrors"
	"dashchat/models"
	"dashchat/workflows"
)

// ChatHandler handles the chat and image generation endpoints. When dbosCtx
// is non-nil the flows run as durable workflows; otherwise they run in
// process.
type ChatHandler struct {
	flows   *workflows.ChatWorkflows
	dbosCtx dbos.DBOSContext
}

// NewChatHandler creates a chat handler. dbosCtx may be nil to disable
// durable execution.
func NewChatHandler(flows *workflows.ChatWorkflows, dbosCtx dbos.DBOSContext) *ChatHandler {
	return &ChatHandler{flows: flows, dbosCtx: dbosCtx}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.JSON(c, &apperrors.ValidationError{Msg: "Invalid request body"})
		return
	}
	if req.Message == "" {
		apperrors.JSON(c, &apperrors.ValidationError{Msg: "Message is required"})
		return
	}

	input := workflows.SendMessageInput{
		Message:        req.Message,
		Scenario:       req.Scenario,
		ConversationID: req.ConversationID,
	}

	var output workflows.SendMessageOutput
	var err error
	if h.dbosCtx != nil {
		handle, runErr := dbos.RunWorkflow(h.dbosCtx, h.flows.SendMessageWorkflow, input)
		if runErr != nil {
			err = runErr
		} else {
			output, err = handle.GetResult()
		}
	} else {
		output, err = h.flows.SendMessage(c.Request.Context(), input)
	}
	if err != nil {
		log.Printf("Chat request failed: %v", err)
		apperrors.JSON(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReplyResponse{
		Reply:          output.Reply,
		ConversationID: output.ConversationID,
		Type:           models.TypeText,
	})
}

// GenerateImage handles POST /api/image/generate
func (h *ChatHandler) GenerateImage(c *gin.Context) {
	var req models.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.JSON(c, &apperrors.ValidationError{Msg: "Invalid request body"})
		return
	}
	if req.Prompt == "" {
		apperrors.JSON(c, &apperrors.ValidationError{Msg: "Prompt is required for image generation"})
		return
	}

	input := workflows.GenerateImageInput{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Size:           req.Size,
		ConversationID: req.ConversationID,
	}

	var output workflows.GenerateImageOutput
	var err error
	if h.dbosCtx != nil {
		handle, runErr := dbos.RunWorkflow(h.dbosCtx, h.flows.GenerateImageWorkflow, input)
		if runErr != nil {
			err = runErr
		} else {
			output, err = handle.GetResult()
		}
	} else {
		output, err = h.flows.GenerateImage(c.Request.Context(), input)
	}
	if err != nil {
		log.Printf("Image generation failed: %v", err)
		apperrors.JSON(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ReplyResponse{
		Reply:          output.ImageURL,
		ConversationID: output.ConversationID,
		Type:           models.TypeImage,
	})
}
