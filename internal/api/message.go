package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/middleware"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messages  *service.MessageService
	reactions *service.ReactionService
	logger    *zap.Logger
}

func NewMessageHandler(messages *service.MessageService, reactions *service.ReactionService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, reactions: reactions, logger: logger}
}

type createMessageRequest struct {
	Body            string     `json:"body"`
	Image           string     `json:"image"`
	ChannelID       *uuid.UUID `json:"channel_id"`
	ConversationID  *uuid.UUID `json:"conversation_id"`
	ParentMessageID *uuid.UUID `json:"parent_message_id"`
}

type updateMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

type reactionRequest struct {
	Value string `json:"value" binding:"required"`
}

// queryID parses an optional uuid query parameter.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + name + "' parameter"})
		return nil, false
	}
	return &id, true
}

// List handles GET /v1/messages?channel_id=|conversation_id=|parent_message_id=&cursor=&limit=
//
// Pages are newest first. next_cursor is absent on the last page; pass it
// back as cursor to continue. limit defaults to 20 and is capped at 100.
func (h *MessageHandler) List(c *gin.Context) {
	var (
		q  service.ListQuery
		ok bool
	)
	if q.Scope.ChannelID, ok = queryID(c, "channel_id"); !ok {
		return
	}
	if q.Scope.ConversationID, ok = queryID(c, "conversation_id"); !ok {
		return
	}
	if q.Scope.ParentMessageID, ok = queryID(c, "parent_message_id"); !ok {
		return
	}
	q.Cursor = c.Query("cursor")
	if l := c.Query("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		q.Limit = limit
	}

	page, err := h.messages.List(c.Request.Context(), middleware.GetPrincipalID(c), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create handles POST /v1/messages
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.messages.Create(c.Request.Context(), middleware.GetPrincipalID(c), service.NewMessage{
		Body:            req.Body,
		Image:           req.Image,
		ChannelID:       req.ChannelID,
		ConversationID:  req.ConversationID,
		ParentMessageID: req.ParentMessageID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetByID handles GET /v1/messages/:id
func (h *MessageHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id", "message")
	if !ok {
		return
	}
	msg, err := h.messages.Get(c.Request.Context(), middleware.GetPrincipalID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Update handles PATCH /v1/messages/:id
func (h *MessageHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "message")
	if !ok {
		return
	}
	var req updateMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.messages.Update(c.Request.Context(), middleware.GetPrincipalID(c), id, req.Body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Delete handles DELETE /v1/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "message")
	if !ok {
		return
	}
	report, err := h.messages.Remove(c.Request.Context(), middleware.GetPrincipalID(c), id)
	respondCascade(c, h.logger, report, err)
}

// ToggleReaction handles POST /v1/messages/:id/reactions. The response
// carries the reaction now held, or null when it was toggled off.
func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	id, ok := pathID(c, "id", "message")
	if !ok {
		return
	}
	var req reactionRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.reactions.Toggle(c.Request.Context(), middleware.GetPrincipalID(c), id, req.Value)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reaction": r})
}

