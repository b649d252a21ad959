package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/middleware"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"go.uber.org/zap"
)

type ConversationHandler struct {
	svc    *service.ConversationService
	logger *zap.Logger
}

func NewConversationHandler(svc *service.ConversationService, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{svc: svc, logger: logger}
}

type conversationRequest struct {
	MemberID uuid.UUID `json:"member_id" binding:"required"`
}

// CreateOrGet handles POST /v1/workspaces/:id/conversations
func (h *ConversationHandler) CreateOrGet(c *gin.Context) {
	workspaceID, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	var req conversationRequest
	if !bindJSON(c, &req) {
		return
	}
	conv, err := h.svc.CreateOrGet(c.Request.Context(), middleware.GetPrincipalID(c), workspaceID, req.MemberID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}
