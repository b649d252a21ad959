package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manideeprkummitha/team-collab/internal/middleware"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"go.uber.org/zap"
)

// ChannelHandler serves channel requests. Every method reads the caller
// from the token and lets the service decide access.
type ChannelHandler struct {
	svc    *service.ChannelService
	logger *zap.Logger
}

func NewChannelHandler(svc *service.ChannelService, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{svc: svc, logger: logger}
}

// channelRequest is the body of channel create and rename. The name is
// normalized server-side, so "Project X" is stored as "project-x".
type channelRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /v1/workspaces/:id/channels
func (h *ChannelHandler) Create(c *gin.Context) {
	workspaceID, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	var req channelRequest
	if !bindJSON(c, &req) {
		return
	}
	ch, err := h.svc.Create(c.Request.Context(), middleware.GetPrincipalID(c), workspaceID, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

// List handles GET /v1/workspaces/:id/channels
func (h *ChannelHandler) List(c *gin.Context) {
	workspaceID, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	channels, err := h.svc.List(c.Request.Context(), middleware.GetPrincipalID(c), workspaceID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

// GetByID handles GET /v1/channels/:id
func (h *ChannelHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id", "channel")
	if !ok {
		return
	}
	ch, err := h.svc.Get(c.Request.Context(), middleware.GetPrincipalID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	// nil covers both a missing channel and one the caller cannot see.
	if ch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Update handles PATCH /v1/channels/:id
func (h *ChannelHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "channel")
	if !ok {
		return
	}
	var req channelRequest
	if !bindJSON(c, &req) {
		return
	}
	ch, err := h.svc.Update(c.Request.Context(), middleware.GetPrincipalID(c), id, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// Delete handles DELETE /v1/channels/:id
func (h *ChannelHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "channel")
	if !ok {
		return
	}
	report, err := h.svc.Remove(c.Request.Context(), middleware.GetPrincipalID(c), id)
	respondCascade(c, h.logger, report, err)
}
