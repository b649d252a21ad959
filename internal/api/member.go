package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manideeprkummitha/team-collab/internal/middleware"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"go.uber.org/zap"
)

type MemberHandler struct {
	svc    *service.MemberService
	logger *zap.Logger
}

func NewMemberHandler(svc *service.MemberService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{svc: svc, logger: logger}
}

type updateRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// List handles GET /v1/workspaces/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	workspaceID, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	members, err := h.svc.List(c.Request.Context(), middleware.GetPrincipalID(c), workspaceID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// Current handles GET /v1/workspaces/:id/members/current
func (h *MemberHandler) Current(c *gin.Context) {
	workspaceID, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	m, err := h.svc.Current(c.Request.Context(), middleware.GetPrincipalID(c), workspaceID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetByID handles GET /v1/members/:id
func (h *MemberHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id", "member")
	if !ok {
		return
	}
	m, err := h.svc.Get(c.Request.Context(), middleware.GetPrincipalID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateRole handles PATCH /v1/members/:id
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id", "member")
	if !ok {
		return
	}
	var req updateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.UpdateRole(c.Request.Context(), middleware.GetPrincipalID(c), id, req.Role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /v1/members/:id
func (h *MemberHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "member")
	if !ok {
		return
	}
	report, err := h.svc.Remove(c.Request.Context(), middleware.GetPrincipalID(c), id)
	respondCascade(c, h.logger, report, err)
}
