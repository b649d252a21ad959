package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manideeprkummitha/team-collab/internal/middleware"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"go.uber.org/zap"
)

type WorkspaceHandler struct {
	svc    *service.WorkspaceService
	logger *zap.Logger
}

func NewWorkspaceHandler(svc *service.WorkspaceService, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc, logger: logger}
}

type workspaceNameRequest struct {
	Name string `json:"name" binding:"required"`
}

type joinRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

// Create handles POST /v1/workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	var req workspaceNameRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.svc.Create(c.Request.Context(), middleware.GetPrincipalID(c), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, ws)
}

// List handles GET /v1/workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	list, err := h.svc.ListForPrincipal(c.Request.Context(), middleware.GetPrincipalID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetByID handles GET /v1/workspaces/:id
func (h *WorkspaceHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	ws, err := h.svc.Get(c.Request.Context(), middleware.GetPrincipalID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if ws == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}
	c.JSON(http.StatusOK, ws)
}

// Info handles GET /v1/workspaces/:id/info
func (h *WorkspaceHandler) Info(c *gin.Context) {
	id, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	info, err := h.svc.GetInfo(c.Request.Context(), middleware.GetPrincipalID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Update handles PATCH /v1/workspaces/:id
func (h *WorkspaceHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	var req workspaceNameRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.svc.Update(c.Request.Context(), middleware.GetPrincipalID(c), id, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

// Delete handles DELETE /v1/workspaces/:id
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	report, err := h.svc.Remove(c.Request.Context(), middleware.GetPrincipalID(c), id)
	respondCascade(c, h.logger, report, err)
}

// RotateJoinCode handles POST /v1/workspaces/:id/join-code
func (h *WorkspaceHandler) RotateJoinCode(c *gin.Context) {
	id, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	ws, err := h.svc.RotateJoinCode(c.Request.Context(), middleware.GetPrincipalID(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

// Join handles POST /v1/workspaces/:id/join
func (h *WorkspaceHandler) Join(c *gin.Context) {
	id, ok := pathID(c, "id", "workspace")
	if !ok {
		return
	}
	var req joinRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.svc.Join(c.Request.Context(), middleware.GetPrincipalID(c), id, req.JoinCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}
