package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manideeprkummitha/team-collab/internal/middleware"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	svc    *service.UserService
	logger *zap.Logger
}

func NewUserHandler(svc *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// syncRequest overrides the profile carried by the token. Empty fields
// fall back to the token's claims.
type syncRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), middleware.GetPrincipalID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// Sync handles PUT /v1/users/me
func (h *UserHandler) Sync(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	profile := middleware.GetProfile(c)
	if req.Name == "" {
		req.Name = profile.Name
	}
	if req.Email == "" {
		req.Email = profile.Email
	}
	if req.Image == "" {
		req.Image = profile.Picture
	}

	u, err := h.svc.Sync(c.Request.Context(), middleware.GetPrincipalID(c), req.Name, req.Email, req.Image)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
