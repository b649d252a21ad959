package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/service"
	"go.uber.org/zap"
)

// statusFor maps an error kind to its HTTP status. An inconsistency means a
// row changed underneath the request, so the client may retry.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInconsistency:
		return http.StatusConflict
	case apperr.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg} for err. Only the client-safe message
// leaves the process; the cause is logged for 5xx.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// respondCascade reports a deletion sweep. A failed sweep still returns its
// report so the client can see which phases completed.
func respondCascade(c *gin.Context, logger *zap.Logger, report *service.CascadeReport, err error) {
	if err == nil {
		c.JSON(http.StatusOK, report)
		return
	}
	if report == nil {
		respondError(c, logger, err)
		return
	}
	status := statusFor(apperr.KindOf(err))
	logger.Error("cascade failed", zap.Error(err), zap.String("root", report.Root))
	c.JSON(status, gin.H{"error": apperr.Message(err), "report": report})
}

// pathID parses the :name path parameter. On failure it writes 400 and
// returns false.
func pathID(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " id"})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
