package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-streak/internal/apperr"
	"daily-streak/internal/service"
)

func success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

func failure(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, service.ErrRolloverInProgress) {
		return http.StatusConflict
	}
	switch apperr.KindOf(err) {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Invalid:
		return http.StatusBadRequest
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err in the error envelope. Internal details of server
// errors are logged, not returned.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorw("request failed",
			"requestID", c.GetString(ctxRequestID),
			"path", c.FullPath(),
			"error", err,
		)
		failure(c, status, http.StatusText(status))
		return
	}
	failure(c, status, err.Error())
}
