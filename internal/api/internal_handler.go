package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"daily-streak/internal/apperr"
)

type rolloverRequest struct {
	At *time.Time `json:"at"`
}

// runRollover triggers the day close manually. An optional body
// {"at": RFC3339} sets the instant the run is computed for.
func (h *Handler) runRollover(c *gin.Context) {
	var req rolloverRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, apperr.Wrap(apperr.Invalid, "decode body", err))
			return
		}
	}
	now := time.Now()
	if req.At != nil {
		now = *req.At
	}

	h.log.Infow("manual rollover requested", "at", now, "clientIP", c.ClientIP())
	report, err := h.rollover.Run(c.Request.Context(), now)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, report.View())
}
