package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"daily-streak/internal/apperr"
	"daily-streak/internal/service"
)

type regenerateRequest struct {
	Date string `json:"date"`
}

func (h *Handler) getSummary(c *gin.Context) {
	date, err := h.parseDate(c.Query("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.summaries.GetSummary(c.Request.Context(), c.GetString(ctxUserID), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

func (h *Handler) regenerateSummary(c *gin.Context) {
	var req regenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Wrap(apperr.Invalid, "decode body", err))
		return
	}
	date, err := h.parseDate(req.Date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.summaries.RegenerateSummary(c.Request.Context(), c.GetString(ctxUserID), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

// parseDate reads a required YYYY-MM-DD value.
func (h *Handler) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperr.New(apperr.Invalid, "parse date", "date is required (YYYY-MM-DD)")
	}
	t, err := service.ParseDate(raw, h.loc)
	if err != nil {
		return time.Time{}, apperr.New(apperr.Invalid, "parse date", "date must be YYYY-MM-DD")
	}
	return t, nil
}
