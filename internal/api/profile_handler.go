package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-streak/internal/apperr"
	"daily-streak/internal/repository"
)

type updateProfileRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	TelegramChatID *int64  `json:"telegramChatId"`
}

func (h *Handler) getProfile(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, user)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Wrap(apperr.Invalid, "decode body", err))
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), c.GetString(ctxUserID), repository.ProfileUpdate{
		Name:           req.Name,
		Email:          req.Email,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, user)
}

func (h *Handler) getHistory(c *gin.Context) {
	from, err := h.parseDate(c.Query("from"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	to, err := h.parseDate(c.Query("to"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	snaps, err := h.users.History(c.Request.Context(), c.GetString(ctxUserID), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, snaps)
}
