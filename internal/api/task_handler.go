package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"daily-streak/internal/apperr"
	"daily-streak/internal/model"
	"daily-streak/internal/service"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	TargetDate  string `json:"targetDate"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	TargetDate  *string `json:"targetDate"`
}

func (h *Handler) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Wrap(apperr.Invalid, "decode body", err))
		return
	}
	date, err := h.parseDate(req.TargetDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	task, err := h.tasks.CreateTask(c.Request.Context(), c.GetString(ctxUserID), service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		TargetDate:  date,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusCreated, task)
}

func (h *Handler) listTasks(c *gin.Context) {
	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		d, err := h.parseDate(raw)
		if err != nil {
			h.respondError(c, err)
			return
		}
		date = &d
	}
	var status *model.TaskStatus
	if raw := c.Query("status"); raw != "" {
		st, err := model.ParseStatus(raw)
		if err != nil {
			h.respondError(c, apperr.Wrap(apperr.Invalid, "list tasks", err))
			return
		}
		status = &st
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), c.GetString(ctxUserID), date, status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, tasks)
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.tasks.GetTask(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, task)
}

func (h *Handler) updateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Wrap(apperr.Invalid, "decode body", err))
		return
	}
	upd := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.TargetDate != nil {
		date, err := h.parseDate(*req.TargetDate)
		if err != nil {
			h.respondError(c, err)
			return
		}
		upd.TargetDate = &date
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, task)
}

func (h *Handler) toggleTask(c *gin.Context) {
	h.taskAction(c, h.tasks.ToggleCompletion)
}

func (h *Handler) archiveTask(c *gin.Context) {
	h.taskAction(c, h.tasks.ArchiveTask)
}

func (h *Handler) restoreTask(c *gin.Context) {
	h.taskAction(c, h.tasks.RestoreTask)
}

func (h *Handler) taskAction(c *gin.Context, action func(ctx context.Context, userID, taskID string) (*model.Task, error)) {
	task, err := action(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.tasks.DeleteTask(c.Request.Context(), c.GetString(ctxUserID), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"id": c.Param("id")})
}
