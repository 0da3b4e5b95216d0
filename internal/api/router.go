// Package api exposes the task, summary and profile operations over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"daily-streak/internal/service"
)

// Handler holds the services the HTTP surface delegates to.
type Handler struct {
	tasks     *service.TaskService
	summaries *service.SummaryService
	users     *service.UserService
	rollover  *service.RolloverService
	loc       *time.Location
	log       *zap.SugaredLogger
}

// Deps bundles what NewRouter needs.
type Deps struct {
	Tasks      *service.TaskService
	Summaries  *service.SummaryService
	Users      *service.UserService
	Rollover   *service.RolloverService
	Location   *time.Location
	AdminToken string
	Log        *zap.SugaredLogger
}

func NewRouter(d Deps) *gin.Engine {
	h := &Handler{
		tasks:     d.Tasks,
		summaries: d.Summaries,
		users:     d.Users,
		rollover:  d.Rollover,
		loc:       d.Location,
		log:       d.Log,
	}

	r := gin.New()
	r.Use(corsMiddleware(), requestLogger(d.Log), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	private := r.Group("/api/v1")
	private.Use(h.identity())
	{
		private.GET("/summary", h.getSummary)
		private.POST("/summary/regenerate", h.regenerateSummary)

		private.POST("/tasks", h.createTask)
		private.GET("/tasks", h.listTasks)
		private.GET("/tasks/:id", h.getTask)
		private.PATCH("/tasks/:id", h.updateTask)
		private.PATCH("/tasks/:id/complete", h.toggleTask)
		private.PATCH("/tasks/:id/archive", h.archiveTask)
		private.PATCH("/tasks/:id/restore", h.restoreTask)
		private.DELETE("/tasks/:id", h.deleteTask)

		private.GET("/profile", h.getProfile)
		private.PATCH("/profile", h.updateProfile)
		private.GET("/profile/history", h.getHistory)
	}

	internal := r.Group("/internal")
	internal.Use(internalAuth(d.AdminToken))
	{
		internal.POST("/rollover", h.runRollover)
	}

	return r
}
