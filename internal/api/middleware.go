package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ctxRequestID = "requestID"
	ctxUserID    = "uid"

	headerUserID       = "X-User-ID"
	headerUserEmail    = "X-User-Email"
	headerUserName     = "X-User-Name"
	headerInternalAuth = "X-Internal-Auth"
)

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", headerUserID, headerUserEmail, headerUserName},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	})
}

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set(ctxRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		log.Infow("request",
			"requestID", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"clientIP", c.ClientIP(),
			"latency", time.Since(start).String(),
			"userID", c.GetString(ctxUserID),
		)
	}
}

// identity trusts the headers set by the fronting identity proxy and makes
// sure a user row exists for them.
func (h *Handler) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerUserID))
		if id == "" {
			failure(c, http.StatusUnauthorized, "missing user identity")
			return
		}
		user, err := h.users.Ensure(c.Request.Context(), id,
			strings.TrimSpace(c.GetHeader(headerUserEmail)),
			strings.TrimSpace(c.GetHeader(headerUserName)),
		)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Set(ctxUserID, user.ID)
		c.Next()
	}
}

// internalAuth guards operator endpoints. An empty token disables them.
func internalAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(headerInternalAuth)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			failure(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}
