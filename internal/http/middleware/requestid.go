package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"partyrooms/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestLog выдает запросу id и пишет одну строку после ответа.
// Логгер с request_id дальше достается через logger.WithContext
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		ctx := logger.NewContext(c.Request.Context(), "request_id", id)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		log := logger.WithContext(c.Request.Context())
		if p, ok := Principal(c); ok {
			log = log.With("user_id", p.UserID)
		}
		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"action", c.Query("action"),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", args...)
		case c.Writer.Status() >= 400:
			log.Warn("request", args...)
		default:
			log.Debug("request", args...)
		}
	}
}
