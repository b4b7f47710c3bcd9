package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"partyrooms/internal/http/handlers"
	"partyrooms/internal/http/middleware"
)

// RegisterRoutes вешает api на роутер. Лимит только на запись
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, limiter middleware.Limiter, version string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.RequestLog())
	api.POST("/auth/telegram", h.TelegramAuth)

	authed := api.Group("", middleware.Auth())
	authed.GET("/me", h.Me)
	authed.GET("/room", h.Room)
	authed.POST("/room", middleware.RateLimit(limiter), h.Room)
}
