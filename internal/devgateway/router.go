package devgateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// registerRoutes 注册网关路由
func registerRoutes(r *gin.Engine, h *Handler) {
	r.GET("/api", h.Get)
	r.POST("/api", h.Post)
	r.POST("/upload", h.Upload)
	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}
