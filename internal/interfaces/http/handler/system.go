package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes health and readiness endpoints
type SystemHandler struct {
	appName string
	version string
	started time.Time
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(appName, version string) *SystemHandler {
	return &SystemHandler{
		appName: appName,
		version: version,
		started: time.Now(),
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health reports service liveness
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"app":     h.appName,
		"version": h.version,
		"uptime":  time.Since(h.started).String(),
	})
}
