package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	redispkg "github.com/wavelink/authcore/pkg/redis"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	cache *redispkg.Client
}

func NewHealthHandler(db *gorm.DB, cache *redispkg.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Liveness answers as long as the process runs.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness checks the backing stores. A failing dependency flips the
// status so load balancers stop routing here.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := gin.H{"database": "ok", "cache": "ok"}
	healthy := true

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		checks["database"] = "unreachable"
		healthy = false
	}
	if err := h.cache.Ping(c.Request.Context()); err != nil {
		checks["cache"] = "unreachable"
		healthy = false
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
}
