package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "kauppa",
	})
}

// Readiness probes the database; the service cannot serve anything useful
// without it.
type Readiness struct {
	db *sql.DB
}

func NewReadiness(db *sql.DB) *Readiness {
	return &Readiness{db: db}
}

// Ready handles GET /ready
func (r *Readiness) Ready(c *gin.Context) {
	if r.db != nil {
		if err := r.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": "kauppa",
	})
}
