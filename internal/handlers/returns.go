package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Naamio/kauppa/internal/models"
)

// SchedulePickup handles POST /api/v1/orders/:id/pickups. An empty or absent
// item list schedules a pickup for everything delivered but not yet picked
// up.
func (h *Handlers) SchedulePickup(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Items []models.ShipmentItem `json:"items"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
				"kind":    "invalid_request_body",
				"message": err.Error(),
			}})
			return
		}
	}

	shipment, err := h.returns.SchedulePickup(c.Request.Context(), id, req.Items)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shipment)
}
