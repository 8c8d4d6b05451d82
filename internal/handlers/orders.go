package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Naamio/kauppa/internal/models"
	"github.com/Naamio/kauppa/internal/service"
)

// CreateOrder handles POST /api/v1/orders. Direct order placement without a
// cart, used by back-office tooling.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req service.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "invalid_request_body",
			"message": err.Error(),
		}})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders?placed_by=<account_id>
func (h *Handlers) ListOrders(c *gin.Context) {
	placedBy, err := uuid.Parse(c.Query("placed_by"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "invalid_account_id",
			"message": "placed_by query parameter must be a UUID",
		}})
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), placedBy)
	if err != nil {
		handleError(c, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateShipment handles PUT /api/v1/orders/:id/shipments. The shipments
// service calls back here when a shipment changes state.
func (h *Handlers) UpdateShipment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var shipment models.Shipment
	if err := c.ShouldBindJSON(&shipment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "invalid_request_body",
			"message": err.Error(),
		}})
		return
	}

	order, err := h.orders.UpdateShipment(c.Request.Context(), id, shipment)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
