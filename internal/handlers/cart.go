package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Naamio/kauppa/internal/models"
)

// addItemRequest is the body of POST /accounts/:account_id/cart/items. An
// optional address overrides the checkout address for tax computation.
type addItemRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  uint8           `json:"quantity"`
	Address   *models.Address `json:"address,omitempty"`
}

// GetCart handles GET /api/v1/accounts/:account_id/cart
func (h *Handlers) GetCart(c *gin.Context) {
	accountID, ok := pathUUID(c, "account_id")
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(c.Request.Context(), accountID, nil)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddCartItem handles POST /api/v1/accounts/:account_id/cart/items
func (h *Handlers) AddCartItem(c *gin.Context) {
	accountID, ok := pathUUID(c, "account_id")
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "invalid_request_body",
			"message": err.Error(),
		}})
		return
	}

	unit := models.CartUnit{Quantity: req.Quantity}
	// binding:"uuid" already validated the format
	unit.ProductID = mustParseUUID(req.ProductID)

	cart, err := h.carts.AddItem(c.Request.Context(), accountID, unit, req.Address)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveCartItem handles DELETE /api/v1/accounts/:account_id/cart/items/:product_id
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	accountID, ok := pathUUID(c, "account_id")
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "product_id")
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), accountID, productID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// UpdateCart handles PUT /api/v1/accounts/:account_id/cart
func (h *Handlers) UpdateCart(c *gin.Context) {
	accountID, ok := pathUUID(c, "account_id")
	if !ok {
		return
	}

	var incoming models.Cart
	if err := c.ShouldBindJSON(&incoming); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "invalid_request_body",
			"message": err.Error(),
		}})
		return
	}

	cart, err := h.carts.UpdateCart(c.Request.Context(), accountID, &incoming, nil)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ApplyCoupon handles POST /api/v1/accounts/:account_id/cart/coupons
func (h *Handlers) ApplyCoupon(c *gin.Context) {
	accountID, ok := pathUUID(c, "account_id")
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "invalid_request_body",
			"message": "coupon code is required",
		}})
		return
	}

	cart, err := h.carts.ApplyCoupon(c.Request.Context(), accountID, req.Code, nil)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// CreateCheckout handles POST /api/v1/accounts/:account_id/cart/checkout
func (h *Handlers) CreateCheckout(c *gin.Context) {
	accountID, ok := pathUUID(c, "account_id")
	if !ok {
		return
	}

	var data models.CheckoutData
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "invalid_request_body",
			"message": err.Error(),
		}})
		return
	}

	cart, err := h.carts.CreateCheckout(c.Request.Context(), accountID, data)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// PlaceOrder handles POST /api/v1/accounts/:account_id/cart/place-order
func (h *Handlers) PlaceOrder(c *gin.Context) {
	accountID, ok := pathUUID(c, "account_id")
	if !ok {
		return
	}

	order, err := h.carts.PlaceOrder(c.Request.Context(), accountID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
