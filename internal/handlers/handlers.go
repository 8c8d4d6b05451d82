package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/faults"
	"github.com/Naamio/kauppa/internal/service"
)

// Handlers holds all HTTP handlers for the purchase flows.
type Handlers struct {
	carts   *service.CartService
	orders  *service.OrderService
	returns *service.ReturnsService
	logger  zerolog.Logger
}

func NewHandlers(
	carts *service.CartService,
	orders *service.OrderService,
	returns *service.ReturnsService,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		carts:   carts,
		orders:  orders,
		returns: returns,
		logger:  logger.With().Str("component", "handlers").Logger(),
	}
}

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error *faults.Error `json:"error"`
}

// handleError maps a fault kind to an HTTP status. Non-fault errors are
// collaborator or storage failures and surface as 502.
func handleError(c *gin.Context, err error) {
	kind := faults.KindOf(err)

	var status int
	switch kind {
	case faults.InvalidAccountID, faults.InvalidProductID, faults.InvalidItemID,
		faults.InvalidOrderID, faults.InvalidCouponCode:
		status = http.StatusNotFound
	case faults.InvalidCheckoutData, faults.InvalidAddress, faults.InvalidReturnQuantity,
		faults.AmbiguousCurrencies, faults.MismatchingCurrencies,
		faults.NoItemsToProcess, faults.NoItemsInCart,
		faults.NoBalance, faults.CouponExpired, faults.CouponDisabled:
		status = http.StatusBadRequest
	case faults.ProductUnavailable:
		status = http.StatusConflict
	case faults.UnverifiedAccount:
		status = http.StatusForbidden
	default:
		status = http.StatusBadGateway
	}

	var fe *faults.Error
	if !errors.As(err, &fe) {
		fe = faults.New(kind, "upstream request failed")
	}
	c.JSON(status, errorBody{Error: fe})
}

// mustParseUUID parses a UUID that gin's binding has already validated.
func mustParseUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

// pathUUID parses a UUID path parameter, answering 400 itself on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"kind":    "invalid_" + name,
			"message": "malformed " + name + " in path",
		}})
		return uuid.Nil, false
	}
	return id, true
}
