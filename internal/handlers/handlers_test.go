package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naamio/kauppa/internal/faults"
)

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "kauppa", resp["service"])
}

func TestHandleError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown account", faults.New(faults.InvalidAccountID, "no such account"), http.StatusNotFound},
		{"unknown order", faults.New(faults.InvalidOrderID, "no such order"), http.StatusNotFound},
		{"unknown coupon", faults.New(faults.InvalidCouponCode, "no such coupon"), http.StatusNotFound},
		{"bad checkout", faults.New(faults.InvalidCheckoutData, "bad index"), http.StatusBadRequest},
		{"no items", faults.New(faults.NoItemsToProcess, "empty"), http.StatusBadRequest},
		{"expired coupon", faults.New(faults.CouponExpired, "expired"), http.StatusBadRequest},
		{"return too many", faults.New(faults.InvalidReturnQuantity, "too many"), http.StatusBadRequest},
		{"out of stock", faults.New(faults.ProductUnavailable, "sold out"), http.StatusConflict},
		{"unverified", faults.New(faults.UnverifiedAccount, "verify first"), http.StatusForbidden},
		{"transport failure", errors.New("connection refused"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandleError_Body(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := faults.New(faults.ProductUnavailable, "only 2 left").WithDetail("product_id", "abc")
	handleError(c, err)

	var body struct {
		Error struct {
			Kind    string            `json:"kind"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "product_unavailable", body.Error.Kind)
	assert.Equal(t, "only 2 left", body.Error.Message)
	assert.Equal(t, "abc", body.Error.Details["product_id"])
}

func TestPathUUID_Malformed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "account_id", Value: "not-a-uuid"}}

	_, ok := pathUUID(c, "account_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
