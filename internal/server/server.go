// Package server wires the HTTP routes and runs the gin engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/config"
	"github.com/Naamio/kauppa/internal/handlers"
	"github.com/Naamio/kauppa/internal/metrics"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	http   *http.Server
	logger zerolog.Logger
}

func New(cfg *config.Config, h *handlers.Handlers, ready *handlers.Readiness, m *metrics.Metrics, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(requestMetrics(m))

	s := &Server{
		config: cfg,
		router: router,
		logger: logger.With().Str("component", "server").Logger(),
	}
	s.setupRoutes(h, ready)

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes(h *handlers.Handlers, ready *handlers.Readiness) {
	s.router.GET("/health", h.Health)
	s.router.GET("/ready", ready.Ready)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/accounts/:account_id/cart", h.GetCart)
		v1.PUT("/accounts/:account_id/cart", h.UpdateCart)
		v1.POST("/accounts/:account_id/cart/items", h.AddCartItem)
		v1.DELETE("/accounts/:account_id/cart/items/:product_id", h.RemoveCartItem)
		v1.POST("/accounts/:account_id/cart/coupons", h.ApplyCoupon)
		v1.POST("/accounts/:account_id/cart/checkout", h.CreateCheckout)
		v1.POST("/accounts/:account_id/cart/place-order", h.PlaceOrder)

		v1.POST("/orders", h.CreateOrder)
		v1.GET("/orders", h.ListOrders)
		v1.GET("/orders/:id", h.GetOrder)
		v1.POST("/orders/:id/cancel", h.CancelOrder)
		v1.PUT("/orders/:id/shipments", h.UpdateShipment)
		v1.POST("/orders/:id/pickups", h.SchedulePickup)
	}
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("http server listening")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// requestMetrics records per-route latency. The route template, not the raw
// path, keys the histogram so UUIDs do not explode cardinality.
func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
