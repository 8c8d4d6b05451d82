package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/clients"
	"github.com/Naamio/kauppa/internal/config"
	"github.com/Naamio/kauppa/internal/events"
	"github.com/Naamio/kauppa/internal/handlers"
	"github.com/Naamio/kauppa/internal/metrics"
	"github.com/Naamio/kauppa/internal/repository"
	"github.com/Naamio/kauppa/internal/server"
	"github.com/Naamio/kauppa/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "kauppa").Logger()
	logger.Info().Int("port", cfg.Server.Port).Msg("starting kauppa")

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	cartStore := repository.NewPostgresCartStore(db, logger)
	orderStore := repository.NewPostgresOrderStore(db, logger)

	var cartCache repository.CartCache
	var orderCache repository.OrderCache
	switch cfg.Cache.Backend {
	case "redis":
		redisClient := repository.NewRedisClient(cfg.Redis)
		cartCache = repository.NewRedisCartCache(redisClient, cfg.Redis.TTL, logger)
		orderCache = repository.NewRedisOrderCache(redisClient, cfg.Redis.TTL, logger)
	default:
		cartCache = repository.NewMemoryCartCache(cfg.Cache.Capacity)
		orderCache = repository.NewMemoryOrderCache(cfg.Cache.Capacity)
	}

	carts := repository.NewCartRepository(cartStore, cartCache, m, logger)
	orders := repository.NewOrderRepository(orderStore, orderCache, m, logger)

	productsClient := clients.NewHTTPProductsClient(cfg.ProductsService, logger)
	accountsClient := clients.NewHTTPAccountsClient(cfg.AccountsService, logger)
	taxClient := clients.NewHTTPTaxClient(cfg.TaxService, logger)
	couponsClient := clients.NewHTTPCouponsClient(cfg.CouponsService, logger)
	shipmentsClient := clients.NewHTTPShipmentsClient(cfg.ShipmentsService, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
	}
	defer publisher.Close()

	orderService := service.NewOrderService(
		orders, productsClient, accountsClient, taxClient, couponsClient,
		publisher, m, logger,
	)
	cartService := service.NewCartService(
		carts, orderService, productsClient, accountsClient, taxClient,
		couponsClient, logger,
	)
	returnsService := service.NewReturnsService(orders, shipmentsClient, publisher, m, logger)

	h := handlers.NewHandlers(cartService, orderService, returnsService, logger)
	srv := server.New(cfg, h, handlers.NewReadiness(db), m, logger)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("stopped")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
