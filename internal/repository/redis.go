package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/config"
	"github.com/Naamio/kauppa/internal/models"
)

const (
	cartKeyPrefix   = "cart:"
	orderKeyPrefix  = "order:"
	defaultCacheTTL = 5 * time.Minute
)

// NewRedisClient builds a redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisCartCache implements CartCache on Redis, sharing the cache across
// service replicas.
type RedisCartCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisCartCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCartCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCartCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("cache", "carts").Logger(),
	}
}

func (c *RedisCartCache) Get(ctx context.Context, accountID uuid.UUID) (*models.Cart, error) {
	data, err := c.client.Get(ctx, cartKeyPrefix+accountID.String()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Error().Err(err).Stringer("account_id", accountID).Msg("cache get error")
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *RedisCartCache) Set(ctx context.Context, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, cartKeyPrefix+cart.AccountID.String(), data, c.ttl).Err(); err != nil {
		c.logger.Error().Err(err).Stringer("account_id", cart.AccountID).Msg("cache set error")
		return err
	}
	return nil
}

func (c *RedisCartCache) Delete(ctx context.Context, accountID uuid.UUID) error {
	return c.client.Del(ctx, cartKeyPrefix+accountID.String()).Err()
}

// RedisOrderCache implements OrderCache on Redis.
type RedisOrderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedisOrderCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisOrderCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("cache", "orders").Logger(),
	}
}

func (c *RedisOrderCache) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKeyPrefix+id.String()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Error().Err(err).Stringer("order_id", id).Msg("cache get error")
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, orderKeyPrefix+order.ID.String(), data, c.ttl).Err(); err != nil {
		c.logger.Error().Err(err).Stringer("order_id", order.ID).Msg("cache set error")
		return err
	}
	return nil
}

func (c *RedisOrderCache) Delete(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, orderKeyPrefix+id.String()).Err()
}
