package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Naamio/kauppa/internal/models"
)

// PostgresCartStore persists carts in a single-row-per-account table with the
// aggregate serialized as a JSONB document.
type PostgresCartStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresCartStore(db *sql.DB, logger zerolog.Logger) *PostgresCartStore {
	return &PostgresCartStore{db: db, logger: logger.With().Str("store", "carts").Logger()}
}

func (s *PostgresCartStore) CreateCart(ctx context.Context, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO carts (account_id, data, updated_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, cart.AccountID, data, cart.UpdatedAt); err != nil {
		s.logger.Error().Err(err).Stringer("account_id", cart.AccountID).Msg("failed to create cart")
		return err
	}
	return nil
}

func (s *PostgresCartStore) GetCart(ctx context.Context, accountID uuid.UUID) (*models.Cart, error) {
	query := `SELECT data FROM carts WHERE account_id = $1`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Stringer("account_id", accountID).Msg("failed to fetch cart")
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *PostgresCartStore) UpdateCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}

	query := `UPDATE carts SET data = $2, updated_at = $3 WHERE account_id = $1`
	if _, err := s.db.ExecContext(ctx, query, cart.AccountID, data, cart.UpdatedAt); err != nil {
		s.logger.Error().Err(err).Stringer("account_id", cart.AccountID).Msg("failed to update cart")
		return err
	}
	return nil
}

// PostgresOrderStore persists orders with scalar columns for the fields that
// are queried (placer, creation time) and the aggregate as a JSONB document.
type PostgresOrderStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPostgresOrderStore(db *sql.DB, logger zerolog.Logger) *PostgresOrderStore {
	return &PostgresOrderStore{db: db, logger: logger.With().Str("store", "orders").Logger()}
}

func (s *PostgresOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (id, placed_by, data, created_on, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		order.ID, order.PlacedBy, data, order.CreatedOn, order.UpdatedAt)
	if err != nil {
		s.logger.Error().Err(err).Stringer("order_id", order.ID).Msg("failed to create order")
		return err
	}
	return nil
}

func (s *PostgresOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT data FROM orders WHERE id = $1`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Stringer("order_id", id).Msg("failed to fetch order")
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *PostgresOrderStore) ListOrders(ctx context.Context, placedBy uuid.UUID) ([]*models.Order, error) {
	query := `SELECT data FROM orders WHERE placed_by = $1 ORDER BY created_on DESC`

	rows, err := s.db.QueryContext(ctx, query, placedBy)
	if err != nil {
		s.logger.Error().Err(err).Stringer("placed_by", placedBy).Msg("failed to list orders")
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var order models.Order
		if err := json.Unmarshal(data, &order); err != nil {
			return nil, err
		}
		orders = append(orders, &order)
	}
	return orders, rows.Err()
}

func (s *PostgresOrderStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	query := `UPDATE orders SET data = $2, updated_at = $3 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, order.ID, data, order.UpdatedAt); err != nil {
		s.logger.Error().Err(err).Stringer("order_id", order.ID).Msg("failed to update order")
		return err
	}
	return nil
}
