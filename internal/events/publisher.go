// Package events publishes order lifecycle events to Kafka. Publishing is
// best-effort everywhere: callers log failures and carry on, the purchase
// flow never blocks on the broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Naamio/kauppa/internal/config"
	"github.com/Naamio/kauppa/internal/models"
)

// EventType identifies an order lifecycle event.
type EventType string

const (
	EventOrderPlaced           EventType = "order.placed"
	EventOrderCancelled        EventType = "order.cancelled"
	EventPickupScheduled       EventType = "pickup.scheduled"
	EventInventoryCommitFailed EventType = "inventory.commit_failed"
)

// Event is the envelope written to the orders topic.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      EventType       `json:"type"`
	OrderID   uuid.UUID       `json:"order_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher emits order lifecycle events.
type Publisher interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	OrderCancelled(ctx context.Context, order *models.Order) error
	PickupScheduled(ctx context.Context, orderID uuid.UUID, shipment *models.Shipment) error
	// InventoryCommitFailed records a post-placement inventory update that
	// could not be applied, for out-of-band reconciliation.
	InventoryCommitFailed(ctx context.Context, orderID, productID uuid.UUID, balance uint32, cause error) error
	Close() error
}

// KafkaPublisher implements Publisher on a Kafka topic keyed by order ID.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, logger: logger.With().Str("component", "events").Logger()}
}

func (p *KafkaPublisher) OrderPlaced(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, EventOrderPlaced, order.ID, data)
}

func (p *KafkaPublisher) OrderCancelled(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, EventOrderCancelled, order.ID, data)
}

func (p *KafkaPublisher) PickupScheduled(ctx context.Context, orderID uuid.UUID, shipment *models.Shipment) error {
	data, err := json.Marshal(shipment)
	if err != nil {
		return err
	}
	return p.publish(ctx, EventPickupScheduled, orderID, data)
}

func (p *KafkaPublisher) InventoryCommitFailed(ctx context.Context, orderID, productID uuid.UUID, balance uint32, cause error) error {
	payload := struct {
		ProductID uuid.UUID `json:"product_id"`
		Balance   uint32    `json:"balance"`
		Error     string    `json:"error"`
	}{ProductID: productID, Balance: balance, Error: cause.Error()}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.publish(ctx, EventInventoryCommitFailed, orderID, data)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType EventType, orderID uuid.UUID, data []byte) error {
	event := Event{
		ID:        uuid.New(),
		Type:      eventType,
		OrderID:   orderID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(orderID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", string(eventType)).
			Stringer("order_id", orderID).
			Msg("failed to publish event")
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// NopPublisher discards all events. Used when Kafka is disabled and in tests
// that do not assert on events.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(context.Context, *models.Order) error     { return nil }
func (NopPublisher) OrderCancelled(context.Context, *models.Order) error  { return nil }
func (NopPublisher) PickupScheduled(context.Context, uuid.UUID, *models.Shipment) error {
	return nil
}
func (NopPublisher) InventoryCommitFailed(context.Context, uuid.UUID, uuid.UUID, uint32, error) error {
	return nil
}
func (NopPublisher) Close() error { return nil }

// RecordingPublisher captures events for test assertions.
type RecordingPublisher struct {
	Events []Event
}

func (r *RecordingPublisher) record(eventType EventType, orderID uuid.UUID) error {
	r.Events = append(r.Events, Event{Type: eventType, OrderID: orderID})
	return nil
}

func (r *RecordingPublisher) OrderPlaced(_ context.Context, order *models.Order) error {
	return r.record(EventOrderPlaced, order.ID)
}

func (r *RecordingPublisher) OrderCancelled(_ context.Context, order *models.Order) error {
	return r.record(EventOrderCancelled, order.ID)
}

func (r *RecordingPublisher) PickupScheduled(_ context.Context, orderID uuid.UUID, _ *models.Shipment) error {
	return r.record(EventPickupScheduled, orderID)
}

func (r *RecordingPublisher) InventoryCommitFailed(_ context.Context, orderID, _ uuid.UUID, _ uint32, _ error) error {
	return r.record(EventInventoryCommitFailed, orderID)
}

func (r *RecordingPublisher) Close() error { return nil }
