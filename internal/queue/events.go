package queue

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	EventsExchange      = "restaurant.events"
	DeadLetterExchange  = "restaurant.dead"
	StatusHistoryQueue  = "restaurant.order_status_history"
	StatusHistoryDLQ    = "restaurant.order_status_history.dlq"
	StatusHistoryDeadRK = "order_status_history"
)

// EventsTopology is the events exchange plus the status history queue and
// its dead-letter queue. '#' also matches multi-segment keys like
// order.status.updated.
func EventsTopology() Topology {
	return Topology{
		Exchanges: []Exchange{
			{Name: EventsExchange, Kind: amqp.ExchangeTopic},
			{Name: DeadLetterExchange, Kind: amqp.ExchangeDirect},
		},
		Queues: []Queue{
			{
				Name: StatusHistoryDLQ,
				Bind: []Binding{{Exchange: DeadLetterExchange, RoutingKey: StatusHistoryDeadRK}},
			},
			{
				Name: StatusHistoryQueue,
				Args: amqp.Table{
					"x-dead-letter-exchange":    DeadLetterExchange,
					"x-dead-letter-routing-key": StatusHistoryDeadRK,
				},
				Bind: []Binding{{Exchange: EventsExchange, RoutingKey: "order.#"}},
			},
		},
	}
}

func EnsureEventsTopology(qc *Client) error {
	if qc == nil {
		return nil
	}
	return qc.Declare(EventsTopology())
}

type HistoryRecorder interface {
	RecordStatusHistory(ctx context.Context, entry orders.HistoryEntry) error
}

// ProcessEvent records the status carried by an order event. Unknown or
// untyped envelopes are acknowledged and skipped.
func ProcessEvent(ctx context.Context, rec HistoryRecorder, logger *zap.Logger, body []byte) error {
	if rec == nil {
		return nil
	}

	var evt orders.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		if logger != nil {
			logger.Warn("malformed event skipped", zap.Error(err))
		}
		return nil
	}

	switch strings.TrimSpace(evt.Type) {
	case orders.EventOrderCreated, orders.EventOrderStatusUpdated:
	default:
		return nil
	}

	if _, ok := orders.ParseStatus(string(evt.Status)); !ok {
		return nil
	}

	return rec.RecordStatusHistory(ctx, orders.HistoryEntry{
		OrderID:        evt.OrderID,
		Status:         evt.Status,
		PreviousStatus: evt.PreviousStatus,
		RecordedAt:     evt.OccurredAt,
		Source:         evt.Type,
	})
}
