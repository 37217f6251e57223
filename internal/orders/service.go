package orders

import (
	"context"
	"errors"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/cart"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status.updated"
)

type Event struct {
	Type           string    `json:"type"`
	OrderID        uuid.UUID `json:"orderId"`
	TableID        int64     `json:"tableId"`
	Status         Status    `json:"status"`
	PreviousStatus *Status   `json:"previousStatus,omitempty"`
	Total          string    `json:"total"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Service struct {
	Tables     *tables.Guard
	Store      Store
	Events     EventPublisher
	Logger     *zap.Logger
	MinorUnits int32
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Submit reads the table fresh and stores a new PENDING order.
func (s *Service) Submit(ctx context.Context, tableID int64, c cart.Cart) (Order, error) {
	var table *tables.Table
	if t, err := s.Tables.Lookup(ctx, tableID); err == nil {
		table = t
	}

	order, err := Submit(table, c, s.now(), s.MinorUnits)
	if err != nil {
		return Order{}, err
	}
	if table != nil {
		number := table.Number
		order.TableNumber = &number
	}

	if err := s.Store.InsertOrder(ctx, order); err != nil {
		return Order{}, err
	}

	s.publish(ctx, EventOrderCreated, Event{
		Type:       EventOrderCreated,
		OrderID:    order.ID,
		TableID:    order.TableID,
		Status:     order.Status,
		Total:      order.Total.StringFixed(s.MinorUnits),
		OccurredAt: order.CreatedAt,
	})
	return order, nil
}

// Advance writes status unconditionally.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, status Status) (Order, error) {
	current, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, apperror.LookupNotFound("Order not found", err)
		}
		return Order{}, err
	}

	previous := current.Status
	next := Advance(current, status)
	if err := s.Store.UpdateOrderStatus(ctx, id, next.Status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, apperror.LookupNotFound("Order not found", err)
		}
		return Order{}, err
	}

	s.publish(ctx, EventOrderStatusUpdated, Event{
		Type:           EventOrderStatusUpdated,
		OrderID:        next.ID,
		TableID:        next.TableID,
		Status:         next.Status,
		PreviousStatus: &previous,
		Total:          next.Total.StringFixed(s.MinorUnits),
		OccurredAt:     s.now(),
	})
	return next, nil
}

func (s *Service) publish(ctx context.Context, routingKey string, evt Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, routingKey, evt); err != nil && s.Logger != nil {
		s.Logger.Warn("order event publish failed", zap.String("type", evt.Type), zap.String("orderId", evt.OrderID.String()), zap.Error(err))
	}
}
