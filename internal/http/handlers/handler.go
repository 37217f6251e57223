package handlers

import (
	"context"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/admin"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/config"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/payment"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/storage"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type HistoryReader interface {
	ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]orders.HistoryEntry, error)
}

type MenuItemStore interface {
	GetMenuItem(ctx context.Context, id int64) (menu.Item, error)
	UpdateMenuItemImage(ctx context.Context, id int64, imageURL string) error
}

// ImageStore is the object storage used for menu images.
type ImageStore interface {
	PutMenuImage(ctx context.Context, itemID int64, full, thumb []byte, at time.Time) (storage.MenuImageURLs, error)
	DeleteMenuImage(ctx context.Context, fullURL string) error
}

type Handler struct {
	Logger *zap.Logger
	Config config.Config

	Tables    *tables.Guard
	Menu      menu.Source
	Orders    *orders.Service
	Dashboard admin.Source
	History   HistoryReader
	MenuItems MenuItemStore
	Payments  *payment.Bridge
	Images    ImageStore
	Events    orders.EventPublisher

	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
