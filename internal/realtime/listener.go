package realtime

import (
	"context"
	"strings"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/admin"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	OrdersChannel = "orders_changes"
	TablesChannel = "tables_changes"
)

// ChannelCollection maps a NOTIFY channel to the collection it reports on.
func ChannelCollection(channel string) (admin.Collection, bool) {
	switch strings.TrimSpace(channel) {
	case OrdersChannel:
		return admin.CollectionOrders, true
	case TablesChannel:
		return admin.CollectionTables, true
	default:
		return "", false
	}
}

// Listen holds one pooled connection on LISTEN for both change channels and
// publishes every notification to hub. It reconnects with exponential
// backoff until ctx is done.
func Listen(ctx context.Context, pool *pgxpool.Pool, hub *Hub, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := pool.Acquire(ctx)
		if err != nil {
			logger.Warn("change LISTEN acquire failed", zap.Error(err))
			if !sleepContext(ctx, backoff) {
				return
			}
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		for _, channel := range []string{OrdersChannel, TablesChannel} {
			if _, err = conn.Exec(ctx, "listen "+channel); err != nil {
				break
			}
		}
		if err != nil {
			conn.Release()
			logger.Warn("change LISTEN failed", zap.Error(err))
			if !sleepContext(ctx, backoff) {
				return
			}
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		backoff = time.Second
		// A reconnect may have missed notifications; every dashboard reloads.
		hub.Publish(admin.Change{Collection: admin.CollectionTables, Op: "RESYNC"})
		hub.Publish(admin.Change{Collection: admin.CollectionOrders, Op: "RESYNC"})

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("change notification wait failed", zap.Error(err))
				}
				break
			}
			collection, ok := ChannelCollection(n.Channel)
			if !ok {
				continue
			}
			hub.Publish(admin.Change{Collection: collection, Op: n.Payload})
		}

		conn.Release()
		if !sleepContext(ctx, backoff) {
			return
		}
		backoff = minDuration(backoff*2, 30*time.Second)
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
