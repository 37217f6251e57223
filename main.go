package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/config"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/db"
	httpapi "github.com/clashroyalito29-netizen/MenuRestaurante/internal/http"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/http/handlers"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/logger"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/orders"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/payment"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/queue"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/realtime"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/storage"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/store"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/tables"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, log); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}
	pg := store.NewPostgres(pool)

	queueClient := connectQueue(cfg, log)
	if queueClient != nil {
		defer queueClient.Close()
		if cfg.RabbitMQWorkerMode == "daemon" {
			log.Info("status history worker enabled", zap.String("mode", "daemon"))
			go func() {
				err := queueClient.ConsumeWithRetry(ctx, queue.StatusHistoryQueue, func(ctx context.Context, body []byte) error {
					return queue.ProcessEvent(ctx, pg, log, body)
				}, 5, 5*time.Second, log)
				if err != nil && ctx.Err() == nil {
					log.Error("consumer stopped", zap.Error(err))
				}
			}()
		} else {
			log.Info("status history worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode))
		}
	}

	var events orders.EventPublisher
	if queueClient != nil {
		events = &queue.Publisher{Client: queueClient, Exchange: queue.EventsExchange}
	}

	hub := realtime.NewHub()
	go realtime.Listen(ctx, pool, hub, log)

	guard := &tables.Guard{Repo: pg}
	h := &handlers.Handler{
		Logger:    log,
		Config:    cfg,
		Tables:    guard,
		Menu:      pg,
		Orders:    &orders.Service{Tables: guard, Store: pg, Events: events, Logger: log, MinorUnits: cfg.CurrencyMinorUnits},
		Dashboard: pg,
		History:   pg,
		MenuItems: pg,
		Payments: &payment.Bridge{
			Provider:   payment.NewMercadoPago(cfg.MercadoPagoAPIURL, cfg.MercadoPagoAccessToken, cfg.MercadoPagoTimeout),
			BaseURL:    cfg.PublicBaseURL,
			Currency:   cfg.Currency,
			MinorUnits: cfg.CurrencyMinorUnits,
		},
		Events: events,
	}
	if cfg.MercadoPagoAccessToken == "" {
		log.Warn("MP_ACCESS_TOKEN is empty; checkout sessions will fail")
	}
	if images := openImageStore(ctx, cfg, log); images != nil {
		h.Images = images
	}

	wsServer := &realtime.Server{
		Hub:               hub,
		Source:            pg,
		Logger:            log,
		JWTSecret:         cfg.JWTSecret,
		DisplayLimit:      cfg.AdminOrdersDisplayLimit,
		HeartbeatInterval: cfg.WSHeartbeatInterval,
	}
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(log, cfg, h, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("restaurant api ready", zap.String("base", "/api"))
		log.Info("staff ws ready", zap.String("base", "/ws/admin"))
		log.Info("restaurant service listening", zap.String("addr", cfg.HTTPAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBackground()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}

// connectQueue dials RabbitMQ and declares the events topology. Failures are
// fatal in production; elsewhere the service runs without events.
func connectQueue(cfg config.Config, log *zap.Logger) *queue.Client {
	if cfg.RabbitMQURL == "" {
		log.Info("events disabled (RABBITMQ_URL is empty)")
		return nil
	}
	log.Info("rabbitmq enabled", zap.String("exchange", queue.EventsExchange), zap.String("historyQueue", queue.StatusHistoryQueue))

	qc, err := queue.New(cfg.RabbitMQURL)
	if err != nil {
		if cfg.IsProduction() {
			log.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		log.Warn("rabbitmq connection failed; continuing without events", zap.Error(err))
		return nil
	}
	if err := queue.EnsureEventsTopology(qc); err != nil {
		if cfg.IsProduction() {
			log.Fatal("rabbitmq topology failed", zap.Error(err))
		}
		log.Warn("rabbitmq topology failed; continuing without events", zap.Error(err))
		_ = qc.Close()
		return nil
	}
	return qc
}

func openImageStore(ctx context.Context, cfg config.Config, log *zap.Logger) *storage.ImageStore {
	storeCfg := storage.Config{
		Endpoint:        cfg.ObjectStoreEndpoint,
		Region:          cfg.ObjectStoreRegion,
		AccessKeyID:     cfg.ObjectStoreAccessKeyID,
		SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
		Bucket:          cfg.ObjectStoreBucket,
		PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
		StorageClass:    cfg.ObjectStoreStorageClass,
	}
	if !storeCfg.Enabled() {
		log.Info("menu image uploads disabled (object store not configured)")
		return nil
	}
	images, err := storage.NewImageStore(ctx, storeCfg)
	if err != nil {
		log.Warn("object store init failed; menu image uploads disabled", zap.Error(err))
		return nil
	}
	return images
}
