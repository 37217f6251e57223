package httpapi

import (
	"net/http"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/config"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/http/handlers"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/middleware"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/realtime"
	"github.com/clashroyalito29-netizen/MenuRestaurante/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(logger *zap.Logger, cfg config.Config, h *handlers.Handler, wsServer *realtime.Server) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))
	r.Use(recoverPanics(logger))
	if opts, ok := corsOptions(cfg); ok {
		r.Use(cors.Handler(opts))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/health/routes", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, middleware.RouteLatencies())
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/tables/{tableId}", h.PublicTable)
		r.Get("/tables/{tableId}/menu", h.PublicTableMenu)
		r.Post("/tables/{tableId}/orders", h.PublicCreateOrder)
	})

	// Every method reaches the handler so non-POST requests get its 405 body.
	r.HandleFunc("/api/checkout", h.Checkout)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(setResponseHeader("Cache-Control", "no-store"))
		r.Post("/login", h.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.StaffAuth(cfg.JWTSecret))

			r.Get("/tables", h.AdminListTables)
			r.Post("/tables/{tableId}/toggle", h.AdminToggleTable)
			r.Get("/tables/{tableId}/link", h.AdminTableLink)

			r.Get("/orders", h.AdminListOrders)
			r.Put("/orders/{orderId}/status", h.AdminUpdateOrderStatus)
			r.Get("/orders/{orderId}/history", h.AdminOrderHistory)
			r.Get("/orders/{orderId}/receipt", h.AdminOrderReceiptPDF)

			r.Post("/menu/{itemId}/image", h.AdminUploadMenuImage)
		})
	})

	if wsServer != nil {
		r.Get("/ws/admin", wsServer.AdminWS)
	}

	return r
}

// corsOptions allows any origin in development and the configured list
// elsewhere. No CORS middleware is installed when neither applies.
func corsOptions(cfg config.Config) (cors.Options, bool) {
	dev := cfg.Env == "development"
	if !dev && len(cfg.CorsAllowedOrigins) == 0 {
		return cors.Options{}, false
	}
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "Cache-Control"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if dev {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	} else {
		opts.AllowedOrigins = cfg.CorsAllowedOrigins
	}
	return opts, true
}

func recoverPanics(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func setResponseHeader(name string, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(name, value)
			next.ServeHTTP(w, r)
		})
	}
}
