package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Damiangorskii/web-order-service/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	Orders         *OrdersHandler
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(RequestMetrics(cfg.Metrics))
	}
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// {id} is the cart id for POST and the order id otherwise. chi needs one
	// param name per path segment.
	r.Route("/order", func(r chi.Router) {
		r.Post("/upload", cfg.Orders.UploadOrders)
		r.Post("/{id}", cfg.Orders.CreateOrder)
		r.Get("/{id}", cfg.Orders.GetOrder)
		r.Delete("/{id}", cfg.Orders.DeleteOrder)
		r.Post("/{id}/finalize", cfg.Orders.FinalizeOrder)
	})

	return otelhttp.NewHandler(r, "web-order-service")
}
