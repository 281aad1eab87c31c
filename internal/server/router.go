package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	cartcontroller "stockcart/internal/cart/controller"
	"stockcart/internal/identity"
	productcontroller "stockcart/internal/product/controller"
)

func NewRouter(
	products *productcontroller.Controller,
	carts *cartcontroller.CartController,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogging(logger),
	)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.HandleList)
			r.Post("/", products.HandleCreate)
			r.Get("/{id}", products.HandleGet)
			r.Get("/{id}/available-quantity", products.HandleAvailableQuantity)
			r.Post("/{id}/receipts", products.HandleRestock)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(identity.Middleware(logger))
			r.Get("/", carts.GetActiveCart)
			r.Post("/add", carts.AddProduct)
			r.Post("/finish", carts.FinishOrder)
			r.Put("/products/{cartLineId}", carts.UpdateQuantity)
			r.Delete("/products/{cartLineId}", carts.RemoveProduct)
		})
	})

	return r
}

func requestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int64("durationMs", time.Since(start).Milliseconds()),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			)
		})
	}
}
