package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/food-delivery/internal/app/handlers"
	"github.com/linemk/food-delivery/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/food-delivery/internal/lib/logger/handlers/urllog"
	"github.com/linemk/food-delivery/internal/service"
)

// Services - все, что нужно роутеру от бизнес-слоя
type Services struct {
	Auth     service.AuthServiceInterface
	Orders   service.OrderService
	Payments service.PaymentService
}

// NewRouter собирает HTTP API. Используется и в main, и в тестах.
func NewRouter(log *slog.Logger, jwtSecret string, svc Services) http.Handler {
	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", handlers.RegisterHandler(log, svc.Auth))
		r.Post("/login", handlers.LoginHandler(log, svc.Auth))
	})

	router.Route("/api/orders", func(r chi.Router) {
		// создание заказа доступно и без токена, владельца проверяет сервис по настройке
		r.With(jwtmiddleware.NewOptionalJWTMiddleware(jwtSecret)).
			Post("/", handlers.PlaceOrderHandler(log, svc.Orders))

		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.NewJWTMiddleware(jwtSecret))
			r.Get("/my", handlers.MyOrdersHandler(log, svc.Orders))
			r.Post("/cancel/{id}", handlers.CancelOrderHandler(log, svc.Orders))
			r.Put("/address/{id}", handlers.UpdateAddressHandler(log, svc.Orders))
			r.Get("/{id}/tracking", handlers.TrackingHandler(log, svc.Orders))
			r.Get("/{id}/history", handlers.HistoryHandler(log, svc.Orders))
		})
	})

	router.Route("/api/payment", func(r chi.Router) {
		r.Get("/key", handlers.PaymentKeyHandler(log, svc.Payments))
		r.Post("/create-order", handlers.CreateIntentHandler(log, svc.Payments))
		r.Post("/verify", handlers.VerifyPaymentHandler(log, svc.Payments))
	})

	return router
}
