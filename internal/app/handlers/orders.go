package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/linemk/food-delivery/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/food-delivery/internal/service"
)

// PlaceOrderRequest - тело POST /api/orders.
// Позиции и сумма проверяются сервисом, здесь только формат.
type PlaceOrderRequest struct {
	UserID        string               `json:"userId"`
	RestaurantID  string               `json:"restaurantId"`
	Items         []models.OrderItem   `json:"items"`
	TotalAmount   float64              `json:"totalAmount"`
	Address       string               `json:"address"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	CustomerName  string               `json:"customerName" validate:"max=200"`
	Email         string               `json:"email" validate:"max=254"`
	Phone         string               `json:"phone" validate:"max=32"`
	PaymentID     string               `json:"paymentId"`

	// подтверждение оплаты в том виде, в каком его отдает checkout провайдера
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	IsMock            bool   `json:"isMock"`
}

func (req PlaceOrderRequest) toInput() service.PlaceOrderInput {
	in := service.PlaceOrderInput{
		UserID:        req.UserID,
		RestaurantID:  req.RestaurantID,
		Items:         req.Items,
		TotalAmount:   req.TotalAmount,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		Contact: models.Contact{
			CustomerName: req.CustomerName,
			Email:        req.Email,
			Phone:        req.Phone,
		},
		PaymentID: req.PaymentID,
	}
	if req.RazorpayOrderID != "" || req.RazorpayPaymentID != "" || req.RazorpaySignature != "" || req.IsMock {
		in.Payment = &models.PaymentProof{
			OrderID:   req.RazorpayOrderID,
			PaymentID: req.RazorpayPaymentID,
			Signature: req.RazorpaySignature,
			IsMock:    req.IsMock,
		}
	}
	return in
}

// UpdateAddressRequest - тело PUT /api/orders/address/{id}
type UpdateAddressRequest struct {
	Address string `json:"address" validate:"required"`
}

// callerID - id из токена или пустая строка для анонимного запроса
func callerID(r *http.Request) string {
	identity, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		return ""
	}
	return identity.ID
}

// PlaceOrderHandler обрабатывает POST /api/orders
func PlaceOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		var req PlaceOrderRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		order, err := orderService.Place(r.Context(), callerID(r), req.toInput())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, order)
	}
}

// MyOrdersHandler обрабатывает GET /api/orders/my
func MyOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID := callerID(r)
		if userID == "" {
			writeServiceError(w, logger, service.ErrUnauthenticated)
			return
		}

		orders, err := orderService.ListMine(r.Context(), userID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if orders == nil {
			orders = []*models.Order{}
		}

		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// CancelOrderHandler обрабатывает POST /api/orders/cancel/{id}
func CancelOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelOrderHandler"
		orderID := chi.URLParam(r, "id")
		logger := log.With(slog.String("op", op), slog.String("orderID", orderID))

		order, err := orderService.Cancel(r.Context(), orderID, callerID(r))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, order)
	}
}

// UpdateAddressHandler обрабатывает PUT /api/orders/address/{id}
func UpdateAddressHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateAddressHandler"
		orderID := chi.URLParam(r, "id")
		logger := log.With(slog.String("op", op), slog.String("orderID", orderID))

		var req UpdateAddressRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		order, err := orderService.UpdateAddress(r.Context(), orderID, callerID(r), req.Address)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, order)
	}
}

// TrackingHandler обрабатывает GET /api/orders/{id}/tracking
func TrackingHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.TrackingHandler"
		orderID := chi.URLParam(r, "id")
		logger := log.With(slog.String("op", op), slog.String("orderID", orderID))

		tracking, err := orderService.Track(r.Context(), orderID, callerID(r))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusOK, tracking)
	}
}

// HistoryHandler обрабатывает GET /api/orders/{id}/history
func HistoryHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.HistoryHandler"
		orderID := chi.URLParam(r, "id")
		logger := log.With(slog.String("op", op), slog.String("orderID", orderID))

		history, err := orderService.History(r.Context(), orderID, callerID(r))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		if history == nil {
			history = []models.StatusChange{}
		}

		writeJSON(w, logger, http.StatusOK, history)
	}
}
