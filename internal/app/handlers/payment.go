package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/linemk/food-delivery/internal/service"
)

// CreateIntentRequest - сумма в основных единицах, перевод в минимальные делает сервис
type CreateIntentRequest struct {
	Amount   float64 `json:"amount" validate:"gt=0"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	Receipt  string  `json:"receipt" validate:"max=40"`
}

// VerifyResponse - ответ на успешную проверку
type VerifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PaymentKeyHandler обрабатывает GET /api/payment/key
func PaymentKeyHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.PaymentKeyHandler"))
		writeJSON(w, logger, http.StatusOK, paymentService.PublicKey())
	}
}

// CreateIntentHandler обрабатывает POST /api/payment/create-order.
// В боевом режиме клиенту уходит ответ провайдера без изменений.
func CreateIntentHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateIntentHandler"
		logger := log.With(slog.String("op", op))

		var req CreateIntentRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		intent, err := paymentService.CreateIntent(r.Context(), service.IntentRequest{
			Amount:   req.Amount,
			Currency: req.Currency,
			Receipt:  req.Receipt,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		if len(intent.Raw) > 0 {
			writeJSON(w, logger, http.StatusOK, intent.Raw)
			return
		}
		writeJSON(w, logger, http.StatusOK, intent)
	}
}

// VerifyPaymentHandler обрабатывает POST /api/payment/verify
func VerifyPaymentHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.VerifyPaymentHandler"
		logger := log.With(slog.String("op", op))

		var proof models.PaymentProof
		if !decodeAndValidate(w, r, logger, &proof) {
			return
		}

		if err := paymentService.Verify(r.Context(), proof); err != nil {
			writeServiceError(w, logger, err)
			return
		}

		message := "payment verified"
		if proof.IsMock {
			message = "payment verified (mock)"
		}
		writeJSON(w, logger, http.StatusOK, VerifyResponse{Success: true, Message: message})
	}
}
