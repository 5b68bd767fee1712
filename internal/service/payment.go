package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/linemk/food-delivery/internal/clients/razorpay"
	"github.com/linemk/food-delivery/internal/config"
	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/lucsky/cuid"
)

// ключ-заглушка из шаблона .env, с ним провайдер тоже считается не настроенным
const placeholderKey = "test_your_key"

// PaymentProvider - внешний платежный сервис
type PaymentProvider interface {
	CreateOrder(ctx context.Context, req razorpay.OrderRequest) (json.RawMessage, error)
}

type PaymentService interface {
	PublicKey() models.PublicKey
	CreateIntent(ctx context.Context, req IntentRequest) (*models.Intent, error)
	Verify(ctx context.Context, proof models.PaymentProof) error
}

// IntentRequest - сумма в основных единицах валюты (рубли, рупии)
type IntentRequest struct {
	Amount   float64
	Currency string
	Receipt  string
}

type paymentService struct {
	log      *slog.Logger
	provider PaymentProvider
	keyID    string
	secret   string
	currency string
	mock     bool
}

// NewPaymentService выбирает режим один раз при старте: без ключей провайдера все платежи mock.
func NewPaymentService(log *slog.Logger, cfg config.PaymentConfig, provider PaymentProvider) PaymentService {
	mock := cfg.KeyID == "" || cfg.KeySecret == "" || strings.Contains(cfg.KeyID, placeholderKey) || provider == nil
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}
	if mock {
		log.Warn("payment provider is not configured, using mock payments")
	}
	return &paymentService{
		log:      log,
		provider: provider,
		keyID:    cfg.KeyID,
		secret:   cfg.KeySecret,
		currency: currency,
		mock:     mock,
	}
}

// PublicKey отдает только публичный идентификатор ключа, секрет остается на сервере
func (s *paymentService) PublicKey() models.PublicKey {
	return models.PublicKey{Key: s.keyID, IsMock: s.mock}
}

// CreateIntent создает платежный заказ у провайдера, а в mock-режиме синтезирует его.
func (s *paymentService) CreateIntent(ctx context.Context, req IntentRequest) (*models.Intent, error) {
	const op = "service.PaymentService.CreateIntent"
	logger := s.log.With(slog.String("op", op), slog.Bool("mock", s.mock))

	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, validationError("amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}
	minor := ToMinorUnits(req.Amount)

	if s.mock {
		intent := &models.Intent{
			ID:       "order_mock_" + cuid.New(),
			Amount:   minor,
			Currency: currency,
			Receipt:  req.Receipt,
			Status:   "created",
			IsMock:   true,
		}
		logger.Info("mock payment intent created", slog.String("intentID", intent.ID), slog.Int64("amount", minor))
		return intent, nil
	}

	raw, err := s.provider.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   minor,
		Currency: currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		// полная ошибка провайдера только в логах
		logger.Error("payment provider failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentProvider)
	}

	logger.Info("payment intent created", slog.Int64("amount", minor))
	return &models.Intent{
		Amount:   minor,
		Currency: currency,
		Receipt:  req.Receipt,
		Raw:      raw,
	}, nil
}

// Verify проверяет, что сообщение об оплате пришло от провайдера.
// Ничего не сохраняет: это только проверка перед тем, как заказ будет отмечен оплаченным.
func (s *paymentService) Verify(ctx context.Context, proof models.PaymentProof) error {
	const op = "service.PaymentService.Verify"
	logger := s.log.With(slog.String("op", op), slog.String("paymentOrderID", proof.OrderID))

	if proof.IsMock {
		logger.Info("mock payment accepted")
		return nil
	}

	expected := Sign(s.secret, proof.OrderID, proof.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(proof.Signature)) {
		logger.Warn("payment signature mismatch")
		return ErrInvalidSignature
	}

	logger.Info("payment verified", slog.String("paymentID", proof.PaymentID))
	return nil
}

// Sign считает подпись провайдера: hex(HMAC-SHA256(secret, orderID + "|" + paymentID))
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// ToMinorUnits переводит сумму в минимальные единицы (x100) с округлением
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
