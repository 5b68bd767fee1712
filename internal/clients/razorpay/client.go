package razorpay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	rzp "github.com/razorpay/razorpay-go"
)

// Client - обертка над официальным SDK провайдера: только создание платежного заказа.
type Client struct {
	sdk *rzp.Client
}

// NewClient создает клиент SDK. baseURL - адрес API без версии, SDK сам добавляет /v1.
func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	sdk := rzp.NewClient(keyID, keySecret)
	if baseURL != "" {
		sdk.Order.Request.BaseURL = strings.TrimRight(baseURL, "/")
	}
	sdk.Order.Request.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{sdk: sdk}
}

// OrderRequest - тело POST /orders, сумма в минимальных единицах валюты
type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

func (r OrderRequest) params() map[string]interface{} {
	data := map[string]interface{}{
		"amount":   r.Amount,
		"currency": r.Currency,
	}
	if r.Receipt != "" {
		data["receipt"] = r.Receipt
	}
	return data
}

type result struct {
	body map[string]interface{}
	err  error
}

// CreateOrder создает заказ у провайдера и возвращает его ответ как есть.
// Одна попытка, без ретраев. SDK не принимает context, поэтому отмену ждем снаружи.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("razorpay: %w", err)
	}

	done := make(chan result, 1)
	go func() {
		body, err := c.sdk.Order.Create(req.params(), nil)
		done <- result{body: body, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("razorpay: %w", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", res.err)
	}

	raw, err := json.Marshal(res.body)
	if err != nil {
		return nil, fmt.Errorf("razorpay: marshal response: %w", err)
	}
	return json.RawMessage(raw), nil
}
