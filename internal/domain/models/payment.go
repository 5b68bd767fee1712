package models

import "encoding/json"

// Intent - созданный у провайдера (или синтетический) платежный заказ
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // в минимальных единицах валюты
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status"`
	IsMock   bool   `json:"isMock"`

	// Raw - ответ провайдера как есть, отдается клиенту без изменений
	Raw json.RawMessage `json:"-"`
}

// PaymentProof - данные, которые клиент получил от провайдера после оплаты
type PaymentProof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	IsMock    bool   `json:"isMock"`
}

// PublicKey - то, что можно показать клиенту
type PublicKey struct {
	Key    string `json:"key"`
	IsMock bool   `json:"isMock"`
}
