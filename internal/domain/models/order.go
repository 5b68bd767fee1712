package models

import "time"

// PaymentMethod - способ оплаты заказа
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentCard PaymentMethod = "Card"
	PaymentUPI  PaymentMethod = "UPI"
)

// OrderItem - снимок позиции меню на момент заказа
type OrderItem struct {
	MenuItemID string  `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// Contact - контактные данные клиента, сохраненные вместе с заказом
type Contact struct {
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

// Order представляет заказ клиента
type Order struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	RestaurantID  string             `json:"restaurantId"`
	Restaurant    *RestaurantSummary `json:"restaurant,omitempty"` // заполняется через JOIN с restaurants
	Items         []OrderItem        `json:"items"`
	TotalAmount   float64            `json:"totalAmount"`
	Address       string             `json:"address"`
	PaymentMethod PaymentMethod      `json:"paymentMethod"`
	PaymentID     string             `json:"paymentId,omitempty"`
	Status        Status             `json:"status"`
	Contact
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusChange - запись журнала order_status_log
type StatusChange struct {
	OrderID    string    `json:"orderId"`
	FromStatus Status    `json:"fromStatus,omitempty"`
	ToStatus   Status    `json:"toStatus"`
	ChangedBy  string    `json:"changedBy"`
	ChangedAt  time.Time `json:"changedAt"`
}

// Кто инициировал смену статуса
const (
	ChangedByCustomer = "customer"
	ChangedBySystem   = "system"
)
