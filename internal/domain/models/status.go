package models

import "time"

// Status - состояние заказа в жизненном цикле
type Status string

const (
	StatusPlaced         Status = "PLACED"
	StatusAccepted       Status = "ACCEPTED"
	StatusPreparing      Status = "PREPARING"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// Границы расписания в секундах от createdAt
const (
	AcceptedAfter       = 20 * time.Second
	PreparingAfter      = 60 * time.Second
	OutForDeliveryAfter = 120 * time.Second
	DeliveredAfter      = 180 * time.Second
)

// rank задает порядок статусов на пути без отмены
var rank = map[Status]int{
	StatusPlaced:         1,
	StatusAccepted:       2,
	StatusPreparing:      3,
	StatusOutForDelivery: 4,
	StatusDelivered:      5,
}

// Valid сообщает, известен ли статус
func (s Status) Valid() bool {
	_, ok := rank[s]
	return ok || s == StatusCancelled
}

// IsTerminal - из DELIVERED и CANCELLED переходов нет
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Before сообщает, что s раньше other на пути PLACED -> DELIVERED.
// CANCELLED вне этого порядка: для него всегда false.
func (s Status) Before(other Status) bool {
	a, okA := rank[s]
	b, okB := rank[other]
	return okA && okB && a < b
}

// DeriveStatus вычисляет статус только по прошедшему времени.
// Чистая функция: не смотрит на сохраненный статус и ничего не пишет.
func DeriveStatus(createdAt, now time.Time) Status {
	elapsed := now.Sub(createdAt)

	switch {
	case elapsed < AcceptedAfter:
		return StatusPlaced
	case elapsed < PreparingAfter:
		return StatusAccepted
	case elapsed < OutForDeliveryAfter:
		return StatusPreparing
	case elapsed < DeliveredAfter:
		return StatusOutForDelivery
	default:
		return StatusDelivered
	}
}

// NextStatus возвращает статус, в который заказ должен перейти к моменту now.
// Терминальные заказы не двигаются, откат назад невозможен.
func NextStatus(current Status, createdAt, now time.Time) Status {
	if current.IsTerminal() {
		return current
	}
	derived := DeriveStatus(createdAt, now)
	if current.Before(derived) {
		return derived
	}
	return current
}
