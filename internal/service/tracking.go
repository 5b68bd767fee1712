package service

import (
	"math"
	"time"

	"github.com/linemk/food-delivery/internal/domain/models"
)

// Point - координаты на карте
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Tracking - вычисляемое положение курьера, в базе не хранится
type Tracking struct {
	OrderID    string        `json:"orderId"`
	Status     models.Status `json:"status"`
	Progress   float64       `json:"progress"`
	Restaurant Point         `json:"restaurant"`
	Customer   Point         `json:"customer"`
	Courier    Point         `json:"courier"`
	Partner    string        `json:"partner"`
	ETAMinutes int           `json:"etaMinutes"`
}

var (
	restaurantPoint = Point{Lat: 11.1085, Lng: 77.3411}
	customerPoint   = Point{Lat: 11.1285, Lng: 77.3611}

	partners = []string{"Valarmathi", "Arunkumar", "Suresh", "Priya", "Anjali", "Karthick", "Deepak"}
)

// ComputeTracking: прогресс линейный от создания заказа до DeliveredAfter.
// Статус берется с учетом расписания, но в базу не пишется.
func ComputeTracking(order *models.Order, now time.Time) Tracking {
	status := models.NextStatus(order.Status, order.CreatedAt, now)

	progress := now.Sub(order.CreatedAt).Seconds() / models.DeliveredAfter.Seconds()
	progress = math.Max(0, math.Min(1, progress))

	switch status {
	case models.StatusDelivered:
		progress = 1
	case models.StatusCancelled:
		progress = 0
	}

	eta := 0
	if !status.IsTerminal() {
		eta = max(1, int(math.Round((1-progress)*5)))
	}

	return Tracking{
		OrderID:    order.ID,
		Status:     status,
		Progress:   progress,
		Restaurant: restaurantPoint,
		Customer:   customerPoint,
		Courier: Point{
			Lat: restaurantPoint.Lat + (customerPoint.Lat-restaurantPoint.Lat)*progress,
			Lng: restaurantPoint.Lng + (customerPoint.Lng-restaurantPoint.Lng)*progress,
		},
		Partner:    PartnerFor(order.ID),
		ETAMinutes: eta,
	}
}

// PartnerFor закрепляет курьера за заказом: один и тот же id всегда дает одно имя
func PartnerFor(orderID string) string {
	var h int32
	for _, c := range orderID {
		h = c + (h<<5 - h)
	}
	idx := int64(h)
	if idx < 0 {
		idx = -idx
	}
	return partners[idx%int64(len(partners))]
}
