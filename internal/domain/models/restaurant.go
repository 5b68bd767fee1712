package models

// RestaurantSummary - данные ресторана для отображения вместе с заказом
type RestaurantSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}
