package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/food-delivery/internal/domain/models"
)

// RestaurantStorage - рестораны только читаются, их наполняет миграция
type RestaurantStorage interface {
	GetRestaurantByID(ctx context.Context, id string) (*models.RestaurantSummary, error)
}

type restaurantRepository struct {
	db *sql.DB
}

func NewRestaurantRepository(db *sql.DB) RestaurantStorage {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) GetRestaurantByID(ctx context.Context, id string) (*models.RestaurantSummary, error) {
	restaurant := &models.RestaurantSummary{}
	row := r.db.QueryRowContext(ctx, "SELECT id, name, image FROM restaurants WHERE id = $1", id)
	if err := row.Scan(&restaurant.ID, &restaurant.Name, &restaurant.Image); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isPQCode(err, pqInvalidText) {
			return nil, ErrRestaurantNotFound
		}
		return nil, err
	}
	return restaurant, nil
}
