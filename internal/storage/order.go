package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/food-delivery/internal/domain/models"
)

// OrderStorage описывает методы для работы с заказами.
// Все изменения идут через транзакцию, которую открывает сервис.
type OrderStorage interface {
	// CreateOrder вставляет заказ и его позиции.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// GetOrderByID возвращает заказ вместе с позициями и данными ресторана.
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	// GetOrdersByUserID возвращает заказы пользователя, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error)
	// UpdateStatus меняет статус, если версия заказа не изменилась с момента чтения.
	UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status models.Status, version int64) error
	// UpdateAddress меняет адрес с той же проверкой версии.
	UpdateAddress(ctx context.Context, tx *sql.Tx, id string, address string, version int64) error
	// AddStatusChange пишет строку в журнал статусов.
	AddStatusChange(ctx context.Context, tx *sql.Tx, change models.StatusChange) error
	// GetStatusHistory возвращает журнал статусов заказа по времени.
	GetStatusHistory(ctx context.Context, orderID string) ([]models.StatusChange, error)
}

// orderRepository - конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const selectOrder = `
		SELECT o.id, o.user_id, o.restaurant_id, r.name, r.image, o.total_amount, o.address,
		       o.payment_method, o.payment_id, o.status, o.customer_name, o.email, o.phone,
		       o.version, o.created_at, o.updated_at
		FROM orders o
		LEFT JOIN restaurants r ON r.id = o.restaurant_id`

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (id, user_id, restaurant_id, total_amount, address, payment_method, payment_id,
	                              status, customer_name, email, phone, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`
	_, err := tx.ExecContext(ctx, query,
		order.ID, order.UserID, order.RestaurantID, order.TotalAmount, order.Address,
		string(order.PaymentMethod), nullString(order.PaymentID), string(order.Status),
		order.CustomerName, order.Email, order.Phone, order.Version, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, position, menu_item_id, name, price, quantity)
	              VALUES ($1, $2, $3, $4, $5, $6)`
	for i, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery, order.ID, i, item.MenuItemID, item.Name, item.Price, item.Quantity); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, selectOrder+" WHERE o.id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isPQCode(err, pqInvalidText) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if err := r.attachItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrder+" WHERE o.user_id = $1 ORDER BY o.created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems подтягивает позиции сразу для всех заказов одним запросом
func (r *orderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[string]*models.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
		o.Items = []models.OrderItem{}
	}

	query := `
		SELECT order_id, menu_item_id, name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var item models.OrderItem
		if err := rows.Scan(&orderID, &item.MenuItemID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id string, status models.Status, version int64) error {
	query := `UPDATE orders SET status = $1, version = version + 1, updated_at = NOW()
	          WHERE id = $2 AND version = $3`
	return execVersioned(ctx, tx, query, string(status), id, version)
}

func (r *orderRepository) UpdateAddress(ctx context.Context, tx *sql.Tx, id string, address string, version int64) error {
	query := `UPDATE orders SET address = $1, version = version + 1, updated_at = NOW()
	          WHERE id = $2 AND version = $3`
	return execVersioned(ctx, tx, query, address, id, version)
}

// execVersioned - 0 затронутых строк значит, что заказ уже кто-то изменил
func execVersioned(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *orderRepository) AddStatusChange(ctx context.Context, tx *sql.Tx, change models.StatusChange) error {
	query := `INSERT INTO order_status_log (order_id, from_status, to_status, changed_by, changed_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.ExecContext(ctx, query,
		change.OrderID, nullString(string(change.FromStatus)), string(change.ToStatus), change.ChangedBy, change.ChangedAt)
	if err != nil {
		return fmt.Errorf("failed to write status log: %w", err)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID string) ([]models.StatusChange, error) {
	query := `
		SELECT order_id, from_status, to_status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at, id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status log: %w", err)
	}
	defer rows.Close()

	history := []models.StatusChange{}
	for rows.Next() {
		var c models.StatusChange
		var from sql.NullString
		var to string
		if err := rows.Scan(&c.OrderID, &from, &to, &c.ChangedBy, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		c.FromStatus = models.Status(from.String)
		c.ToStatus = models.Status(to)
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var (
		restaurantName, restaurantImage sql.NullString
		paymentID                       sql.NullString
		paymentMethod, status           string
	)
	err := row.Scan(
		&order.ID, &order.UserID, &order.RestaurantID, &restaurantName, &restaurantImage,
		&order.TotalAmount, &order.Address, &paymentMethod, &paymentID, &status,
		&order.CustomerName, &order.Email, &order.Phone,
		&order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.PaymentMethod = models.PaymentMethod(paymentMethod)
	order.PaymentID = paymentID.String
	order.Status = models.Status(status)
	// ресторан мог быть удален - тогда заказ отдается без него
	if restaurantName.Valid {
		order.Restaurant = &models.RestaurantSummary{
			ID:    order.RestaurantID,
			Name:  restaurantName.String,
			Image: restaurantImage.String,
		}
	}
	return order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
