package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/food-delivery/internal/broker"
	"github.com/linemk/food-delivery/internal/config"
	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/linemk/food-delivery/internal/storage"
	"golang.org/x/sync/errgroup"
)

// сколько раз перечитываем заказ при конфликте версий
const maxWriteAttempts = 3

// допустимое расхождение totalAmount с суммой позиций
const totalTolerance = 0.01

// OrderService - жизненный цикл заказа
type OrderService interface {
	Place(ctx context.Context, callerID string, in PlaceOrderInput) (*models.Order, error)
	ListMine(ctx context.Context, userID string) ([]*models.Order, error)
	Cancel(ctx context.Context, orderID, callerID string) (*models.Order, error)
	UpdateAddress(ctx context.Context, orderID, callerID, address string) (*models.Order, error)
	Track(ctx context.Context, orderID, callerID string) (*Tracking, error)
	History(ctx context.Context, orderID, callerID string) ([]models.StatusChange, error)
}

// PlaceOrderInput - данные нового заказа как их прислал клиент
type PlaceOrderInput struct {
	UserID        string
	RestaurantID  string
	Items         []models.OrderItem
	TotalAmount   float64
	Address       string
	PaymentMethod models.PaymentMethod
	Contact       models.Contact
	PaymentID     string
	// Payment - подтверждение оплаты от провайдера, проверяется до записи заказа
	Payment *models.PaymentProof
}

type orderService struct {
	log            *slog.Logger
	db             *sql.DB
	orderRepo      storage.OrderStorage
	restaurantRepo storage.RestaurantStorage
	payments       PaymentService
	publisher      broker.Publisher
	cfg            config.OrdersConfig
	now            func() time.Time
	newID          func() string
}

// Option настраивает orderService, в основном для тестов
type Option func(*orderService)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *orderService) { s.now = now }
}

// WithIDGenerator подменяет генератор идентификаторов заказов
func WithIDGenerator(newID func() string) Option {
	return func(s *orderService) { s.newID = newID }
}

func NewOrderService(
	log *slog.Logger,
	db *sql.DB,
	orderRepo storage.OrderStorage,
	restaurantRepo storage.RestaurantStorage,
	payments PaymentService,
	publisher broker.Publisher,
	cfg config.OrdersConfig,
	opts ...Option,
) OrderService {
	if publisher == nil {
		publisher = broker.NopPublisher{}
	}
	if cfg.ReconcileWorkers <= 0 {
		cfg.ReconcileWorkers = 1
	}
	s := &orderService{
		log:            log,
		db:             db,
		orderRepo:      orderRepo,
		restaurantRepo: restaurantRepo,
		payments:       payments,
		publisher:      publisher,
		cfg:            cfg,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Place создает заказ в статусе PLACED.
// totalAmount по умолчанию принимается как есть, пересчет включается настройкой verify_total.
func (s *orderService) Place(ctx context.Context, callerID string, in PlaceOrderInput) (*models.Order, error) {
	const op = "service.OrderService.Place"
	logger := s.log.With(slog.String("op", op), slog.String("userID", in.UserID), slog.String("restaurantID", in.RestaurantID))

	if err := s.checkPlacer(callerID, in.UserID); err != nil {
		logger.Warn("placement rejected", slog.Any("error", err))
		return nil, err
	}

	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCOD
	}
	if err := validatePlacement(in, s.cfg.VerifyTotal); err != nil {
		logger.Warn("invalid order", slog.Any("error", err))
		return nil, err
	}

	// подпись проверяется до того, как что-либо будет записано
	paymentID, err := s.settle(ctx, in)
	if err != nil {
		logger.Warn("payment not settled", slog.Any("error", err))
		return nil, err
	}

	restaurant, err := s.restaurantRepo.GetRestaurantByID(ctx, in.RestaurantID)
	if err != nil {
		if errors.Is(err, storage.ErrRestaurantNotFound) {
			logger.Warn("restaurant not found")
			return nil, ErrRestaurantNotFound
		}
		logger.Error("failed to get restaurant", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get restaurant: %w", op, err)
	}

	now := s.now()
	order := &models.Order{
		ID:            s.newID(),
		UserID:        in.UserID,
		RestaurantID:  in.RestaurantID,
		Items:         in.Items,
		TotalAmount:   in.TotalAmount,
		Address:       strings.TrimSpace(in.Address),
		PaymentMethod: in.PaymentMethod,
		PaymentID:     paymentID,
		Status:        models.StatusPlaced,
		Contact:       in.Contact,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		return s.orderRepo.AddStatusChange(ctx, tx, models.StatusChange{
			OrderID:   order.ID,
			ToStatus:  models.StatusPlaced,
			ChangedBy: models.ChangedByCustomer,
			ChangedAt: now,
		})
	})
	if err != nil {
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	order.Restaurant = restaurant
	s.publish(ctx, order, "", models.ChangedByCustomer)

	logger.Info("order placed", slog.String("orderID", order.ID), slog.String("paymentMethod", string(order.PaymentMethod)))
	return order, nil
}

// checkPlacer - без require_auth_on_place заказ принимается без проверки, кто его создает
func (s *orderService) checkPlacer(callerID, userID string) error {
	if !s.cfg.RequireAuthOnPlace {
		return nil
	}
	if callerID == "" {
		return ErrUnauthenticated
	}
	if callerID != userID {
		return ErrNotAuthorized
	}
	return nil
}

func validatePlacement(in PlaceOrderInput, verifyTotal bool) error {
	if len(in.Items) == 0 {
		return validationError("no items in order")
	}
	if in.UserID == "" {
		return validationError("userId is required")
	}
	if in.RestaurantID == "" {
		return validationError("restaurantId is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return validationError("address is required")
	}
	if in.TotalAmount < 0 || math.IsNaN(in.TotalAmount) {
		return validationError("totalAmount must not be negative")
	}

	var sum float64
	for _, item := range in.Items {
		if item.MenuItemID == "" || item.Name == "" {
			return validationError("menuItemId and name are required for every item")
		}
		if item.Quantity < 1 {
			return validationError("item quantity must be at least 1")
		}
		if item.Price < 0 {
			return validationError("item price must not be negative")
		}
		sum += item.Price * float64(item.Quantity)
	}

	switch in.PaymentMethod {
	case models.PaymentCOD:
		if in.PaymentID != "" || in.Payment != nil {
			return validationError("paymentId is only allowed for non-COD orders")
		}
	case models.PaymentCard, models.PaymentUPI:
	default:
		return validationError("unsupported payment method")
	}

	if verifyTotal && math.Abs(sum-in.TotalAmount) > totalTolerance {
		return validationError("totalAmount does not match items")
	}
	return nil
}

// settle проверяет подтверждение оплаты и возвращает paymentId для записи в заказ
func (s *orderService) settle(ctx context.Context, in PlaceOrderInput) (string, error) {
	if in.PaymentMethod == models.PaymentCOD {
		return "", nil
	}
	if in.Payment == nil {
		if in.PaymentID != "" {
			return "", validationError("payment verification data is required with paymentId")
		}
		return "", nil
	}

	proof := *in.Payment
	if proof.PaymentID == "" {
		proof.PaymentID = in.PaymentID
	}
	if in.PaymentID != "" && proof.PaymentID != in.PaymentID {
		return "", validationError("paymentId does not match verified payment")
	}

	if err := s.payments.Verify(ctx, proof); err != nil {
		return "", err
	}
	return proof.PaymentID, nil
}

// ListMine возвращает заказы пользователя, попутно продвигая их статусы по расписанию.
// Чтение списка - единственное место, где пишутся переходы по времени.
func (s *orderService) ListMine(ctx context.Context, userID string) ([]*models.Order, error) {
	const op = "service.OrderService.ListMine"
	logger := s.log.With(slog.String("op", op), slog.String("userID", userID))

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}

	now := s.now()
	// запись должна завершиться, даже если клиент ушел
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(s.cfg.ReconcileWorkers)
	for i, order := range orders {
		if order.Status.IsTerminal() {
			continue
		}
		i, order := i, order
		g.Go(func() error {
			fresh, err := s.reconcile(gctx, order, now)
			if err != nil {
				return err
			}
			orders[i] = fresh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("failed to reconcile order statuses", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to reconcile statuses: %w", op, err)
	}

	return orders, nil
}

// reconcile записывает вычисленный по времени статус, если он ушел вперед.
// При конфликте версий перечитывает заказ и пересчитывает статус уже для свежей копии.
func (s *orderService) reconcile(ctx context.Context, order *models.Order, now time.Time) (*models.Order, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		if attempt > 0 {
			fresh, err := s.orderRepo.GetOrderByID(ctx, order.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reread order %s: %w", order.ID, err)
			}
			order = fresh
		}

		next := models.NextStatus(order.Status, order.CreatedAt, now)
		if next == order.Status {
			return order, nil
		}

		prev := order.Status
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, next, order.Version); err != nil {
				return err
			}
			return s.orderRepo.AddStatusChange(ctx, tx, models.StatusChange{
				OrderID:    order.ID,
				FromStatus: prev,
				ToStatus:   next,
				ChangedBy:  models.ChangedBySystem,
				ChangedAt:  now,
			})
		})
		if errors.Is(err, storage.ErrVersionConflict) {
			s.log.Info("order changed concurrently, rereading",
				slog.String("orderID", order.ID), slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update status of order %s: %w", order.ID, err)
		}

		order.Status = next
		order.Version++
		order.UpdatedAt = now
		s.publish(ctx, order, prev, models.ChangedBySystem)
		return order, nil
	}

	return nil, fmt.Errorf("order %s: %w", order.ID, ErrConflict)
}

// Cancel отменяет заказ владельца. Перекрывает любой статус по расписанию,
// кроме уже терминальных DELIVERED и CANCELLED.
func (s *orderService) Cancel(ctx context.Context, orderID, callerID string) (*models.Order, error) {
	const op = "service.OrderService.Cancel"
	logger := s.log.With(slog.String("op", op), slog.String("orderID", orderID), slog.String("callerID", callerID))
	ctx = context.WithoutCancel(ctx)

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		order, err := s.loadOwned(ctx, orderID, callerID)
		if err != nil {
			logger.Warn("cancel rejected", slog.Any("error", err))
			return nil, err
		}
		if order.Status.IsTerminal() {
			logger.Warn("cannot cancel terminal order", slog.String("status", string(order.Status)))
			return nil, validationError("cannot cancel this order")
		}

		prev := order.Status
		now := s.now()
		err = s.inTx(ctx, func(tx *sql.Tx) error {
			if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, models.StatusCancelled, order.Version); err != nil {
				return err
			}
			return s.orderRepo.AddStatusChange(ctx, tx, models.StatusChange{
				OrderID:    order.ID,
				FromStatus: prev,
				ToStatus:   models.StatusCancelled,
				ChangedBy:  models.ChangedByCustomer,
				ChangedAt:  now,
			})
		})
		if errors.Is(err, storage.ErrVersionConflict) {
			logger.Info("order changed concurrently, retrying", slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			logger.Error("failed to cancel order", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to cancel order: %w", op, err)
		}

		order.Status = models.StatusCancelled
		order.Version++
		order.UpdatedAt = now
		s.publish(ctx, order, prev, models.ChangedByCustomer)

		logger.Info("order cancelled", slog.String("from", string(prev)))
		return order, nil
	}

	logger.Error("giving up after concurrent modifications")
	return nil, fmt.Errorf("%s: %w", op, ErrConflict)
}

// UpdateAddress меняет адрес, пока заказ в статусе PLACED.
// После этого доставка считается уже начатой.
func (s *orderService) UpdateAddress(ctx context.Context, orderID, callerID, address string) (*models.Order, error) {
	const op = "service.OrderService.UpdateAddress"
	logger := s.log.With(slog.String("op", op), slog.String("orderID", orderID), slog.String("callerID", callerID))
	ctx = context.WithoutCancel(ctx)

	if strings.TrimSpace(address) == "" {
		return nil, validationError("address is required")
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		order, err := s.loadOwned(ctx, orderID, callerID)
		if err != nil {
			logger.Warn("address change rejected", slog.Any("error", err))
			return nil, err
		}
		if order.Status != models.StatusPlaced {
			logger.Warn("address change after placement", slog.String("status", string(order.Status)))
			return nil, validationError("can only change address for placed orders")
		}

		err = s.inTx(ctx, func(tx *sql.Tx) error {
			return s.orderRepo.UpdateAddress(ctx, tx, order.ID, address, order.Version)
		})
		if errors.Is(err, storage.ErrVersionConflict) {
			logger.Info("order changed concurrently, retrying", slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			logger.Error("failed to update address", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to update address: %w", op, err)
		}

		order.Address = address
		order.Version++
		order.UpdatedAt = s.now()
		logger.Info("address updated")
		return order, nil
	}

	logger.Error("giving up after concurrent modifications")
	return nil, fmt.Errorf("%s: %w", op, ErrConflict)
}

// Track считает положение курьера, ничего не записывая
func (s *orderService) Track(ctx context.Context, orderID, callerID string) (*Tracking, error) {
	const op = "service.OrderService.Track"

	order, err := s.loadOwned(ctx, orderID, callerID)
	if err != nil {
		s.log.Warn("tracking rejected", slog.String("op", op), slog.String("orderID", orderID), slog.Any("error", err))
		return nil, err
	}
	tracking := ComputeTracking(order, s.now())
	return &tracking, nil
}

func (s *orderService) History(ctx context.Context, orderID, callerID string) ([]models.StatusChange, error) {
	const op = "service.OrderService.History"
	logger := s.log.With(slog.String("op", op), slog.String("orderID", orderID))

	if _, err := s.loadOwned(ctx, orderID, callerID); err != nil {
		logger.Warn("history rejected", slog.Any("error", err))
		return nil, err
	}

	history, err := s.orderRepo.GetStatusHistory(ctx, orderID)
	if err != nil {
		logger.Error("failed to get status history", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get history: %w", op, err)
	}
	return history, nil
}

// loadOwned читает заказ и проверяет, что вызывающий - его владелец
func (s *orderService) loadOwned(ctx context.Context, orderID, callerID string) (*models.Order, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.UserID != callerID {
		return nil, ErrNotAuthorized
	}
	return order, nil
}

// inTx выполняет fn в транзакции, при ошибке откатывает
func (s *orderService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// publish - события не критичны, ошибка только логируется
func (s *orderService) publish(ctx context.Context, order *models.Order, from models.Status, changedBy string) {
	event := broker.StatusEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		OldStatus: from,
		NewStatus: order.Status,
		ChangedBy: changedBy,
		Timestamp: order.UpdatedAt,
	}
	if err := s.publisher.PublishStatusChange(ctx, event); err != nil {
		s.log.Error("failed to publish status change",
			slog.String("orderID", order.ID),
			slog.Any("error", err),
		)
	}
}
