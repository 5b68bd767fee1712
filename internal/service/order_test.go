package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jaswdr/faker"
	"github.com/linemk/food-delivery/internal/broker"
	"github.com/linemk/food-delivery/internal/clients/razorpay"
	"github.com/linemk/food-delivery/internal/config"
	"github.com/linemk/food-delivery/internal/domain/models"
	"github.com/linemk/food-delivery/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	restaurantID = "11111111-1111-1111-1111-111111111111"
	ownerID      = "u-owner"
	strangerID   = "u-stranger"
	paySecret    = "S"
)

var t0 = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []broker.StatusEvent
}

func (p *recordingPublisher) PublishStatusChange(_ context.Context, e broker.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type fakeProvider struct {
	calls int
	err   error
}

func (p *fakeProvider) CreateOrder(_ context.Context, req razorpay.OrderRequest) (json.RawMessage, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return json.RawMessage(fmt.Sprintf(`{"id":"order_live_%d","amount":%d}`, p.calls, req.Amount)), nil
}

type orderFixture struct {
	svc       service.OrderService
	repo      *fakeOrderRepo
	mock      sqlmock.Sqlmock
	publisher *recordingPublisher
	now       time.Time
}

func newOrderFixture(t *testing.T, cfg config.OrdersConfig) *orderFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if cfg.ReconcileWorkers == 0 {
		// одна горутина, чтобы ожидания sqlmock шли по порядку
		cfg.ReconcileWorkers = 1
	}

	f := &orderFixture{
		repo:      newFakeOrderRepo(),
		mock:      mock,
		publisher: &recordingPublisher{},
		now:       t0,
	}
	payments := service.NewPaymentService(newTestLogger(), config.PaymentConfig{
		KeyID:     "rzp_test_abc",
		KeySecret: paySecret,
		Currency:  "INR",
	}, &fakeProvider{})

	ids := 0
	f.svc = service.NewOrderService(newTestLogger(), db, f.repo, newFakeRestaurantRepo(restaurantID),
		payments, f.publisher, cfg,
		service.WithClock(func() time.Time { return f.now }),
		service.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("order-%d", ids)
		}),
	)
	return f
}

func validInput() service.PlaceOrderInput {
	fake := faker.New()
	return service.PlaceOrderInput{
		UserID:       ownerID,
		RestaurantID: restaurantID,
		Items: []models.OrderItem{
			{MenuItemID: "m1", Name: "Paneer Tikka", Price: 120, Quantity: 1},
			{MenuItemID: "m2", Name: "Masala Dosa", Price: 39.5, Quantity: 2},
		},
		TotalAmount:   199,
		Address:       fake.Address().Address(),
		PaymentMethod: models.PaymentCOD,
		Contact: models.Contact{
			CustomerName: fake.Person().Name(),
			Email:        fake.Internet().Email(),
			Phone:        fake.Phone().Number(),
		},
	}
}

// seed кладет заказ владельца, созданный в t0
func (f *orderFixture) seed(id string, status models.Status) {
	f.repo.put(models.Order{
		ID:            id,
		UserID:        ownerID,
		RestaurantID:  restaurantID,
		Items:         []models.OrderItem{{MenuItemID: "m1", Name: "Paneer Tikka", Price: 120, Quantity: 1}},
		TotalAmount:   120,
		Address:       "12 Gandhi Road",
		PaymentMethod: models.PaymentCOD,
		Status:        status,
		Version:       1,
		CreatedAt:     t0,
		UpdatedAt:     t0,
	})
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var vErr *service.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestOrderService_Place_Success(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	in := validInput()
	order, err := f.svc.Place(context.Background(), "", in)
	require.NoError(t, err)

	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, models.StatusPlaced, order.Status)
	assert.Equal(t, in.Contact, order.Contact)
	assert.Equal(t, t0, order.CreatedAt)
	require.NotNil(t, order.Restaurant)
	assert.Equal(t, "Spice Junction", order.Restaurant.Name)

	stored := f.repo.stored(order.ID)
	assert.Equal(t, models.StatusPlaced, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
	assert.Len(t, stored.Items, 2)

	history := f.repo.history[order.ID]
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPlaced, history[0].ToStatus)
	assert.Equal(t, models.ChangedByCustomer, history[0].ChangedBy)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.StatusPlaced, f.publisher.events[0].NewStatus)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOrderService_Place_EmptyCart(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})

	in := validInput()
	in.Items = nil
	order, err := f.svc.Place(context.Background(), ownerID, in)
	assert.Nil(t, order)
	assertValidation(t, err)
	assert.EqualError(t, err, "no items in order")

	// транзакция даже не открывалась
	assert.Empty(t, f.repo.orders)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOrderService_Place_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *service.PlaceOrderInput)
	}{
		{"empty address", func(in *service.PlaceOrderInput) { in.Address = "   " }},
		{"zero quantity", func(in *service.PlaceOrderInput) { in.Items[0].Quantity = 0 }},
		{"negative total", func(in *service.PlaceOrderInput) { in.TotalAmount = -1 }},
		{"unknown payment method", func(in *service.PlaceOrderInput) { in.PaymentMethod = "Bitcoin" }},
		{"COD with payment id", func(in *service.PlaceOrderInput) { in.PaymentID = "pay_1" }},
		{"payment id without proof", func(in *service.PlaceOrderInput) {
			in.PaymentMethod = models.PaymentCard
			in.PaymentID = "pay_1"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t, config.OrdersConfig{})
			in := validInput()
			tt.mutate(&in)

			_, err := f.svc.Place(context.Background(), ownerID, in)
			assertValidation(t, err)
			assert.Empty(t, f.repo.orders)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestOrderService_Place_UnknownRestaurant(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})

	in := validInput()
	in.RestaurantID = "22222222-2222-2222-2222-222222222222"
	_, err := f.svc.Place(context.Background(), ownerID, in)
	assert.ErrorIs(t, err, service.ErrRestaurantNotFound)
	assert.Empty(t, f.repo.orders)
}

func TestOrderService_Place_RequireAuth(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{RequireAuthOnPlace: true})

	_, err := f.svc.Place(context.Background(), "", validInput())
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = f.svc.Place(context.Background(), strangerID, validInput())
	assert.ErrorIs(t, err, service.ErrNotAuthorized)
	assert.Empty(t, f.repo.orders)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err = f.svc.Place(context.Background(), ownerID, validInput())
	assert.NoError(t, err)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOrderService_Place_TotalAmount(t *testing.T) {
	in := validInput()
	in.TotalAmount = 1 // позиции стоят 199

	t.Run("accepted as sent by default", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		order, err := f.svc.Place(context.Background(), ownerID, in)
		require.NoError(t, err)
		assert.Equal(t, 1.0, order.TotalAmount)
	})

	t.Run("rejected when verification is on", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{VerifyTotal: true})

		_, err := f.svc.Place(context.Background(), ownerID, in)
		assertValidation(t, err)
		assert.Empty(t, f.repo.orders)
	})

	t.Run("matching total passes verification", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{VerifyTotal: true})
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		_, err := f.svc.Place(context.Background(), ownerID, validInput())
		assert.NoError(t, err)
	})
}

func TestOrderService_Place_WithPayment(t *testing.T) {
	t.Run("verified signature stores payment id", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		in := validInput()
		in.PaymentMethod = models.PaymentCard
		in.Payment = &models.PaymentProof{
			OrderID:   "order_live_1",
			PaymentID: "pay_1",
			Signature: service.Sign(paySecret, "order_live_1", "pay_1"),
		}
		order, err := f.svc.Place(context.Background(), ownerID, in)
		require.NoError(t, err)
		assert.Equal(t, "pay_1", order.PaymentID)
		assert.Equal(t, "pay_1", f.repo.stored(order.ID).PaymentID)
	})

	t.Run("bad signature creates nothing", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})

		in := validInput()
		in.PaymentMethod = models.PaymentUPI
		in.PaymentID = "pay_1"
		in.Payment = &models.PaymentProof{OrderID: "order_live_1", PaymentID: "pay_1", Signature: "deadbeef"}
		_, err := f.svc.Place(context.Background(), ownerID, in)
		assert.ErrorIs(t, err, service.ErrInvalidSignature)
		assert.Empty(t, f.repo.orders)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("mismatched payment id", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})

		in := validInput()
		in.PaymentMethod = models.PaymentCard
		in.PaymentID = "pay_2"
		in.Payment = &models.PaymentProof{OrderID: "order_mock_x", PaymentID: "pay_1", IsMock: true}
		_, err := f.svc.Place(context.Background(), ownerID, in)
		assertValidation(t, err)
	})

	t.Run("mock payment accepted", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		in := validInput()
		in.PaymentMethod = models.PaymentCard
		in.PaymentID = "pay_mock_1"
		in.Payment = &models.PaymentProof{OrderID: "order_mock_x", IsMock: true}
		order, err := f.svc.Place(context.Background(), ownerID, in)
		require.NoError(t, err)
		assert.Equal(t, "pay_mock_1", order.PaymentID)
	})
}

func TestOrderService_ListMine_AdvancesBySchedule(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	f.seed("o-1", models.StatusPlaced)

	steps := []struct {
		offset time.Duration
		want   models.Status
		writes bool
	}{
		{5 * time.Second, models.StatusPlaced, false},
		{25 * time.Second, models.StatusAccepted, true},
		{65 * time.Second, models.StatusPreparing, true},
		{125 * time.Second, models.StatusOutForDelivery, true},
		{185 * time.Second, models.StatusDelivered, true},
		{10 * time.Minute, models.StatusDelivered, false},
	}

	prev := models.StatusPlaced
	for _, step := range steps {
		f.now = t0.Add(step.offset)
		if step.writes {
			f.mock.ExpectBegin()
			f.mock.ExpectCommit()
		}

		orders, err := f.svc.ListMine(context.Background(), ownerID)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, step.want, orders[0].Status, "at t0+%s", step.offset)
		assert.False(t, orders[0].Status.Before(prev), "status must never go back")
		assert.Equal(t, step.want, f.repo.stored("o-1").Status)
		prev = orders[0].Status
	}

	assert.Equal(t, 4, f.repo.statusUpdates, "only real transitions are written")
	history := f.repo.history["o-1"]
	require.Len(t, history, 4)
	for _, h := range history {
		assert.Equal(t, models.ChangedBySystem, h.ChangedBy)
	}
	assert.Equal(t, models.StatusOutForDelivery, history[3].FromStatus)
	assert.Len(t, f.publisher.events, 4)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOrderService_ListMine_SkipsAheadAfterLongPause(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	f.seed("o-1", models.StatusPlaced)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	f.now = t0.Add(130 * time.Second)
	orders, err := f.svc.ListMine(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOutForDelivery, orders[0].Status)

	history := f.repo.history["o-1"]
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPlaced, history[0].FromStatus)
	assert.Equal(t, models.StatusOutForDelivery, history[0].ToStatus)
}

func TestOrderService_ListMine_TerminalIsStable(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	f.seed("o-1", models.StatusCancelled)

	for _, offset := range []time.Duration{25 * time.Second, 3 * time.Minute, time.Hour} {
		f.now = t0.Add(offset)
		orders, err := f.svc.ListMine(context.Background(), ownerID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, orders[0].Status)
	}
	assert.Zero(t, f.repo.statusUpdates)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOrderService_ListMine_ConcurrentChangeIsReconciled(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	f.seed("o-1", models.StatusPlaced)
	f.repo.conflicts = 1
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	f.now = t0.Add(25 * time.Second)
	orders, err := f.svc.ListMine(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	// статус пересчитан для перечитанной копии и записан
	assert.Equal(t, models.StatusAccepted, orders[0].Status)
	assert.Equal(t, models.StatusAccepted, f.repo.stored("o-1").Status)
	assert.Equal(t, f.repo.stored("o-1").Version, orders[0].Version)
	require.Len(t, f.repo.history["o-1"], 1)
	assert.Equal(t, models.StatusAccepted, f.repo.history["o-1"][0].ToStatus)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOrderService_ListMine_ConcurrentCancelWins(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	f.seed("o-1", models.StatusPlaced)
	f.repo.conflicts = 1
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	// конкурентный писатель отменяет заказ, пока мы пытаемся записать ACCEPTED
	f.repo.cancelOnConflict = true

	f.now = t0.Add(25 * time.Second)
	orders, err := f.svc.ListMine(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusCancelled, orders[0].Status)
	assert.Equal(t, models.StatusCancelled, f.repo.stored("o-1").Status)
	assert.Empty(t, f.repo.history["o-1"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOrderService_ListMine_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	f.seed("o-1", models.StatusPlaced)
	f.repo.conflicts = 3
	for i := 0; i < 3; i++ {
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()
	}

	f.now = t0.Add(25 * time.Second)
	_, err := f.svc.ListMine(context.Background(), ownerID)
	assert.ErrorIs(t, err, service.ErrConflict)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestOrderService_ListMine_Empty(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	orders, err := f.svc.ListMine(context.Background(), ownerID)
	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_Cancel(t *testing.T) {
	t.Run("non-owner is rejected", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusPlaced)

		_, err := f.svc.Cancel(context.Background(), "o-1", strangerID)
		assert.ErrorIs(t, err, service.ErrNotAuthorized)
		assert.Equal(t, models.StatusPlaced, f.repo.stored("o-1").Status)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("anonymous caller", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusPlaced)

		_, err := f.svc.Cancel(context.Background(), "o-1", "")
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})

		_, err := f.svc.Cancel(context.Background(), "missing", ownerID)
		assert.ErrorIs(t, err, service.ErrOrderNotFound)
	})

	t.Run("preparing order can be cancelled", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusPreparing)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		order, err := f.svc.Cancel(context.Background(), "o-1", ownerID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, order.Status)
		assert.Equal(t, models.StatusCancelled, f.repo.stored("o-1").Status)

		history := f.repo.history["o-1"]
		require.Len(t, history, 1)
		assert.Equal(t, models.StatusPreparing, history[0].FromStatus)
		assert.Equal(t, models.ChangedByCustomer, history[0].ChangedBy)
		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, models.StatusPreparing, f.publisher.events[0].OldStatus)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("delivered order cannot be cancelled", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusDelivered)

		_, err := f.svc.Cancel(context.Background(), "o-1", ownerID)
		assertValidation(t, err)
		assert.EqualError(t, err, "cannot cancel this order")
		assert.Equal(t, models.StatusDelivered, f.repo.stored("o-1").Status)
	})

	t.Run("cancelled order stays as is", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusCancelled)

		_, err := f.svc.Cancel(context.Background(), "o-1", ownerID)
		assertValidation(t, err)
	})

	t.Run("retries after concurrent change", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusAccepted)
		f.repo.conflicts = 1
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		order, err := f.svc.Cancel(context.Background(), "o-1", ownerID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, order.Status)
		assert.Equal(t, int64(3), f.repo.stored("o-1").Version)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusAccepted)
		f.repo.conflicts = 3
		for i := 0; i < 3; i++ {
			f.mock.ExpectBegin()
			f.mock.ExpectRollback()
		}

		_, err := f.svc.Cancel(context.Background(), "o-1", ownerID)
		assert.ErrorIs(t, err, service.ErrConflict)
		assert.Equal(t, models.StatusAccepted, f.repo.stored("o-1").Status)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestOrderService_UpdateAddress(t *testing.T) {
	t.Run("placed order", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusPlaced)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		order, err := f.svc.UpdateAddress(context.Background(), "o-1", ownerID, "7 Anna Salai")
		require.NoError(t, err)
		assert.Equal(t, "7 Anna Salai", order.Address)
		assert.Equal(t, "7 Anna Salai", f.repo.stored("o-1").Address)
		assert.Equal(t, models.StatusPlaced, f.repo.stored("o-1").Status)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("accepted order is locked", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusAccepted)

		_, err := f.svc.UpdateAddress(context.Background(), "o-1", ownerID, "7 Anna Salai")
		assertValidation(t, err)
		assert.EqualError(t, err, "can only change address for placed orders")
		assert.Equal(t, "12 Gandhi Road", f.repo.stored("o-1").Address)
	})

	t.Run("empty address", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusPlaced)

		_, err := f.svc.UpdateAddress(context.Background(), "o-1", ownerID, "  ")
		assertValidation(t, err)
	})

	t.Run("non-owner", func(t *testing.T) {
		f := newOrderFixture(t, config.OrdersConfig{})
		f.seed("o-1", models.StatusPlaced)

		_, err := f.svc.UpdateAddress(context.Background(), "o-1", strangerID, "7 Anna Salai")
		assert.ErrorIs(t, err, service.ErrNotAuthorized)
		assert.Equal(t, "12 Gandhi Road", f.repo.stored("o-1").Address)
	})
}

func TestOrderService_TrackAndHistory(t *testing.T) {
	f := newOrderFixture(t, config.OrdersConfig{})
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	order, err := f.svc.Place(context.Background(), ownerID, validInput())
	require.NoError(t, err)

	f.now = t0.Add(90 * time.Second)
	tracking, err := f.svc.Track(context.Background(), order.ID, ownerID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, tracking.Progress, 1e-9)
	assert.Equal(t, service.PartnerFor(order.ID), tracking.Partner)
	// трекинг ничего не пишет
	assert.Zero(t, f.repo.statusUpdates)

	_, err = f.svc.Track(context.Background(), order.ID, strangerID)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)

	history, err := f.svc.History(context.Background(), order.ID, ownerID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPlaced, history[0].ToStatus)

	_, err = f.svc.History(context.Background(), order.ID, strangerID)
	assert.ErrorIs(t, err, service.ErrNotAuthorized)

	_, err = f.svc.History(context.Background(), "missing", ownerID)
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
