package service

import "errors"

var (
	// ErrUnauthenticated - нет валидной идентичности вызывающего
	ErrUnauthenticated = errors.New("authentication required")
	// ErrNotAuthorized - вызывающий не владелец заказа
	ErrNotAuthorized      = errors.New("not authorized")
	ErrOrderNotFound      = errors.New("order not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	// ErrInvalidSignature - подпись платежа не сошлась
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrPaymentProvider - провайдер недоступен или отклонил запрос, детали только в логах
	ErrPaymentProvider = errors.New("payment provider failure")
	// ErrConflict - заказ так и не удалось обновить из-за конкурентных изменений
	ErrConflict = errors.New("order was modified concurrently")
)

// ValidationError - запрос нарушает правила, состояние не менялось
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationError(reason string) error {
	return &ValidationError{Reason: reason}
}
