package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	// ErrVersionConflict - запись изменили между чтением и обновлением
	ErrVersionConflict = errors.New("order version conflict")
)

// коды ошибок postgres
const (
	pqUniqueViolation = "23505"
	pqInvalidText     = "22P02" // например, битый uuid в параметре
)

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
