package models

import "time"

const RoleUser = "user"

// User представляет пользователя
type User struct {
	ID        string
	Name      string
	Email     string
	PassHash  []byte
	Role      string
	CreatedAt time.Time
}
