package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/food-delivery/internal/domain/models"
)

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

const selectUser = "SELECT id, name, email, pass_hash, role, created_at FROM users"

// получение уже существующего пользователя
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+" WHERE email = $1", email)
	return scanUser(row)
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, selectUser+" WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil && isPQCode(err, pqInvalidText) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PassHash, &user.Role, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateUser вставляет пользователя, id генерирует вызывающий код
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (id, name, email, pass_hash, role) VALUES ($1, $2, $3, $4, $5) RETURNING created_at",
		user.ID, user.Name, user.Email, user.PassHash, user.Role,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
