package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhigitlit/revisely/internal/domain/entities"
)

// UserRepository provides access to user details in the database.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository with the provided database pool.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// SaveUser inserts a new user into the database or refreshes an existing one.
func (r *UserRepository) SaveUser(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (user_id, full_name, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = EXCLUDED.full_name, username = EXCLUDED.username
	`

	if _, err := r.db.Exec(ctx, query, user.ID, user.FullName, user.Username); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}
