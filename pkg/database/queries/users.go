package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*models.User, error) {
	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`

	var user models.User
	user.Username = username
	user.PasswordHash = passwordHash

	err := r.db.QueryRowContext(ctx, query, username, passwordHash).Scan(&user.ID, &user.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}
