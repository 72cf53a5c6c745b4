package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meetscribe/backend/pkg/gen"
	"github.com/meetscribe/backend/services/auth/entity"
)

type Storage interface {
	Migrate(ctx context.Context) error
	CreateUser(ctx context.Context, email, passwordHash, name string) (*entity.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	FindUserByID(ctx context.Context, id string) (*entity.User, error)
}

type storage struct {
	db  *sql.DB
	ids gen.UUIDGenerator
}

func New(db *sql.DB, ids gen.UUIDGenerator) Storage {
	return &storage{
		db:  db,
		ids: ids,
	}
}

func (s *storage) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func (s *storage) CreateUser(ctx context.Context, email, passwordHash, name string) (*entity.User, error) {
	user := &entity.User{
		ID:           s.ids.NextString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

func (s *storage) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.find(ctx, `SELECT id, email, password_hash, name, created_at FROM users WHERE email = $1`, email)
}

func (s *storage) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	return s.find(ctx, `SELECT id, email, password_hash, name, created_at FROM users WHERE id = $1`, id)
}

func (s *storage) find(ctx context.Context, query string, arg any) (*entity.User, error) {
	var user entity.User
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}
