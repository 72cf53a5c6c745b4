package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meetscribe/backend/pkg/gen"
	"github.com/meetscribe/backend/services/transkey/entity"
)

type Storage interface {
	Migrate(ctx context.Context) error
	FindByUser(ctx context.Context, userID string) (*entity.Key, error)
	Create(ctx context.Context, userID, key, externalID string, expiresAt time.Time) (*entity.Key, error)
	Delete(ctx context.Context, id string) error
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
		CREATE TABLE IF NOT EXISTS transcription_keys (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users (id),
			key         TEXT NOT NULL,
			external_id TEXT NOT NULL,
			expires_at  TIMESTAMPTZ NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create transcription_keys table: %w", err)
	}
	return nil
}

func (s *storage) FindByUser(ctx context.Context, userID string) (*entity.Key, error) {
	var key entity.Key
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, key, external_id, expires_at, created_at
		 FROM transcription_keys WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&key.ID, &key.UserID, &key.Key, &key.ExternalID, &key.ExpiresAt, &key.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transcription key: %w", err)
	}

	return &key, nil
}

func (s *storage) Create(ctx context.Context, userID, key, externalID string, expiresAt time.Time) (*entity.Key, error) {
	row := &entity.Key{
		ID:         s.ids.NextString(),
		UserID:     userID,
		Key:        key,
		ExternalID: externalID,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcription_keys (id, user_id, key, external_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		row.ID, row.UserID, row.Key, row.ExternalID, row.ExpiresAt, row.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transcription key: %w", err)
	}

	return row, nil
}

func (s *storage) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM transcription_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcription key: %w", err)
	}
	return nil
}
