package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/meetscribe/backend/pkg/gen"
	"github.com/meetscribe/backend/services/meetings/entity"
)

type Storage interface {
	Migrate(ctx context.Context) error
	Create(ctx context.Context, m *entity.Meeting) error
	// ListByUser returns the user's meetings newest first, without
	// the transcription column. List views never carry transcripts.
	ListByUser(ctx context.Context, userID string) ([]*entity.Meeting, error)
	// GetByIDAndUser returns nil when the meeting does not exist or
	// is owned by someone else; callers cannot tell the two apart.
	GetByIDAndUser(ctx context.Context, id, userID string) (*entity.Meeting, error)
	UpdateSummary(ctx context.Context, id, userID, summary, actionItems string) error
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
		CREATE TABLE IF NOT EXISTS meetings (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			transcription TEXT NOT NULL DEFAULT '',
			summary       TEXT,
			action_items  TEXT,
			video_url     TEXT,
			duration      INTEGER,
			created_at    TIMESTAMPTZ NOT NULL,
			user_id       TEXT NOT NULL REFERENCES users (id)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create meetings table: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS meetings_user_created_idx ON meetings (user_id, created_at DESC)`)
	if err != nil {
		return fmt.Errorf("failed to create meetings index: %w", err)
	}

	return nil
}

func (s *storage) Create(ctx context.Context, m *entity.Meeting) error {
	if m.ID == "" {
		m.ID = s.ids.NextString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (id, title, transcription, summary, action_items, video_url, duration, created_at, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.Title, m.Transcription, m.Summary, m.ActionItems, m.VideoURL, m.Duration, m.CreatedAt, m.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert meeting: %w", err)
	}

	return nil
}

func (s *storage) ListByUser(ctx context.Context, userID string) ([]*entity.Meeting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, summary, action_items, video_url, duration, created_at
		 FROM meetings WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	meetings := make([]*entity.Meeting, 0)
	for rows.Next() {
		m := &entity.Meeting{UserID: userID}
		if err := rows.Scan(&m.ID, &m.Title, &m.Summary, &m.ActionItems, &m.VideoURL, &m.Duration, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting row: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meeting rows: %w", err)
	}

	return meetings, nil
}

func (s *storage) GetByIDAndUser(ctx context.Context, id, userID string) (*entity.Meeting, error) {
	var m entity.Meeting
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, transcription, summary, action_items, video_url, duration, created_at, user_id
		 FROM meetings WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&m.ID, &m.Title, &m.Transcription, &m.Summary, &m.ActionItems, &m.VideoURL, &m.Duration, &m.CreatedAt, &m.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query meeting: %w", err)
	}

	return &m, nil
}

func (s *storage) UpdateSummary(ctx context.Context, id, userID, summary, actionItems string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE meetings SET summary = $1, action_items = $2 WHERE id = $3 AND user_id = $4`,
		summary, actionItems, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update meeting summary: %w", err)
	}
	return nil
}
