package entity

import "time"

// Meeting is one recorded or manually submitted meeting. Rows are
// exclusively owned by one user; every read and write is scoped by
// UserID.
type Meeting struct {
	ID            string
	Title         string
	Transcription string
	Summary       *string
	ActionItems   *string
	VideoURL      *string
	Duration      *int
	CreatedAt     time.Time
	UserID        string
}

type CreateMeetingRequest struct {
	Title         string
	Transcription string
	Duration      *int
	Video         []byte
	VideoType     string
}

type SummaryResponse struct {
	Summary     string
	ActionItems string
}
