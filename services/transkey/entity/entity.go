package entity

import "time"

// Key is a cached vendor transcription credential for one user. It is
// not a source of truth; expired rows are deleted at read time and a
// fresh key is minted on demand.
type Key struct {
	ID         string
	UserID     string
	Key        string
	ExternalID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type GetKeyResponse struct {
	Key         string
	ExpiresAt   time.Time
	AccessToken string
}
