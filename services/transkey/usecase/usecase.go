package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/pkg/logger"
	"github.com/meetscribe/backend/services/transkey/entity"
	"github.com/meetscribe/backend/services/transkey/storage"
)

// Vendor mints temporary transcription credentials and exchanges them
// for short-lived access tokens.
type Vendor interface {
	CreateKey(ctx context.Context, comment string, expiresAt time.Time) (VendorKey, error)
	GrantToken(ctx context.Context, projectKey string) (string, error)
}

type VendorKey struct {
	ID  string
	Key string
}

type Usecase interface {
	Get(ctx context.Context, userID string) (*entity.GetKeyResponse, error)
}

type usecase struct {
	storage storage.Storage
	vendor  Vendor
	ttl     time.Duration
	now     func() time.Time
}

func New(storage storage.Storage, vendor Vendor, ttl time.Duration) Usecase {
	return &usecase{
		storage: storage,
		vendor:  vendor,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached vendor key for the user, minting a new one if
// none exists or the cached one has expired. Two concurrent calls may
// both mint; both results are valid, so the race is acceptable.
func (u *usecase) Get(ctx context.Context, userID string) (*entity.GetKeyResponse, error) {
	existing, err := u.storage.FindByUser(ctx, userID)
	if err != nil {
		return nil, apierr.Storage("failed to read transcription key", err)
	}

	if existing != nil {
		if existing.ExpiresAt.After(u.now()) {
			return u.withAccessToken(ctx, existing)
		}
		if err := u.storage.Delete(ctx, existing.ID); err != nil {
			return nil, apierr.Storage("failed to evict expired transcription key", err)
		}
		logger.Debug(ctx, "evicted expired transcription key", "user_id", userID)
	}

	expiresAt := u.now().Add(u.ttl)
	comment := fmt.Sprintf("Temp key for userId: %s", userID)
	minted, err := u.vendor.CreateKey(ctx, comment, expiresAt)
	if err != nil {
		return nil, apierr.Upstream("failed to mint transcription key", err)
	}

	created, err := u.storage.Create(ctx, userID, minted.Key, minted.ID, expiresAt)
	if err != nil {
		return nil, apierr.Storage("failed to store transcription key", err)
	}
	logger.Info(ctx, "minted transcription key", "user_id", userID, "expires_at", expiresAt)

	return u.withAccessToken(ctx, created)
}

func (u *usecase) withAccessToken(ctx context.Context, key *entity.Key) (*entity.GetKeyResponse, error) {
	token, err := u.vendor.GrantToken(ctx, key.Key)
	if err != nil {
		return nil, apierr.Upstream("failed to grant access token", err)
	}

	return &entity.GetKeyResponse{
		Key:         key.Key,
		ExpiresAt:   key.ExpiresAt,
		AccessToken: token,
	}, nil
}
