package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/services/transkey/entity"
)

type fakeStorage struct {
	key     *entity.Key
	deleted []string
}

func (f *fakeStorage) Migrate(ctx context.Context) error { return nil }

func (f *fakeStorage) FindByUser(ctx context.Context, userID string) (*entity.Key, error) {
	if f.key != nil && f.key.UserID == userID {
		return f.key, nil
	}
	return nil, nil
}

func (f *fakeStorage) Create(ctx context.Context, userID, key, externalID string, expiresAt time.Time) (*entity.Key, error) {
	f.key = &entity.Key{
		ID:         "k-1",
		UserID:     userID,
		Key:        key,
		ExternalID: externalID,
		ExpiresAt:  expiresAt,
	}
	return f.key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	if f.key != nil && f.key.ID == id {
		f.key = nil
	}
	return nil
}

type fakeVendor struct {
	minted      int
	createErr   error
	grantErr    error
	lastComment string
}

func (f *fakeVendor) CreateKey(ctx context.Context, comment string, expiresAt time.Time) (VendorKey, error) {
	if f.createErr != nil {
		return VendorKey{}, f.createErr
	}
	f.minted++
	f.lastComment = comment
	return VendorKey{ID: "ext-1", Key: "secret-key"}, nil
}

func (f *fakeVendor) GrantToken(ctx context.Context, projectKey string) (string, error) {
	if f.grantErr != nil {
		return "", f.grantErr
	}
	return "access-" + projectKey, nil
}

func newTestUsecase(store *fakeStorage, vendor *fakeVendor, now time.Time) Usecase {
	u := New(store, vendor, time.Hour).(*usecase)
	u.now = func() time.Time { return now }
	return u
}

func TestGetMintsWhenMissing(t *testing.T) {
	now := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
	store := &fakeStorage{}
	vendor := &fakeVendor{}
	u := newTestUsecase(store, vendor, now)

	resp, err := u.Get(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, "secret-key", resp.Key)
	assert.Equal(t, now.Add(time.Hour), resp.ExpiresAt)
	assert.Equal(t, "access-secret-key", resp.AccessToken)
	assert.Equal(t, "Temp key for userId: u-1", vendor.lastComment)
}

func TestGetReusesValidKey(t *testing.T) {
	now := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
	store := &fakeStorage{key: &entity.Key{
		ID:        "k-0",
		UserID:    "u-1",
		Key:       "cached-key",
		ExpiresAt: now.Add(30 * time.Minute),
	}}
	vendor := &fakeVendor{}
	u := newTestUsecase(store, vendor, now)

	resp, err := u.Get(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, "cached-key", resp.Key)
	assert.Zero(t, vendor.minted)
}

func TestGetReplacesExpiredKey(t *testing.T) {
	now := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
	store := &fakeStorage{key: &entity.Key{
		ID:        "k-0",
		UserID:    "u-1",
		Key:       "stale-key",
		ExpiresAt: now.Add(-time.Minute),
	}}
	vendor := &fakeVendor{}
	u := newTestUsecase(store, vendor, now)

	resp, err := u.Get(context.Background(), "u-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"k-0"}, store.deleted)
	assert.Equal(t, 1, vendor.minted)
	assert.Equal(t, "secret-key", resp.Key)
}

func TestGetVendorFailure(t *testing.T) {
	now := time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)
	store := &fakeStorage{}
	vendor := &fakeVendor{createErr: errors.New("project quota exceeded")}
	u := newTestUsecase(store, vendor, now)

	_, err := u.Get(context.Background(), "u-1")

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindUpstream))
}
