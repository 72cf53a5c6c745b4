package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	config "github.com/meetscribe/backend/config/web"
	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/pkg/jwt"
	"github.com/meetscribe/backend/services/auth/entity"
)

type fakeStorage struct {
	users map[string]*entity.User
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{users: make(map[string]*entity.User)}
}

func (f *fakeStorage) Migrate(ctx context.Context) error { return nil }

func (f *fakeStorage) CreateUser(ctx context.Context, email, passwordHash, name string) (*entity.User, error) {
	user := &entity.User{
		ID:           "u-1",
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
	}
	f.users[email] = user
	return user, nil
}

func (f *fakeStorage) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return f.users[email], nil
}

func (f *fakeStorage) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTTTL: 1}
}

func TestRegisterValidation(t *testing.T) {
	u := New(testConfig(), newFakeStorage())

	tests := []struct {
		name string
		req  entity.RegisterRequest
	}{
		{"empty email", entity.RegisterRequest{Email: "", Password: "secret1"}},
		{"malformed email", entity.RegisterRequest{Email: "not-an-email", Password: "secret1"}},
		{"short password", entity.RegisterRequest{Email: "a@b.com", Password: "12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := u.Register(context.Background(), &tt.req)
			require.Error(t, err)
			assert.True(t, apierr.IsKind(err, apierr.KindValidation))
		})
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	store := newFakeStorage()
	u := New(testConfig(), store)

	resp, err := u.Register(context.Background(), &entity.RegisterRequest{
		Email:    "  Alice@Example.COM ",
		Password: "secret1",
		Name:     " Alice ",
	})

	require.NoError(t, err)
	assert.Equal(t, "u-1", resp.UserID)
	user := store.users["alice@example.com"]
	require.NotNil(t, user)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEqual(t, "secret1", user.PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	store := newFakeStorage()
	store.users["a@b.com"] = &entity.User{ID: "u-1", Email: "a@b.com"}
	u := New(testConfig(), store)

	_, err := u.Register(context.Background(), &entity.RegisterRequest{Email: "a@b.com", Password: "secret1"})

	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.KindValidation))
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	store := newFakeStorage()
	store.users["a@b.com"] = &entity.User{ID: "u-1", Email: "a@b.com", PasswordHash: string(hash)}
	cfg := testConfig()
	u := New(cfg, store)

	t.Run("success", func(t *testing.T) {
		resp, err := u.Login(context.Background(), &entity.LoginRequest{Email: "A@B.com", Password: "secret1"})
		require.NoError(t, err)

		userID, err := jwt.ParseUserID(context.Background(), resp.Token, cfg.JWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "u-1", userID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := u.Login(context.Background(), &entity.LoginRequest{Email: "a@b.com", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, apierr.IsKind(err, apierr.KindAuthentication))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := u.Login(context.Background(), &entity.LoginRequest{Email: "nobody@b.com", Password: "secret1"})
		require.Error(t, err)
		assert.True(t, apierr.IsKind(err, apierr.KindAuthentication))
	})
}
