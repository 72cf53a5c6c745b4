package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	config "github.com/meetscribe/backend/config/web"
	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/pkg/jwt"
	"github.com/meetscribe/backend/pkg/logger"
	"github.com/meetscribe/backend/services/auth/entity"
	"github.com/meetscribe/backend/services/auth/storage"
)

const bcryptCost = 12

type Usecase interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.RegisterResponse, error)
	Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error)
}

type usecase struct {
	cfg     *config.Config
	storage storage.Storage
}

func New(cfg *config.Config, storage storage.Storage) Usecase {
	return &usecase{
		cfg:     cfg,
		storage: storage,
	}
}

func (u *usecase) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.RegisterResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.Validation("email: must be a valid email address")
	}
	if len(req.Password) < 6 {
		return nil, apierr.Validation("password: must be at least 6 characters")
	}

	existing, err := u.storage.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, apierr.Storage("failed to look up user", err)
	}
	if existing != nil {
		return nil, apierr.Validation("user already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := u.storage.CreateUser(ctx, email, string(hash), strings.TrimSpace(req.Name))
	if err != nil {
		return nil, apierr.Storage("failed to create user", err)
	}
	logger.Info(ctx, "user registered", "user_id", user.ID)

	return &entity.RegisterResponse{UserID: user.ID}, nil
}

func (u *usecase) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := u.storage.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, apierr.Storage("failed to look up user", err)
	}
	if user == nil {
		return nil, apierr.Authentication("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierr.Authentication("invalid email or password")
	}

	ttl := time.Duration(u.cfg.JWTTTL) * time.Hour
	token, err := jwt.Issue(user.ID, u.cfg.JWTSecret, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &entity.LoginResponse{Token: token}, nil
}
