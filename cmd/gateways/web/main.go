package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/meetscribe/backend/clients/blob"
	"github.com/meetscribe/backend/clients/deepgram"
	"github.com/meetscribe/backend/clients/openai"
	config "github.com/meetscribe/backend/config/web"
	web "github.com/meetscribe/backend/gateways/web"
	"github.com/meetscribe/backend/gateways/web/handler"
	"github.com/meetscribe/backend/pkg/gen"
	"github.com/meetscribe/backend/pkg/logger"
	authStorage "github.com/meetscribe/backend/services/auth/storage"
	authUsecase "github.com/meetscribe/backend/services/auth/usecase"
	meetingsStorage "github.com/meetscribe/backend/services/meetings/storage"
	meetingsUsecase "github.com/meetscribe/backend/services/meetings/usecase"
	transkeyStorage "github.com/meetscribe/backend/services/transkey/storage"
	transkeyUsecase "github.com/meetscribe/backend/services/transkey/usecase"
)

func main() {
	log := logger.New(logger.Config{
		Level:      slog.LevelDebug,
		Output:     os.Stderr,
		AddSource:  true,
		JSONFormat: false,
	})

	cfg := config.MustLoad()

	ctx := logger.WithContext(context.Background(), log)

	rootCtx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	if err := run(rootCtx, cfg, log); err != nil {
		log.Error("failed to run()", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Name,
		cfg.Database.Password,
		cfg.Database.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	ids := gen.UUID()

	authStg := authStorage.New(db, ids)
	meetingsStg := meetingsStorage.New(db, ids)
	keysStg := transkeyStorage.New(db, ids)
	for _, migrate := range []func(context.Context) error{
		authStg.Migrate, meetingsStg.Migrate, keysStg.Migrate,
	} {
		if err := migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	dg := deepgram.New(cfg.Deepgram.APIKey, cfg.Deepgram.ProjectID, cfg.Deepgram.BaseURL, cfg.Deepgram.BatchModel)
	completion := openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	blobStore := blob.New(cfg.Blob.Token, cfg.Blob.BaseURL)

	authUsc := authUsecase.New(cfg, authStg)
	meetingsUsc := meetingsUsecase.New(meetingsStg, blobStore, dg, meetingsUsecase.NewSummarizer(completion))
	keysUsc := transkeyUsecase.New(keysStg, deepgramVendor{dg}, time.Duration(cfg.Deepgram.KeyTTLMins)*time.Minute)

	h := handler.New(cfg, authUsc, meetingsUsc, keysUsc, log)
	srv := web.New(cfg, h, log)

	return srv.Start(ctx)
}

// deepgramVendor adapts the deepgram client to the transkey vendor
// interface.
type deepgramVendor struct {
	client *deepgram.Client
}

func (v deepgramVendor) CreateKey(ctx context.Context, comment string, expiresAt time.Time) (transkeyUsecase.VendorKey, error) {
	key, err := v.client.CreateKey(ctx, comment, expiresAt)
	if err != nil {
		return transkeyUsecase.VendorKey{}, err
	}
	return transkeyUsecase.VendorKey{ID: key.ID, Key: key.Key}, nil
}

func (v deepgramVendor) GrantToken(ctx context.Context, projectKey string) (string, error) {
	return v.client.GrantToken(ctx, projectKey)
}
