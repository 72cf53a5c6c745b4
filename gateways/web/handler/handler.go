package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	config "github.com/meetscribe/backend/config/web"
	authUsecase "github.com/meetscribe/backend/services/auth/usecase"
	meetingsUsecase "github.com/meetscribe/backend/services/meetings/usecase"
	transkeyUsecase "github.com/meetscribe/backend/services/transkey/usecase"
)

type Handler struct {
	cfg      *config.Config
	auth     authUsecase.Usecase
	meetings meetingsUsecase.Usecase
	keys     transkeyUsecase.Usecase
	log      *slog.Logger
}

func New(cfg *config.Config, auth authUsecase.Usecase, meetings meetingsUsecase.Usecase, keys transkeyUsecase.Usecase, log *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		auth:     auth,
		meetings: meetings,
		keys:     keys,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Register)
			auth.Post("/login", h.Login)
		})

		api.Group(func(private chi.Router) {
			private.Use(h.RequireAuth)
			private.Route("/meetings", func(meetings chi.Router) {
				meetings.Get("/", h.ListMeetings)
				meetings.Post("/", h.CreateMeeting)
				meetings.Get("/{id}", h.GetMeeting)
				meetings.Post("/{id}/summary", h.GenerateSummary)
			})
			private.Get("/transcription-key", h.GetTranscriptionKey)
		})
	})
}
