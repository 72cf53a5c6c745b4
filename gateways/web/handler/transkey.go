package handler

import (
	"net/http"
	"time"

	"github.com/meetscribe/backend/pkg/json"
)

type transcriptionKeyResponse struct {
	Key         string    `json:"key"`
	ExpiresAt   time.Time `json:"expiresAt"`
	AccessToken string    `json:"accessToken"`
}

// GetTranscriptionKey returns the user's cached vendor credential,
// minting a fresh one when none exists or the cached one expired.
func (h *Handler) GetTranscriptionKey(w http.ResponseWriter, r *http.Request) {
	res, err := h.keys.Get(r.Context(), userIDFrom(r))
	if err != nil {
		h.log.Error("transcription key fetch failed", "error", err)
		json.WriteError(w, err)
		return
	}

	json.WriteData(w, http.StatusOK, transcriptionKeyResponse{
		Key:         res.Key,
		ExpiresAt:   res.ExpiresAt,
		AccessToken: res.AccessToken,
	})
}
