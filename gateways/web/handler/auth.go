package handler

import (
	"net/http"

	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/pkg/json"
	"github.com/meetscribe/backend/services/auth/entity"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type registerResponse struct {
	UserID string `json:"userId"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.ParseJSON(r, &req); err != nil {
		json.WriteError(w, apierr.Validation("invalid request body"))
		return
	}

	res, err := h.auth.Register(r.Context(), &entity.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.log.Error("register failed", "error", err)
		json.WriteError(w, err)
		return
	}

	json.WriteData(w, http.StatusOK, registerResponse{UserID: res.UserID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.ParseJSON(r, &req); err != nil {
		json.WriteError(w, apierr.Validation("invalid request body"))
		return
	}

	res, err := h.auth.Login(r.Context(), &entity.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		json.WriteError(w, err)
		return
	}

	json.WriteData(w, http.StatusOK, loginResponse{Token: res.Token})
}
