package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cardnight/tournament-system/services"
)

type AuthHandler struct {
	authService services.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Nickname string `json:"nickname"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	player, err := h.authService.Register(r.Context(), services.RegisterInput{
		Nickname: input.Nickname,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	token, player, err := h.authService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token, "player": player}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	player, err := h.authService.ConfirmEmail(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}
