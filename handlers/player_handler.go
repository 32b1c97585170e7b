package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardnight/tournament-system/services"
)

type PlayerHandler struct {
	rankingService services.RankingService
	authService    services.AuthService
	logger         *slog.Logger
}

func NewPlayerHandler(rankingService services.RankingService, authService services.AuthService, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{rankingService: rankingService, authService: authService, logger: logger}
}

func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.rankingService.ListPlayers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *PlayerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	player, err := h.rankingService.GetPlayer(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *PlayerHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.rankingService.GetRankings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": rankings}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// CreatePlayer — заведение игрока админом без пароля.
func (h *PlayerHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Nickname string `json:"nickname"`
		Email    string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	player, err := h.authService.CreatePlayer(r.Context(), input.Nickname, input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *PlayerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if err := h.authService.DeactivatePlayer(r.Context(), playerID); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
