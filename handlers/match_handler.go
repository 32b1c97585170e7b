package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardnight/tournament-system/middleware"
	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
	logger       *slog.Logger
}

func NewMatchHandler(matchService services.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matchService: matchService, logger: logger}
}

func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TournamentID string `json:"tournament_id"`
		Player1ID    string `json:"player1_id"`
		Player2ID    string `json:"player2_id"`
		GameType     string `json:"game_type"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matchService.Create(r.Context(), input.TournamentID, input.Player1ID, input.Player2ID, models.GameType(input.GameType))
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	var tournamentID *string
	if v := r.URL.Query().Get("tournament_id"); v != "" {
		tournamentID = &v
	}
	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *MatchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	match, err := h.matchService.GetByID(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	match, err := h.matchService.Start(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// SubmitResult — самоотчёт участника о своём исходе.
func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		unauthorizedResponse(w, "authentication required")
		return
	}
	var input struct {
		Result string `json:"result"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	result, err := h.matchService.SubmitResult(r.Context(), chi.URLParam(r, "matchID"), claims.UserID, models.ReportedOutcome(input.Result))
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": result}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// Approve — решение админа по висящему результату.
func (h *MatchHandler) Approve(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		unauthorizedResponse(w, "authentication required")
		return
	}
	var input struct {
		Approved bool `json:"approved"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matchService.Approve(r.Context(), chi.URLParam(r, "resultID"), claims.UserID, input.Approved)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// DirectInput — админ вводит итог матча напрямую, минуя самоотчёты.
func (h *MatchHandler) DirectInput(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		unauthorizedResponse(w, "authentication required")
		return
	}
	var input struct {
		WinnerID string `json:"winner_id"`
		LoserID  string `json:"loser_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matchService.AdminDirectInput(r.Context(), chi.URLParam(r, "matchID"), input.WinnerID, input.LoserID, claims.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *MatchHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WinnerID *string `json:"winner_id"`
		GameType *string `json:"game_type"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	var gameType *models.GameType
	if input.GameType != nil {
		gt := models.GameType(*input.GameType)
		gameType = &gt
	}
	match, err := h.matchService.Edit(r.Context(), chi.URLParam(r, "matchID"), input.WinnerID, gameType)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *MatchHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matchService.Invalidate(r.Context(), chi.URLParam(r, "matchID"), input.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	match, err := h.matchService.Cancel(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.matchService.DeleteScheduled(r.Context(), chi.URLParam(r, "matchID")); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
