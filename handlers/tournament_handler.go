package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cardnight/tournament-system/models"
	"github.com/cardnight/tournament-system/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	logger            *slog.Logger
}

func NewTournamentHandler(tournamentService services.TournamentService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService, logger: logger}
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name            string  `json:"name"`
		Date            string  `json:"date"`
		StartTime       string  `json:"start_time"`
		Location        *string `json:"location"`
		Type            string  `json:"type"`
		Description     *string `json:"description"`
		MaxParticipants int     `json:"max_participants"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	tournament, err := h.tournamentService.Create(r.Context(), services.CreateTournamentInput{
		Name:            input.Name,
		Date:            input.Date,
		StartTime:       input.StartTime,
		Location:        input.Location,
		Type:            input.Type,
		Description:     input.Description,
		MaxParticipants: input.MaxParticipants,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name            *string `json:"name"`
		Date            *string `json:"date"`
		StartTime       *string `json:"start_time"`
		Location        *string `json:"location"`
		Type            *string `json:"type"`
		Description     *string `json:"description"`
		MaxParticipants *int    `json:"max_participants"`
		Status          *string `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	update := services.UpdateTournamentInput{
		Name:            input.Name,
		Date:            input.Date,
		StartTime:       input.StartTime,
		Location:        input.Location,
		Type:            input.Type,
		Description:     input.Description,
		MaxParticipants: input.MaxParticipants,
	}
	if input.Status != nil {
		status := models.TournamentStatus(*input.Status)
		update.Status = &status
	}
	tournament, err := h.tournamentService.Update(r.Context(), chi.URLParam(r, "tournamentID"), update)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *TournamentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetByID(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *TournamentHandler) End(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.End(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tournamentService.Delete(r.Context(), chi.URLParam(r, "tournamentID")); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) ActivateParticipant(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerID string `json:"player_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.tournamentService.ActivateParticipant(r.Context(), chi.URLParam(r, "tournamentID"), input.PlayerID); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DailyReset — ручной запуск ночного сброса (обычно его делает планировщик).
func (h *TournamentHandler) DailyReset(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tournamentService.ResetAllTournamentActive(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}

// ArchiveYear — ручной запуск закрытия сезона.
func (h *TournamentHandler) ArchiveYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	summary, err := h.tournamentService.ArchiveYear(r.Context(), year)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary}); err != nil {
		serverErrorResponse(w, h.logger, err)
	}
}
