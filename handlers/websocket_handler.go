package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/cardnight/tournament-system/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Отдельной проверки Origin нет: доступ ограничивает CORS на роутере.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// SubscribeTournament подписывает соединение на события турнира.
func (h *WebSocketHandler) SubscribeTournament(w http.ResponseWriter, r *http.Request) {
	h.subscribe(w, r, chi.URLParam(r, "tournamentID"))
}

// SubscribeRankings подписывает соединение на общие события рейтинга.
func (h *WebSocketHandler) SubscribeRankings(w http.ResponseWriter, r *http.Request) {
	h.subscribe(w, r, live.RankingsRoom)
}

func (h *WebSocketHandler) subscribe(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	client := live.NewClient(h.hub, conn, room)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}
