package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cardnight/tournament-system/handlers"
	"github.com/cardnight/tournament-system/middleware"
	"github.com/cardnight/tournament-system/models"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Player     *handlers.PlayerHandler
	Match      *handlers.MatchHandler
	Tournament *handlers.TournamentHandler
	WebSocket  *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, auth *middleware.Auth) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)
	router.Get("/auth/confirm", h.Auth.ConfirmEmail)

	// Публичные чтения
	router.Get("/players", h.Player.List)
	router.Get("/players/{playerID}", h.Player.GetByID)
	router.Get("/rankings", h.Player.Rankings)
	router.Get("/tournaments", h.Tournament.List)
	router.Get("/tournaments/{tournamentID}", h.Tournament.GetByID)
	router.Get("/matches", h.Match.List)
	router.Get("/matches/{matchID}", h.Match.GetByID)

	// Live-подписки
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.SubscribeTournament)
	router.Get("/ws/rankings", h.WebSocket.SubscribeRankings)

	// Действия участников
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/matches/{matchID}/results", h.Match.SubmitResult)
		r.Post("/tournaments/{tournamentID}/participants", h.Tournament.ActivateParticipant)
	})

	// Админские операции
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.Authorize(string(models.RoleAdmin)))

		r.Post("/players", h.Player.CreatePlayer)
		r.Delete("/players/{playerID}", h.Player.Deactivate)

		r.Post("/tournaments", h.Tournament.Create)
		r.Put("/tournaments/{tournamentID}", h.Tournament.Update)
		r.Post("/tournaments/{tournamentID}/end", h.Tournament.End)
		r.Delete("/tournaments/{tournamentID}", h.Tournament.Delete)
		r.Post("/admin/daily-reset", h.Tournament.DailyReset)
		r.Post("/admin/archive-year/{year}", h.Tournament.ArchiveYear)

		r.Post("/matches", h.Match.Create)
		r.Post("/matches/{matchID}/start", h.Match.Start)
		r.Post("/results/{resultID}/approve", h.Match.Approve)
		r.Post("/matches/{matchID}/direct-result", h.Match.DirectInput)
		r.Patch("/matches/{matchID}", h.Match.Edit)
		r.Post("/matches/{matchID}/invalidate", h.Match.Invalidate)
		r.Post("/matches/{matchID}/cancel", h.Match.Cancel)
		r.Delete("/matches/{matchID}", h.Match.Delete)
	})

	return router
}
