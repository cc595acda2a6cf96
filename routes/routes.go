package routes

import (
	"github.com/ctfboard/ctfboard/handlers"
	"github.com/ctfboard/ctfboard/middleware"
	"github.com/ctfboard/ctfboard/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	authService *services.AdminAuthService,
	authHandler *handlers.AuthHandler,
	scoreboardHandler *handlers.ScoreboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public scoreboard surface.
	router.Get("/scoreboard", scoreboardHandler.GetScoreboard)
	router.Get("/scoreboard/replay", scoreboardHandler.GetReplay)
	router.Get("/state", scoreboardHandler.GetState)
	router.Get("/ws/{room}", webSocketHandler.ServeWs)

	// Operator endpoints.
	router.Route("/admin", func(r chi.Router) {
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(authService))
			r.Use(middleware.Authorize("admin"))

			r.Post("/refresh", scoreboardHandler.Refresh)
			r.Post("/mirror", scoreboardHandler.MirrorContent)
			r.Get("/awards", scoreboardHandler.GetAwardHistory)
		})
	})
}
