package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hackdayhq/hackathon-system/handlers"
	"github.com/hackdayhq/hackathon-system/middleware"
)

// Config carries everything the router needs from the wiring layer.
type Config struct {
	IdentityHeader string
	JWTSecret      []byte
}

func SetupRoutes(
	router *chi.Mux,
	cfg Config,
	authHandler *handlers.AuthHandler,
	registrationHandler *handlers.RegistrationHandler,
	teamHandler *handlers.TeamHandler,
	relocationHandler *handlers.RelocationHandler,
	rosterHandler *handlers.RosterHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cfg.IdentityHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Attendee routes: identity is injected by the fronting auth proxy.
	router.Group(func(r chi.Router) {
		r.Use(middleware.Identity(cfg.IdentityHeader))
		r.Post("/register", registrationHandler.Register)
		r.Get("/profile", registrationHandler.GetProfile)
	})

	// Public dashboard data.
	router.Get("/roster", rosterHandler.Overview)
	router.Get("/teams", teamHandler.List)
	router.Get("/ws", webSocketHandler.Serve)

	router.Post("/admin/login", authHandler.Login)

	// Admin-only mutations.
	router.Group(func(r chi.Router) {
		r.Use(middleware.AdminOnly(cfg.JWTSecret))
		r.Post("/teams", teamHandler.Create)
		r.Delete("/teams/{teamID}", teamHandler.Delete)
		r.Post("/teams/{teamID}/badge", teamHandler.UploadBadge)
		r.Post("/relocations/move", relocationHandler.Move)
		r.Post("/relocations/reshuffle", relocationHandler.Reshuffle)
	})
}
