package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"webchat-backend/internal/handlers"
	"webchat-backend/internal/middleware"
)

func New(chatHandler *handlers.ChatHandler, staticDir, frontendURL string) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", handlers.Health)

	// ──── API Routes ────
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chatHandler.Chat)

		r.NotFound(handlers.NotFound)
		r.MethodNotAllowed(handlers.MethodNotAllowed)
	})

	// Everything else is a static asset (the chat front-end).
	r.Handle("/*", http.FileServer(http.Dir(staticDir)))

	return r
}
