package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mockery-backend/internal/handlers"
	"mockery-backend/internal/middleware"
	"mockery-backend/internal/websocket"
	"mockery-backend/web"
)

func New(
	pageHandler *handlers.PageHandler,
	editHandler *handlers.EditHandler,
	hub *websocket.Hub,
	limiter middleware.Limiter,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(allowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── Browser shell ────
	r.Get("/", web.Index)
	r.Handle("/static/*", http.StripPrefix("/static/", web.Static()))

	// ──── Stored pages ────
	r.Get("/pages/{file}", pageHandler.Content)

	r.Route("/api", func(r chi.Router) {
		r.Get("/pages", pageHandler.List)
		r.Post("/pages", pageHandler.Action)
		r.Get("/version", pageHandler.Version)
		r.Post("/save", pageHandler.Save)
		if hub != nil {
			r.Get("/ws", hub.HandleWebSocket)
		}

		// ──── Model-backed routes (rate limited) ────
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(limiter))
			r.Post("/generate", editHandler.Generate)
			r.Post("/patch", editHandler.Stream)
		})
	})

	return r
}
