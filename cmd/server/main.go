package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mockery-backend/internal/completion"
	"mockery-backend/internal/config"
	"mockery-backend/internal/database"
	"mockery-backend/internal/handlers"
	"mockery-backend/internal/middleware"
	"mockery-backend/internal/repository"
	"mockery-backend/internal/router"
	"mockery-backend/internal/services"
	"mockery-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Mockery...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Open Page Store ────
	pageRepo, err := repository.NewPageRepo(cfg.PagesDir)
	if err != nil {
		log.Fatalf("✗ Page store initialization failed: %v", err)
	}
	log.Printf("✓ Page store ready at %s", cfg.PagesDir)

	// ──── Step 3: Initialize Rate Limiter & Update Hub ────
	var limiter middleware.Limiter
	var hub *websocket.Hub
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		limiter = middleware.NewRedisLimiter(redisClient, "mockery:ratelimit", cfg.RateLimit, time.Minute)
		hub = websocket.NewHub(redisClient)
		log.Printf("✓ Redis rate limiter and pub/sub connected (%d req/min)", cfg.RateLimit)
	} else {
		memLimiter := middleware.NewMemoryLimiter(cfg.RateLimit, time.Minute)
		defer memLimiter.Close()
		limiter = memLimiter
		hub = websocket.NewHub(nil)
		log.Printf("✓ In-memory rate limiter ready (%d req/min)", cfg.RateLimit)
	}
	defer hub.Close()
	pageRepo.OnChange(hub.PageChanged)

	// ──── Step 4: Initialize Completion Client ────
	llm, err := completion.New(context.Background(), completion.Options{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey(),
		Model:    cfg.LLMModel(),
		APIURL:   cfg.ClaudeAPIURL,
	})
	if err != nil {
		log.Fatalf("✗ Completion client initialization failed: %v", err)
	}
	defer llm.Close()
	log.Printf("✓ %s completion client initialized (model %s)", llm.Name(), cfg.LLMModel())

	// ──── Initialize Services & Handlers ────
	pageService := services.NewPageService(pageRepo)
	editorService := services.NewEditorService(pageRepo, llm, cfg.MaxOutputTokens, cfg.CompletionTimeout)

	pageHandler := handlers.NewPageHandler(pageService)
	editHandler := handlers.NewEditHandler(editorService)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(pageHandler, editHandler, hub, limiter, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// A streamed edit may run a patch call and a fallback call.
		WriteTimeout: 2*cfg.CompletionTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Mockery ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
