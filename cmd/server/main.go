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

	"webchat-backend/internal/config"
	"webchat-backend/internal/handlers"
	"webchat-backend/internal/router"
	"webchat-backend/internal/services"
)

func main() {
	log.Println("Starting webchat backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Inference Client ────
	inferenceService := services.NewInferenceService(cfg)
	if cfg.UsingGateway() {
		log.Println("✓ Inference client initialized (moderation gateway routing enabled)")
	} else {
		log.Println("✓ Inference client initialized (direct upstream, no gateway)")
	}

	// ──── Step 3: Initialize Handlers & Router ────
	chatHandler := handlers.NewChatHandler(inferenceService)
	r := router.New(chatHandler, cfg.StaticDir, cfg.FrontendURL)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: chat responses are long-lived SSE streams.
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

	log.Printf("✓ Webchat backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/chat", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
