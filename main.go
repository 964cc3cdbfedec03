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

	"github.com/nimser/chatstream/internal/chat"
	"github.com/nimser/chatstream/internal/config"
	"github.com/nimser/chatstream/internal/policy"
	"github.com/nimser/chatstream/internal/provider"
	"github.com/nimser/chatstream/internal/store"
	"github.com/nimser/chatstream/internal/tools"
	api "github.com/nimser/chatstream/internal/transport/http"
	"github.com/nimser/chatstream/internal/transport/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting chatstream...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM URL: %s", cfg.LLMBaseURL)
	log.Printf("Model: %s", cfg.Model)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize provider client
	llmClient := provider.New(cfg.Mode, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize service
	svc := chat.New(db, llmClient, policyEngine, tools.DefaultRegistry, cfg)

	// Initialize live observer hub
	hub := ws.NewHub()
	go hub.Run()
	wsServer := ws.NewServer(hub)

	// Create Echo server
	h := api.NewHandler(svc, hub)
	e := api.NewServer(h, wsServer)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down chatstream...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Chatstream stopped")
}
