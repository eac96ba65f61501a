package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/riseai/rise-chat/internal/config"
	"github.com/riseai/rise-chat/internal/handler"
	"github.com/riseai/rise-chat/internal/model/user"
	"github.com/riseai/rise-chat/internal/service/ai"
	"github.com/riseai/rise-chat/internal/service/history"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	userStore := user.NewMemoryStore(user.Seed())
	historyService := history.NewService()
	responder := newResponder(ctx, cfg.AI)

	router := handler.NewRouter(userStore, historyService, responder, cfg.Server.CORSOrigins)

	startServer(ctx, cfg.Server, router)
}

// newResponder prefers the model-backed responder and falls back to canned replies.
func newResponder(ctx context.Context, aiCfg config.AIConfig) ai.Responder {
	if !aiCfg.Enabled() {
		log.Println("Ark credentials not configured, using simulated responses")
		return ai.NewSimulator()
	}

	svc, err := ai.NewService(ctx, aiCfg)
	if err != nil {
		log.Printf("warning: failed to initialize AI service: %v", err)
		log.Println("continuing with simulated responses")
		return ai.NewSimulator()
	}

	log.Println("AI service initialized successfully")
	return svc
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Rise AI development backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
