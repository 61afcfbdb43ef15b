package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	appauth "github.com/docsched/docsched/internal/auth"
	"github.com/docsched/docsched/internal/config"
	"github.com/docsched/docsched/internal/gcal"
	httpserver "github.com/docsched/docsched/internal/http"
	"github.com/docsched/docsched/internal/notify"
	"github.com/docsched/docsched/internal/schedule"
	"github.com/docsched/docsched/internal/store"
)

func main() {
	log.Println("Starting DocSched server...")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("failed to create db pool: %v", err)
	}
	defer pool.Close()

	if err := store.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	stor := store.New(pool)

	authService, err := appauth.NewService(ctx, cfg, stor.Credentials)
	if err != nil {
		log.Fatalf("failed to initialize auth service: %v", err)
	}

	engine := schedule.NewEngine(
		schedule.Config{
			TimeZone:      cfg.Calendar.TimeZone,
			OperatorEmail: cfg.OperatorEmail,
			SearchTimeout: cfg.Calendar.SearchTimeout,
		},
		authService,
		stor.Audits,
		func(ctx context.Context, tok *oauth2.Token) (gcal.API, error) {
			return gcal.NewClient(ctx, oauth2.StaticTokenSource(tok))
		},
		func(ctx context.Context, tok *oauth2.Token) (schedule.Notifier, error) {
			return notify.NewGmailSender(ctx, oauth2.StaticTokenSource(tok))
		},
	)

	r := httpserver.NewRouter(cfg, stor, engine, authService)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
