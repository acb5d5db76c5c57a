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

	"useradmin/m/internal/api"
	"useradmin/m/internal/auth"
	"useradmin/m/internal/config"
	"useradmin/m/internal/database"
	"useradmin/m/internal/migrations"
	"useradmin/m/internal/seed"
	"useradmin/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DataSourceName())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	if err := migrations.Run(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	users := store.NewUsers(db)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	tokens, err := auth.NewTokens(cfg.Auth.Secret)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	bootstrapAdmin(context.Background(), users, hasher, cfg.Bootstrap)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           api.New(users, hasher, tokens, cfg).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("user admin server starting on :%s", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for signal
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// bootstrapAdmin ensures an admin exists. A failure is logged and the server
// still starts.
func bootstrapAdmin(ctx context.Context, users seed.AdminStore, hasher *auth.Hasher, bc config.BootstrapConfig) bool {
	created, err := seed.EnsureAdmin(ctx, users, hasher, bc.Username, bc.Password)
	if err != nil {
		log.Printf("bootstrap admin: %v", err)
		return false
	}
	if created && bc.Password == config.DefaultAdminPassword {
		log.Printf("WARN: admin %q uses the default password, change it now", bc.Username)
	}
	return created
}
