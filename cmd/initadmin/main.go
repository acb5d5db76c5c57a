// Command initadmin creates an admin account with an operator supplied
// password, using the same database settings as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"useradmin/m/domain"
	"useradmin/m/internal/auth"
	"useradmin/m/internal/config"
	"useradmin/m/internal/database"
	"useradmin/m/internal/migrations"
	"useradmin/m/internal/store"
)

func main() {
	username := flag.String("username", config.DefaultAdminUsername, "admin username")
	password := flag.String("password", "", "admin password (required)")
	flag.Parse()

	name := domain.NormalizeUsername(*username)
	if name == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}
	if len(*password) > auth.MaxPasswordBytes {
		log.Fatalf("password must be at most %d bytes", auth.MaxPasswordBytes)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DataSourceName())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	hashed, err := auth.NewHasher(cfg.Auth.BcryptCost).Hash(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	id, err := store.NewUsers(db).Create(context.Background(), name, hashed, domain.RoleAdmin)
	if errors.Is(err, store.ErrUsernameTaken) {
		log.Fatalf("user %q already exists", name)
	}
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("admin %q created (id %d)", name, id)
}
