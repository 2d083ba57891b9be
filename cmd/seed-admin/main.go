package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/senai-mf/aquisicoes-api/internal/models"
	"github.com/senai-mf/aquisicoes-api/internal/repository"
	"github.com/senai-mf/aquisicoes-api/pkg/config"
	"github.com/senai-mf/aquisicoes-api/pkg/database"
)

// Seeds the initial administrator account. Safe to run repeatedly: an
// existing account with the same username is left untouched.
func main() {
	username := envOr("SEED_ADMIN_USERNAME", "admin")
	password := envOr("SEED_ADMIN_PASSWORD", "")
	email := envOr("SEED_ADMIN_EMAIL", "admin@localhost")
	fullName := envOr("SEED_ADMIN_FULL_NAME", "Administrador")

	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	if existing, err := users.FindByUsername(ctx, username); err == nil {
		log.Printf("admin %q already exists (id %s), nothing to do", username, existing.ID)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("failed to check existing admin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	hashStr := string(hash)

	admin := &models.User{
		Username:           username,
		Email:              email,
		FullName:           fullName,
		PasswordHash:       &hashStr,
		NeedsPasswordReset: true,
		IsAdmin:            true,
		Active:             true,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}
	log.Printf("admin %q created (id %s), first login requires a password change", username, admin.ID)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
