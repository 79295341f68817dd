// Command migrate applies the versioned schema migrations and exits.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"expense-chat/internal/database"
	"expense-chat/internal/logger"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Log.Fatal().Msg("DATABASE_URL is not set")
	}

	pool, err := database.Connect(ctx, dsn)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := database.SeedCategories(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed categories")
	}

	logger.Log.Info().Msg("Migrations applied successfully")
}
