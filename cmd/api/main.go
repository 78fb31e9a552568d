package main

import (
	"context"
	"os"

	"github.com/yigit/campusblog/internal/pkg/logger" // Still needed for initial error logging
	"github.com/yigit/campusblog/internal/server"
)

// @title Campus Blog API
// @version 1.0
// @description API for the campus social blogging platform: posts, comments and events

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	// NewServer orchestrates config, logger, database, dependencies and router setup
	srv, err := server.NewServer(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run the server (this blocks until shutdown signal)
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
