package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/campusblog/internal/app/controllers"
	appMigrations "github.com/yigit/campusblog/internal/app/migrations"
	appRepos "github.com/yigit/campusblog/internal/app/repositories"
	appRoutes "github.com/yigit/campusblog/internal/app/routes"
	appServices "github.com/yigit/campusblog/internal/app/services"
	"github.com/yigit/campusblog/internal/config"
	"github.com/yigit/campusblog/internal/db"
	appMiddleware "github.com/yigit/campusblog/internal/middleware"
	pkgAuth "github.com/yigit/campusblog/internal/pkg/auth"
	"github.com/yigit/campusblog/internal/pkg/helpers"
	"github.com/yigit/campusblog/internal/pkg/logger"
	"github.com/yigit/campusblog/internal/pkg/metrics"
	"github.com/yigit/campusblog/internal/pkg/summarizer"
	"github.com/yigit/campusblog/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	Hasher         *pkgAuth.PasswordHasher
	Dispatcher     *summarizer.Dispatcher
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// ConfigPath returns the configuration file location, overridable with CONFIG_PATH
func ConfigPath() string {
	return config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.Database, error) {
	lgr.Info().Str("driver", cfg.Database.Driver).Msg("Establishing database connection...")
	database, err := db.Open(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database, lgr).Run(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// newMetrics creates the collectors on a dedicated registry that also carries
// the Go runtime and process collectors. It returns nil when metrics are disabled.
func newMetrics(cfg *config.Config) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(cfg.Metrics.Prefix, reg, reg)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.Database, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database)
	deps.Metrics = newMetrics(cfg)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.Hasher = pkgAuth.NewPasswordHasher(pkgAuth.BcryptCost)

	if err := seed.CreateDefaultData(ctx, deps.Repos.UserRepository, deps.Hasher, cfg, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	summ, err := summarizer.New(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize summarizer")
		return nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}
	deps.Dispatcher = summarizer.NewDispatcher(
		summ,
		cfg.Summary.MaxConcurrent,
		helpers.ParseDuration(cfg.Summary.Timeout, 30*time.Second),
		deps.Metrics,
		lgr,
	)
	lgr.Info().Str("provider", cfg.Summary.Provider).Int("maxConcurrent", cfg.Summary.MaxConcurrent).Msg("Summary dispatcher ready")

	deps.Services = appServices.NewServices(appServices.Deps{
		DB:         database,
		Repos:      deps.Repos,
		JWT:        deps.JWTService,
		Hasher:     deps.Hasher,
		Dispatcher: deps.Dispatcher,
		Metrics:    deps.Metrics,
		Logger:     lgr,
	})

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.Services.Auth, lgr)

	deps.Controllers = appRoutes.Controllers{
		Auth:    appControllers.NewAuthController(deps.Services.Auth, lgr),
		User:    appControllers.NewUserController(deps.Services.User, lgr),
		Post:    appControllers.NewPostController(deps.Services.Post, lgr),
		Comment: appControllers.NewCommentController(deps.Services.Comment, lgr),
		Event:   appControllers.NewEventController(deps.Services.Event, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(lgr),
		deps.Metrics.Middleware(),
	)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	if deps.Metrics != nil {
		router.GET(cfg.Metrics.Path, deps.Metrics.Handler())
		lgr.Info().Str("path", cfg.Metrics.Path).Msg("Metrics endpoint enabled")
	}

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
