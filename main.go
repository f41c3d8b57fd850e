package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"community-admin/internal"
	"community-admin/internal/config"
	"community-admin/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "community-admin",
	Short: "Back office API for the community website",
	Long: `Back office API for the community website.

Available subcommands:
  serve   - Run the HTTP API
  migrate - Create or update the database schema
  admin   - Manage operator accounts`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration, the logger and the database every subcommand needs
func bootstrap() (*config.Config, logger.Logger, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := internal.OpenDatabase(cfg.Database, cfg.Logger.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create db connection: %w", err)
	}

	return cfg, log, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer internal.CloseDatabase(db)

	if err := internal.Migrate(db); err != nil {
		return err
	}
	log.Info("Database migrations completed successfully")

	internal.InitMetrics()
	if cfg.Logger.LogLevel != config.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	return startServerWithGracefulShutdown(cfg, newEngine(cfg, db, log), log)
}

// newEngine builds the gin engine with middleware and every route registered
func newEngine(cfg *config.Config, db *gorm.DB, log logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(cors.New(corsConfig(cfg.CORS)))

	internal.RegisterRoutes(engine, internal.NewDependencies(db, cfg, log))
	return engine
}

// corsConfig allows credentials only for an explicit origin list. An empty list or
// a "*" entry opens the API to any origin without credentials.
func corsConfig(settings config.CORSSettings) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}

	if len(settings.AllowOrigins) == 0 || slices.Contains(settings.AllowOrigins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = settings.AllowOrigins
	cfg.AllowCredentials = true
	return cfg
}

// startServerWithGracefulShutdown serves until SIGINT or SIGTERM, then drains in-flight requests
func startServerWithGracefulShutdown(cfg *config.Config, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Starting server", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-quit:
		log.Info("Received signal, initiating graceful shutdown", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	log.Info("Shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}
