package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"snapshot-catalog/core/config"
	"snapshot-catalog/core/database"
	"snapshot-catalog/core/loader"
	"snapshot-catalog/core/logger"
	"snapshot-catalog/core/middleware/auth"
	"snapshot-catalog/core/middleware/rayid"
	"snapshot-catalog/core/storage"

	"snapshot-catalog/feature/catalog"
	"snapshot-catalog/feature/health"
	"snapshot-catalog/feature/scanner"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the snapshot catalog server",
	Long:  `Starts the HTTP server, connects to the catalog database, and launches the background snapshot scanner.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to catalog database", zap.Error(err))
		}
		logg.Info("Connected to catalog database")

		// 4. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		// 6. Build Features
		catalogFeature := catalog.NewFeature(db, logg)
		if err := catalogFeature.Repository().Migrate(); err != nil {
			logg.Fatal("Failed to migrate catalog schema", zap.Error(err))
		}
		if err := catalogFeature.Repository().VerifySchema(); err != nil {
			logg.Fatal("Catalog schema verification failed", zap.Error(err))
		}

		scannerFeature := scanner.NewFeature(store, cfg.Storage.Bucket, catalogFeature.Repository(), cfg.Scanner, logg)

		mgr := loader.NewManager()
		mgr.Register(catalogFeature)
		mgr.Register(scannerFeature)

		// Middleware Registration
		// RayID must come first so everything downstream can trace.
		app.Use(rayid.New())

		// Request logging with Zap + RayID
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Health stays reachable without credentials, so it registers ahead
		// of auth.
		health.NewHandler(db, scannerFeature.Gateway(), logg).RegisterRoutes(app)

		// Auth protects the rest of the API.
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 7. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 8. Start the background scanner
		status := scannerFeature.Scheduler().Start()
		logg.Info("Scanner scheduler", zap.String("status", status.Status), zap.String("message", status.Message))

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = scannerFeature.Scheduler().Stop()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
