package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"zipier/internal/admin"
	"zipier/internal/config"
	"zipier/internal/engine"
	"zipier/internal/logger"
	"zipier/internal/metadata"
	"zipier/internal/store"
	"zipier/internal/webhook"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./app.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load .env and config
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Logger
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Info("config loaded",
		zap.Int("port", cfg.Server.Port),
		zap.String("driver", cfg.Database.Driver),
		zap.String("database", cfg.Database.Name),
	)

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// 3. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 4. Bootstrap system tables
	if err := db.Bootstrap(ctx, log); err != nil {
		return err
	}

	// 5. Create registry and load zips and actions
	reg := metadata.NewRegistry()
	if err := metadata.LoadAll(ctx, db, reg, log); err != nil {
		log.Warn("failed to load metadata", zap.Error(err))
	}

	// 6. Webhook compiler and runner
	compiler := webhook.NewCompiler(log,
		webhook.WithTimeout(cfg.Webhook.Timeout),
		webhook.WithUserAgent(cfg.Webhook.UserAgent),
	)
	runner := engine.NewRunner(db, reg, compiler, log)

	// 7. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          engine.ErrorHandler(log),
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.FiberMiddleware(log.Named("http")))

	// 8. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 9. Register admin routes
	admin.RegisterAdminRoutes(app, admin.NewHandler(db, reg, log))

	// 10. Register run routes
	engine.RegisterRunRoutes(app, engine.NewHandler(db, reg, runner))

	// 11. Start server
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("starting server", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
