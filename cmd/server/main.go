package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"pulsewatch/internal/config"
	"pulsewatch/internal/database"
	"pulsewatch/internal/handlers"
	"pulsewatch/internal/observability"
	"pulsewatch/internal/routes"
	"pulsewatch/internal/services"
	"pulsewatch/internal/store"
)

const version = "1.0.0"

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting pulsewatch collector", "version", version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()
	retention := time.Duration(cfg.RetentionHours) * time.Hour
	sweepInterval := time.Duration(cfg.SweepIntervalSecs) * time.Second

	// ─── Store ───────────────────────────────────────────────────────────
	st, err := openStore(cfg, retention)
	if err != nil {
		slog.Error("Store initialization failed", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// ─── Observability ───────────────────────────────────────────────────
	metrics := observability.NewMetrics(nil)

	// ─── Retention sweeper ───────────────────────────────────────────────
	sweeper := services.NewRetentionSweeper(st, metrics, retention, sweepInterval)
	sweeper.Start()

	// ─── Handlers ────────────────────────────────────────────────────────
	systemDataHandler := handlers.NewSystemDataHandler(st, metrics)

	// ─── Fiber App ───────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "pulsewatch v" + version,
		ServerHeader: "pulsewatch",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/systemdata/health" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ──────────────────────────────────────────────────────────
	routes.Setup(app, systemDataHandler)

	// ─── Graceful Shutdown ───────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down pulsewatch collector...")

		sweeper.Stop()

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if err := st.Close(); err != nil {
			slog.Error("Store close error", "error", err)
		}
	}()

	// ─── Start ───────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("pulsewatch listening", "addr", listenAddr, "store", cfg.StoreDriver)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// openStore builds the configured store backend. The memory backend is the
// default; postgres is opted into via STORE_DRIVER.
func openStore(cfg *config.Config, retention time.Duration) (store.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		return store.NewPostgresStore(db, retention), nil
	default:
		return store.NewMemoryStore(retention), nil
	}
}
