package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pulsewatch/internal/handlers"
)

func Setup(app *fiber.App, systemData *handlers.SystemDataHandler) {
	// ─── System data ─────────────────────────────────────────────────────
	app.Get("/systemdata/health", systemData.Health)
	app.Get("/systemdata/machines", systemData.Machines)
	app.Delete("/systemdata/cleanup", systemData.Cleanup)
	app.Get("/systemdata", systemData.Query)
	app.Post("/systemdata", systemData.Ingest)

	// ─── Observability ───────────────────────────────────────────────────
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
