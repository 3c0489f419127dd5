package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"pulsewatch/internal/ingest"
	"pulsewatch/internal/observability"
	"pulsewatch/internal/query"
	"pulsewatch/internal/store"
)

const (
	defaultWindowHours = 24
	maxWindowHours     = 168
)

// SystemDataHandler serves the /systemdata wire contract: sample ingestion,
// dashboard queries, operator cleanup, and health.
type SystemDataHandler struct {
	store     store.Store
	queries   *query.Engine
	validator *ingest.Validator
	metrics   *observability.Metrics
}

func NewSystemDataHandler(st store.Store, metrics *observability.Metrics) *SystemDataHandler {
	return &SystemDataHandler{
		store:     st,
		queries:   query.New(st),
		validator: ingest.NewValidator(),
		metrics:   metrics,
	}
}

// Ingest handles POST /systemdata. The validator is the only gate: a sample
// that passes is appended unconditionally.
func (h *SystemDataHandler) Ingest(c *fiber.Ctx) error {
	var payload ingest.Payload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   string(ingest.ReasonMissingField),
			"message": "Invalid request body",
		})
	}

	sample, err := h.validator.Validate(&payload)
	if err != nil {
		var rej *ingest.RejectionError
		if errors.As(err, &rej) {
			h.metrics.SamplesRejected.WithLabelValues(string(rej.Reason)).Inc()
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   string(rej.Reason),
				"message": rej.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "InvalidPayload",
			"message": err.Error(),
		})
	}

	if err := h.store.Append(c.Context(), sample); err != nil {
		slog.Error("Sample append failed", "machine", sample.MachineID, "error", err)
		return storeUnavailable(c)
	}

	h.metrics.SamplesIngested.Inc()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":        sample.ID,
			"machineId": sample.MachineID,
			"timestamp": sample.RecordedAt,
		},
	})
}

// Query handles GET /systemdata. Without machineId it returns the
// all-machines view; with machineId, that machine's latest sample and
// windowed history.
func (h *SystemDataHandler) Query(c *fiber.Ctx) error {
	hours, err := parseHours(c.Query("hours"), defaultWindowHours, maxWindowHours)
	if err != nil {
		return invalidHours(c, err)
	}
	window := time.Duration(hours) * time.Hour

	machineID := c.Query("machineId")
	if machineID == "" {
		view, err := h.queries.AllMachines(c.Context(), window)
		if err != nil {
			slog.Error("All-machines query failed", "error", err)
			return storeUnavailable(c)
		}
		return c.JSON(fiber.Map{"success": true, "data": view})
	}

	view, err := h.queries.Machine(c.Context(), machineID, window)
	if err != nil {
		slog.Error("Machine query failed", "machine", machineID, "error", err)
		return storeUnavailable(c)
	}
	return c.JSON(fiber.Map{"success": true, "data": view})
}

// Machines handles GET /systemdata/machines: machine discovery via the
// latest sample per machine.
func (h *SystemDataHandler) Machines(c *fiber.Ctx) error {
	machines, err := h.queries.ListMachines(c.Context())
	if err != nil {
		slog.Error("Machine listing failed", "error", err)
		return storeUnavailable(c)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    machines,
		"count":   len(machines),
	})
}

// Cleanup handles DELETE /systemdata/cleanup: an explicit operator purge of
// samples older than the given number of hours.
func (h *SystemDataHandler) Cleanup(c *fiber.Ctx) error {
	// No upper bound here: purging further back than the retention window is
	// harmless.
	hours, err := parseHours(c.Query("hours"), defaultWindowHours, 0)
	if err != nil {
		return invalidHours(c, err)
	}

	removed, err := h.store.PurgeOlderThan(c.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		slog.Error("Purge failed", "hours", hours, "error", err)
		return storeUnavailable(c)
	}

	h.metrics.SamplesPurged.Add(float64(removed))
	slog.Info("Operator purge completed", "hours", hours, "removed", removed)
	return c.JSON(fiber.Map{
		"success":      true,
		"deletedCount": removed,
	})
}

// Health handles GET /systemdata/health.
func (h *SystemDataHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true})
}

// parseHours validates the hours query parameter: integer, >= 1, and at most
// max when max is positive. An empty value falls back to def.
func parseHours(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("hours must be an integer")
	}
	if hours < 1 {
		return 0, errors.New("hours must be at least 1")
	}
	if max > 0 && hours > max {
		return 0, errors.New("hours must be at most " + strconv.Itoa(max))
	}
	return hours, nil
}

func invalidHours(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "QueryParameterInvalid",
		"message": err.Error(),
	})
}

func storeUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "StoreUnavailable",
		"message": "Storage operation failed",
	})
}
