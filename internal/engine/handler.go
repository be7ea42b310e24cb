package engine

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"zipier/internal/metadata"
	"zipier/internal/store"
)

const (
	defaultRunsLimit = 50
	maxRunsLimit     = 500
)

type Handler struct {
	store    *store.Store
	registry *metadata.Registry
	runner   *Runner
}

func NewHandler(s *store.Store, reg *metadata.Registry, runner *Runner) *Handler {
	return &Handler{store: s, registry: reg, runner: runner}
}

// RunAction handles POST /api/actions/:id/run
func (h *Handler) RunAction(c *fiber.Ctx) error {
	input, err := parseInput(c)
	if err != nil {
		return err
	}

	outcome, err := h.runner.RunAction(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": outcome})
}

// RunZip handles POST /api/zips/:id/run
func (h *Handler) RunZip(c *fiber.Ctx) error {
	input, err := parseInput(c)
	if err != nil {
		return err
	}

	outcomes, err := h.runner.RunZip(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": outcomes})
}

// ListRuns handles GET /api/actions/:id/runs
func (h *Handler) ListRuns(c *fiber.Ctx) error {
	id := c.Params("id")
	if h.registry.GetAction(id) == nil {
		return NotFoundError("Action", id)
	}

	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return ValidationError([]ErrorDetail{{Field: "limit", Rule: "positive_integer", Message: "limit must be a positive integer"}})
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := ListRuns(c.UserContext(), h.store.DB, h.store.Dialect, id, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": runs})
}

// parseInput decodes the optional JSON trigger input of a run request.
func parseInput(c *fiber.Ctx) (any, error) {
	body := c.Body()
	if len(body) == 0 {
		return nil, nil
	}
	var input any
	if err := json.Unmarshal(body, &input); err != nil {
		return nil, NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	return input, nil
}
