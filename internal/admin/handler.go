package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"zipier/internal/engine"
	"zipier/internal/metadata"
	"zipier/internal/store"
	"zipier/internal/webhook"
)

type Handler struct {
	store    *store.Store
	registry *metadata.Registry
	log      *zap.Logger
}

func NewHandler(s *store.Store, reg *metadata.Registry, log *zap.Logger) *Handler {
	return &Handler{store: s, registry: reg, log: log.Named("admin")}
}

func RegisterAdminRoutes(app *fiber.App, h *Handler) {
	admin := app.Group("/api/_admin")

	admin.Get("/zips", h.ListZips)
	admin.Get("/zips/:id", h.GetZip)
	admin.Post("/zips", h.CreateZip)
	admin.Put("/zips/:id", h.UpdateZip)
	admin.Delete("/zips/:id", h.DeleteZip)

	admin.Get("/actions", h.ListActions)
	admin.Get("/actions/:id", h.GetAction)
	admin.Post("/actions", h.CreateAction)
	admin.Put("/actions/:id", h.UpdateAction)
	admin.Delete("/actions/:id", h.DeleteAction)

	admin.Get("/schemas/:method", h.GetSchema)
}

type zipInput struct {
	Title  string `json:"title"`
	Notes  string `json:"notes"`
	Active *bool  `json:"active"`
}

type actionInput struct {
	ZipID     string          `json:"zip_id"`
	Title     string          `json:"title"`
	HookType  string          `json:"hook_type"`
	Data      json.RawMessage `json:"data"`
	Condition string          `json:"condition"`
	Position  int             `json:"position"`
}

func errorJSON(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": fiber.Map{"code": code, "message": msg}})
}

func (h *Handler) reload(c *fiber.Ctx) error {
	if err := metadata.Reload(c.UserContext(), h.store, h.registry, h.log); err != nil {
		return fmt.Errorf("reload registry: %w", err)
	}
	return nil
}

// --- Zip Endpoints ---

func (h *Handler) ListZips(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.registry.AllZips()})
}

func (h *Handler) GetZip(c *fiber.Ctx) error {
	id := c.Params("id")
	zip := h.registry.GetZip(id)
	if zip == nil {
		return errorJSON(c, 404, "NOT_FOUND", "Zip not found: "+id)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"zip": zip, "actions": h.registry.ActionsForZip(id)}})
}

func (h *Handler) CreateZip(c *fiber.Ctx) error {
	var in zipInput
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, 400, "INVALID_PAYLOAD", "Invalid JSON body")
	}
	if err := validateZip(&in); err != nil {
		return errorJSON(c, 422, "VALIDATION_FAILED", err.Error())
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	id := uuid.NewString()
	pb := h.store.Dialect.NewParamBuilder()
	_, err := store.Exec(c.UserContext(), h.store.DB,
		fmt.Sprintf("INSERT INTO _zips (id, title, notes, active) VALUES (%s, %s, %s, %s)",
			pb.Add(id), pb.Add(in.Title), pb.Add(in.Notes), pb.Add(active)),
		pb.Params()...)
	if err != nil {
		if errors.Is(h.store.MapError(err), store.ErrUniqueViolation) {
			return errorJSON(c, 409, "CONFLICT", "Zip already exists: "+in.Title)
		}
		return fmt.Errorf("insert zip: %w", err)
	}

	if err := h.reload(c); err != nil {
		return err
	}
	return c.Status(201).JSON(fiber.Map{"data": h.registry.GetZip(id)})
}

func (h *Handler) UpdateZip(c *fiber.Ctx) error {
	id := c.Params("id")
	existing := h.registry.GetZip(id)
	if existing == nil {
		return errorJSON(c, 404, "NOT_FOUND", "Zip not found: "+id)
	}

	var in zipInput
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, 400, "INVALID_PAYLOAD", "Invalid JSON body")
	}
	if err := validateZip(&in); err != nil {
		return errorJSON(c, 422, "VALIDATION_FAILED", err.Error())
	}
	active := existing.Active
	if in.Active != nil {
		active = *in.Active
	}

	pb := h.store.Dialect.NewParamBuilder()
	_, err := store.Exec(c.UserContext(), h.store.DB,
		fmt.Sprintf("UPDATE _zips SET title = %s, notes = %s, active = %s, updated_at = %s WHERE id = %s",
			pb.Add(in.Title), pb.Add(in.Notes), pb.Add(active), h.store.Dialect.NowExpr(), pb.Add(id)),
		pb.Params()...)
	if err != nil {
		if errors.Is(h.store.MapError(err), store.ErrUniqueViolation) {
			return errorJSON(c, 409, "CONFLICT", "Zip already exists: "+in.Title)
		}
		return fmt.Errorf("update zip: %w", err)
	}

	if err := h.reload(c); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.registry.GetZip(id)})
}

func (h *Handler) DeleteZip(c *fiber.Ctx) error {
	id := c.Params("id")
	if h.registry.GetZip(id) == nil {
		return errorJSON(c, 404, "NOT_FOUND", "Zip not found: "+id)
	}

	ctx := c.UserContext()
	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ph := h.store.Dialect.Placeholder(1)
	stmts := []string{
		"DELETE FROM _action_runs WHERE action_id IN (SELECT id FROM _actions WHERE zip_id = " + ph + ")",
		"DELETE FROM _actions WHERE zip_id = " + ph,
		"DELETE FROM _zips WHERE id = " + ph,
	}
	for _, stmt := range stmts {
		if _, err := store.Exec(ctx, tx, stmt, id); err != nil {
			return fmt.Errorf("delete zip %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit zip delete: %w", err)
	}

	if err := h.reload(c); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}

// --- Action Endpoints ---

func (h *Handler) ListActions(c *fiber.Ctx) error {
	if zipID := c.Query("zip_id"); zipID != "" {
		return c.JSON(fiber.Map{"data": h.registry.ActionsForZip(zipID)})
	}
	actions := []*metadata.Action{}
	for _, z := range h.registry.AllZips() {
		actions = append(actions, h.registry.ActionsForZip(z.ID)...)
	}
	return c.JSON(fiber.Map{"data": actions})
}

func (h *Handler) GetAction(c *fiber.Ctx) error {
	id := c.Params("id")
	action := h.registry.GetAction(id)
	if action == nil {
		return errorJSON(c, 404, "NOT_FOUND", "Action not found: "+id)
	}
	return c.JSON(fiber.Map{"data": action})
}

func (h *Handler) CreateAction(c *fiber.Ctx) error {
	var in actionInput
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, 400, "INVALID_PAYLOAD", "Invalid JSON body")
	}
	if err := validateAction(&in, h.registry); err != nil {
		return errorJSON(c, 422, "VALIDATION_FAILED", err.Error())
	}

	id := uuid.NewString()
	pb := h.store.Dialect.NewParamBuilder()
	_, err := store.Exec(c.UserContext(), h.store.DB,
		fmt.Sprintf(`INSERT INTO _actions (id, zip_id, title, hook_type, data, condition, position)
		 VALUES (%s, %s, %s, %s, %s, %s, %s)`,
			pb.Add(id), pb.Add(in.ZipID), pb.Add(in.Title), pb.Add(in.HookType),
			pb.Add(string(in.Data)), pb.Add(in.Condition), pb.Add(in.Position)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}

	if err := h.reload(c); err != nil {
		return err
	}
	return c.Status(201).JSON(fiber.Map{"data": h.registry.GetAction(id)})
}

func (h *Handler) UpdateAction(c *fiber.Ctx) error {
	id := c.Params("id")
	existing := h.registry.GetAction(id)
	if existing == nil {
		return errorJSON(c, 404, "NOT_FOUND", "Action not found: "+id)
	}

	var in actionInput
	if err := c.BodyParser(&in); err != nil {
		return errorJSON(c, 400, "INVALID_PAYLOAD", "Invalid JSON body")
	}
	if in.ZipID == "" {
		in.ZipID = existing.ZipID
	}
	if err := validateAction(&in, h.registry); err != nil {
		return errorJSON(c, 422, "VALIDATION_FAILED", err.Error())
	}

	pb := h.store.Dialect.NewParamBuilder()
	_, err := store.Exec(c.UserContext(), h.store.DB,
		fmt.Sprintf(`UPDATE _actions SET zip_id = %s, title = %s, hook_type = %s, data = %s, condition = %s,
		 position = %s, updated_at = %s WHERE id = %s`,
			pb.Add(in.ZipID), pb.Add(in.Title), pb.Add(in.HookType), pb.Add(string(in.Data)),
			pb.Add(in.Condition), pb.Add(in.Position), h.store.Dialect.NowExpr(), pb.Add(id)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("update action: %w", err)
	}

	if err := h.reload(c); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.registry.GetAction(id)})
}

func (h *Handler) DeleteAction(c *fiber.Ctx) error {
	id := c.Params("id")
	if h.registry.GetAction(id) == nil {
		return errorJSON(c, 404, "NOT_FOUND", "Action not found: "+id)
	}

	_, err := store.Exec(c.UserContext(), h.store.DB,
		"DELETE FROM _actions WHERE id = "+h.store.Dialect.Placeholder(1), id)
	if err != nil {
		return fmt.Errorf("delete action %s: %w", id, err)
	}

	if err := h.reload(c); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}

// --- Schema Endpoint ---

// GetSchema serves the editor schema for a hook type (get, post or put).
func (h *Handler) GetSchema(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": webhook.Schema(webhook.ParseMethod(c.Params("method")))})
}

// --- Validation ---

func validateZip(z *zipInput) error {
	z.Title = strings.TrimSpace(z.Title)
	if z.Title == "" {
		return fmt.Errorf("zip title is required")
	}
	return nil
}

func validateAction(a *actionInput, reg *metadata.Registry) error {
	if a.ZipID == "" {
		return fmt.Errorf("zip_id is required")
	}
	if reg.GetZip(a.ZipID) == nil {
		return fmt.Errorf("zip not found: %s", a.ZipID)
	}
	if strings.TrimSpace(a.Title) == "" {
		a.Title = metadata.DefaultActionTitle
	}

	method := webhook.ParseMethod(a.HookType)
	if !method.Valid() {
		return fmt.Errorf("invalid hook_type: %q (must be get, post or put)", a.HookType)
	}
	a.HookType = method.HookType()

	if len(a.Data) == 0 {
		return fmt.Errorf("data is required")
	}
	cfg, err := webhook.ParseConfig(a.HookType, a.Data)
	if err != nil {
		return fmt.Errorf("data must be valid JSON")
	}
	if _, ok := cfg.Tree.(*webhook.Mapping); !ok {
		return fmt.Errorf("data must be a JSON object")
	}
	if cfg.URL() == "" {
		return fmt.Errorf("data.url is required")
	}

	if a.Condition != "" {
		if _, err := engine.CompileCondition(a.Condition); err != nil {
			return fmt.Errorf("invalid condition: %w", err)
		}
	}
	return nil
}
