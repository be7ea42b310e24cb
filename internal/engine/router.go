package engine

import "github.com/gofiber/fiber/v2"

func RegisterRunRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	api.Post("/actions/:id/run", h.RunAction)
	api.Get("/actions/:id/runs", h.ListRuns)
	api.Post("/zips/:id/run", h.RunZip)
}
