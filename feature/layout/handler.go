package layout

import (
	"errors"

	"guildsmith/core/logger"
	"guildsmith/feature/layout/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for layouts.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the layout routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/layout")
	group.Get("/:guildID/live", h.HandleGetLive)
	group.Get("/:guildID/versions", h.HandleGetVersions)
	group.Get("/:guildID", h.HandleGetStored)
	group.Post("/:guildID", h.HandleSave)
}

// HandleGetLive snapshots the guild's current structure.
// @Summary Get Live Layout
// @Description Serialize the guild's current roles, categories and channels.
// @Tags layout
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {object} models.Layout "Live layout"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /layout/{guildID}/live [get]
func (h *Handler) HandleGetLive(c *fiber.Ctx) error {
	guildID := c.Params("guildID")
	l := logger.WithRayID(h.service.logger, c)

	doc, err := h.service.Live(c.Context(), guildID)
	if err != nil {
		l.Error("Live snapshot failed", zap.String("guild_id", guildID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(doc)
}

// HandleGetStored returns the preferred stored layout.
// @Summary Get Stored Layout
// @Description Get the active (or latest) stored layout for a guild.
// @Tags layout
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {object} models.Layout "Stored layout"
// @Failure 404 {object} map[string]string "No stored layout"
// @Router /layout/{guildID} [get]
func (h *Handler) HandleGetStored(c *fiber.Ctx) error {
	guildID := c.Params("guildID")
	l := logger.WithRayID(h.service.logger, c)

	doc, row, err := h.service.Stored(c.Context(), guildID)
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no stored layout",
		})
	}
	if err != nil {
		l.Error("Stored layout load failed", zap.String("guild_id", guildID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"version": row.Version,
		"type":    row.Type,
		"layout":  doc,
	})
}

// HandleSave stores a layout document as a new version.
// @Summary Save Layout
// @Description Save a layout; structurally identical documents are a no-op.
// @Tags layout
// @Accept json
// @Produce json
// @Param guildID path string true "Guild ID"
// @Param activate query bool false "Mark the new version active"
// @Success 200 {object} map[string]interface{} "Save result"
// @Failure 400 {object} map[string]string "Malformed layout"
// @Router /layout/{guildID} [post]
func (h *Handler) HandleSave(c *fiber.Ctx) error {
	guildID := c.Params("guildID")
	l := logger.WithRayID(h.service.logger, c)

	var doc models.Layout
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed layout document",
		})
	}

	version, noChange, err := h.service.Save(c.Context(), guildID, &doc, c.QueryBool("activate"))
	if err != nil {
		l.Error("Layout save failed", zap.String("guild_id", guildID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"ok":        true,
		"version":   version,
		"no_change": noChange,
	})
}

// HandleGetVersions lists stored layout versions.
// @Summary List Layout Versions
// @Description List all stored layout versions for a guild, newest first.
// @Tags layout
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {array} map[string]interface{} "Versions"
// @Router /layout/{guildID}/versions [get]
func (h *Handler) HandleGetVersions(c *fiber.Ctx) error {
	guildID := c.Params("guildID")
	l := logger.WithRayID(h.service.logger, c)

	rows, err := h.service.Versions(c.Context(), guildID)
	if err != nil {
		l.Error("Version list failed", zap.String("guild_id", guildID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	out := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		out = append(out, fiber.Map{
			"version":    row.Version,
			"type":       row.Type,
			"created_at": row.CreatedAt,
		})
	}
	return c.JSON(out)
}
