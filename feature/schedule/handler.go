package schedule

import (
	"errors"

	"guildsmith/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for schedule sync.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the schedule routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/schedule")
	group.Post("/:guildID/sync", h.HandleSyncNow)
	group.Put("/:guildID/settings", h.HandleUpdateSettings)
	group.Get("/:guildID/status", h.HandleGetStatus)
}

// HandleSyncNow triggers one sync pass for a guild.
// @Summary Sync Guild Schedule
// @Description Run one bidirectional sync pass for a guild now.
// @Tags schedule
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {object} map[string]interface{} "Sync result"
// @Failure 409 {object} map[string]string "Sync not configured"
// @Router /schedule/{guildID}/sync [post]
func (h *Handler) HandleSyncNow(c *fiber.Ctx) error {
	guildID := c.Params("guildID")
	l := logger.WithRayID(h.service.logger, c)

	if err := h.service.SyncNow(c.Context(), guildID); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "sync not configured for this guild",
			})
		}
		l.Error("Manual sync failed", zap.String("guild_id", guildID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleUpdateSettings applies a partial settings update.
// @Summary Update Sync Settings
// @Description Enable/disable sync and set broadcaster, channel or timezone.
// @Tags schedule
// @Accept json
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {object} models.SyncSettings "Updated settings"
// @Failure 400 {object} map[string]string "Malformed body"
// @Router /schedule/{guildID}/settings [put]
func (h *Handler) HandleUpdateSettings(c *fiber.Ctx) error {
	guildID := c.Params("guildID")
	l := logger.WithRayID(h.service.logger, c)

	var update SettingsUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed settings update",
		})
	}

	settings, err := h.service.UpdateSettings(c.Context(), guildID, update)
	if err != nil {
		l.Error("Settings update failed", zap.String("guild_id", guildID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(settings)
}

// HandleGetStatus returns a guild's sync settings and last outcome.
// @Summary Get Sync Status
// @Description Get sync settings, last run time and last error for a guild.
// @Tags schedule
// @Produce json
// @Param guildID path string true "Guild ID"
// @Success 200 {object} models.SyncSettings "Sync status"
// @Failure 404 {object} map[string]string "Not configured"
// @Router /schedule/{guildID}/status [get]
func (h *Handler) HandleGetStatus(c *fiber.Ctx) error {
	guildID := c.Params("guildID")
	l := logger.WithRayID(h.service.logger, c)

	settings, err := h.service.Status(c.Context(), guildID)
	if errors.Is(err, ErrNotConfigured) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "sync not configured for this guild",
		})
	}
	if err != nil {
		l.Error("Status load failed", zap.String("guild_id", guildID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(settings)
}
