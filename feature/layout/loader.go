package layout

import (
	"time"

	"guildsmith/core/platform"
	"guildsmith/core/ratelimit"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature wires the layout feature.
func NewFeature(db *gorm.DB, rest platform.RESTLister, resolve GuildResolver, cfg platform.Config, logger *zap.Logger) *Feature {
	store := NewStore(db)
	cooldown := ratelimit.NewCooldown(time.Duration(cfg.SnapshotCooldownSeconds)*time.Second, nil)
	snapshots := NewSnapshotter(rest, cooldown, cfg.AllowRestSnapshot, logger)
	svc := NewService(store, snapshots, resolve, cfg.ApplyTimeout(), logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service exposes the layout service for the CLI commands.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "layout"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
