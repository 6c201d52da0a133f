package schedule

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	sweeper *Sweeper
	handler *Handler
}

// NewFeature wires the schedule sync feature.
func NewFeature(db *gorm.DB, resolve GuildResolver, api StreamAPI, sweepInterval time.Duration, logger *zap.Logger) *Feature {
	store := NewStore(db)
	reconciler := NewReconciler(store, resolve, api, logger)
	svc := NewService(store, reconciler, logger)
	return &Feature{
		service: svc,
		sweeper: NewSweeper(reconciler, sweepInterval, logger),
		handler: NewHandler(svc),
	}
}

// Service exposes the schedule service for the CLI commands.
func (f *Feature) Service() *Service {
	return f.service
}

// Sweeper exposes the periodic sweeper for the start command.
func (f *Feature) Sweeper() *Sweeper {
	return f.sweeper
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "schedule"
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
