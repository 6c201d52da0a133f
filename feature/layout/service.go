package layout

import (
	"context"
	"time"

	"guildsmith/core/logger"
	"guildsmith/core/platform"
	"guildsmith/feature/layout/models"

	"go.uber.org/zap"
)

// GuildResolver binds a guild ID to a platform handle. The bot session
// implements it; tests supply fakes.
type GuildResolver func(guildID string) (platform.Guild, error)

// Service ties the store, snapshotter and applier together for the HTTP
// handler and the CLI commands.
type Service struct {
	store      *Store
	snapshots  *Snapshotter
	resolve    GuildResolver
	applyLimit time.Duration
	logger     *zap.Logger
}

// NewService creates a layout service. applyLimit bounds one apply run.
func NewService(store *Store, snapshots *Snapshotter, resolve GuildResolver, applyLimit time.Duration, logger *zap.Logger) *Service {
	if applyLimit <= 0 {
		applyLimit = 300 * time.Second
	}
	return &Service{
		store:      store,
		snapshots:  snapshots,
		resolve:    resolve,
		applyLimit: applyLimit,
		logger:     logger,
	}
}

// Live snapshots the guild's current structure into a layout document.
func (s *Service) Live(ctx context.Context, guildID string) (*models.Layout, error) {
	guild, err := s.resolve(guildID)
	if err != nil {
		return nil, err
	}
	return s.snapshots.Best(ctx, guild)
}

// Stored returns the preferred stored layout for a guild.
func (s *Service) Stored(ctx context.Context, guildID string) (*models.Layout, *models.LayoutRow, error) {
	return s.store.Load(ctx, guildID)
}

// Save stores a layout document, returning the resulting version and
// whether the save was a structural no-op.
func (s *Service) Save(ctx context.Context, guildID string, layout *models.Layout, markActive bool) (int, bool, error) {
	return s.store.Save(ctx, guildID, layout, markActive)
}

// Versions lists stored layout versions for a guild.
func (s *Service) Versions(ctx context.Context, guildID string) ([]models.LayoutRow, error) {
	return s.store.Versions(ctx, guildID)
}

// Snapshot persists the current live structure as a new stored version.
func (s *Service) Snapshot(ctx context.Context, guildID string, markActive bool) (int, bool, error) {
	doc, err := s.Live(ctx, guildID)
	if err != nil {
		return 0, false, err
	}
	return s.store.Save(ctx, guildID, doc, markActive)
}

// Apply reconciles the guild against its preferred stored layout. The run
// is bounded by the configured apply limit.
func (s *Service) Apply(ctx context.Context, guildID string, opts ApplyOptions) (*ApplyReport, error) {
	layout, row, err := s.store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	guild, err := s.resolve(guildID)
	if err != nil {
		return nil, err
	}

	l := logger.WithGuild(s.logger, guildID)
	l.Info("Applying layout",
		zap.Int("version", row.Version),
		zap.Bool("build_mode", opts.BuildMode))

	runCtx, cancel := context.WithTimeout(ctx, s.applyLimit)
	defer cancel()
	return NewApplier(guild, l).Apply(runCtx, layout, opts)
}
