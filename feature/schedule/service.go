package schedule

import (
	"context"
	"errors"

	"guildsmith/feature/schedule/models"

	"go.uber.org/zap"
)

// Service exposes schedule sync to the HTTP handler and CLI commands.
type Service struct {
	store      *Store
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewService creates a schedule service.
func NewService(store *Store, reconciler *Reconciler, logger *zap.Logger) *Service {
	return &Service{store: store, reconciler: reconciler, logger: logger}
}

// SyncNow runs one sync pass for a single guild.
func (s *Service) SyncNow(ctx context.Context, guildID string) error {
	return s.reconciler.SyncGuild(ctx, guildID)
}

// Sweep runs one full sweep across all enabled guilds.
func (s *Service) Sweep(ctx context.Context) error {
	return s.reconciler.Sweep(ctx)
}

// Status returns a guild's current sync settings.
func (s *Service) Status(ctx context.Context, guildID string) (*models.SyncSettings, error) {
	return s.store.SettingsFor(ctx, guildID)
}

// SettingsUpdate carries the fields a settings update may change.
type SettingsUpdate struct {
	SyncEnabled      *bool   `json:"sync_enabled,omitempty"`
	BroadcasterID    *string `json:"broadcaster_id,omitempty"`
	DefaultChannelID *string `json:"default_channel_id,omitempty"`
	Timezone         *string `json:"timezone,omitempty"`
}

// UpdateSettings applies a partial settings update, creating the row when
// the guild has none yet.
func (s *Service) UpdateSettings(ctx context.Context, guildID string, update SettingsUpdate) (*models.SyncSettings, error) {
	settings, err := s.store.SettingsFor(ctx, guildID)
	if errors.Is(err, ErrNotConfigured) {
		settings = &models.SyncSettings{GuildID: guildID}
	} else if err != nil {
		return nil, err
	}

	if update.SyncEnabled != nil {
		settings.SyncEnabled = *update.SyncEnabled
	}
	if update.BroadcasterID != nil {
		settings.BroadcasterID = *update.BroadcasterID
	}
	if update.DefaultChannelID != nil {
		settings.DefaultChannelID = *update.DefaultChannelID
	}
	if update.Timezone != nil {
		settings.Timezone = *update.Timezone
	}

	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
