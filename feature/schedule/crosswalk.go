package schedule

import (
	"context"
	"errors"
	"fmt"

	"guildsmith/feature/schedule/models"

	"gorm.io/gorm"
)

// ErrNotConfigured marks a guild missing sync settings or credentials.
var ErrNotConfigured = errors.New("schedule: sync not configured")

// Store persists crosswalk rows, sync settings and Twitch credentials.
type Store struct {
	db *gorm.DB
}

// NewStore creates a schedule store over the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RowsForGuild returns every crosswalk row for a guild.
func (s *Store) RowsForGuild(ctx context.Context, guildID string) ([]models.CrosswalkRow, error) {
	var rows []models.CrosswalkRow
	err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load crosswalk: %w", err)
	}
	return rows, nil
}

// SaveRow inserts or updates one crosswalk row.
func (s *Store) SaveRow(ctx context.Context, row *models.CrosswalkRow) error {
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("save crosswalk row: %w", err)
	}
	return nil
}

// SettingsFor returns the sync settings for one guild.
func (s *Store) SettingsFor(ctx context.Context, guildID string) (*models.SyncSettings, error) {
	var settings models.SyncSettings
	err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("load sync settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings inserts or updates a guild's sync settings.
func (s *Store) SaveSettings(ctx context.Context, settings *models.SyncSettings) error {
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("save sync settings: %w", err)
	}
	return nil
}

// EnabledGuilds lists sync settings for every guild with sync turned on.
func (s *Store) EnabledGuilds(ctx context.Context) ([]models.SyncSettings, error) {
	var out []models.SyncSettings
	err := s.db.WithContext(ctx).Where("sync_enabled = ?", true).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list enabled guilds: %w", err)
	}
	return out, nil
}

// CredentialFor returns the Twitch credential for one guild.
func (s *Store) CredentialFor(ctx context.Context, guildID string) (*models.TwitchCredential, error) {
	var cred models.TwitchCredential
	err := s.db.WithContext(ctx).Where("guild_id = ?", guildID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &cred, nil
}

// RefreshTokenFor implements twitch.TokenSource.
func (s *Store) RefreshTokenFor(ctx context.Context, broadcasterID string) (string, error) {
	var cred models.TwitchCredential
	err := s.db.WithContext(ctx).Where("broadcaster_id = ?", broadcasterID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotConfigured
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	return cred.RefreshToken, nil
}

// StoreRefreshToken implements twitch.TokenSource, persisting a rotated
// refresh token.
func (s *Store) StoreRefreshToken(ctx context.Context, broadcasterID, refreshToken string) error {
	err := s.db.WithContext(ctx).Model(&models.TwitchCredential{}).
		Where("broadcaster_id = ?", broadcasterID).
		Update("refresh_token", refreshToken).Error
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}
