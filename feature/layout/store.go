package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"guildsmith/feature/layout/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a guild has no stored layout.
var ErrNotFound = errors.New("layout: no stored layout")

// Store persists versioned layout documents per guild.
type Store struct {
	db *gorm.DB
}

// NewStore creates a layout store over the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load returns the preferred layout for a guild: the active row if one
// exists, otherwise the highest version.
func (s *Store) Load(ctx context.Context, guildID string) (*models.Layout, *models.LayoutRow, error) {
	var row models.LayoutRow
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("CASE WHEN type = 'active' THEN 0 ELSE 1 END, version DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load layout: %w", err)
	}

	var layout models.Layout
	if err := json.Unmarshal(row.Payload, &layout); err != nil {
		return nil, nil, fmt.Errorf("decode layout v%d: %w", row.Version, err)
	}
	return &layout, &row, nil
}

// LoadVersion returns one specific stored version.
func (s *Store) LoadVersion(ctx context.Context, guildID string, version int) (*models.Layout, *models.LayoutRow, error) {
	var row models.LayoutRow
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND version = ?", guildID, version).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load layout v%d: %w", version, err)
	}

	var layout models.Layout
	if err := json.Unmarshal(row.Payload, &layout); err != nil {
		return nil, nil, fmt.Errorf("decode layout v%d: %w", version, err)
	}
	return &layout, &row, nil
}

// Save stores a layout as a new version. When the document is structurally
// equal to the latest stored version the save is a no-op and the existing
// version is returned with noChange true. The version bump and insert run
// in one transaction.
func (s *Store) Save(ctx context.Context, guildID string, layout *models.Layout, markActive bool) (version int, noChange bool, err error) {
	payload, err := json.Marshal(layout)
	if err != nil {
		return 0, false, fmt.Errorf("encode layout: %w", err)
	}

	var latest models.LayoutRow
	err = s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("version DESC").
		First(&latest).Error
	if err == nil {
		same, cmpErr := structurallyEqual(latest.Payload, payload)
		if cmpErr == nil && same {
			return latest.Version, true, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("load latest layout: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if markActive {
			if err := tx.Model(&models.LayoutRow{}).
				Where("guild_id = ? AND type = ?", guildID, models.TypeActive).
				Update("type", models.TypeSnapshot).Error; err != nil {
				return err
			}
		}

		var next struct{ Next int }
		if err := tx.Model(&models.LayoutRow{}).
			Select("COALESCE(MAX(version), 0) + 1 AS next").
			Where("guild_id = ?", guildID).
			Scan(&next).Error; err != nil {
			return err
		}

		rowType := models.TypeSnapshot
		if markActive {
			rowType = models.TypeActive
		}
		version = next.Next
		return tx.Create(&models.LayoutRow{
			GuildID: guildID,
			Version: version,
			Type:    rowType,
			Payload: payload,
		}).Error
	})
	if err != nil {
		return 0, false, fmt.Errorf("save layout: %w", err)
	}
	return version, false, nil
}

// Versions lists all stored versions for a guild, newest first.
func (s *Store) Versions(ctx context.Context, guildID string) ([]models.LayoutRow, error) {
	var rows []models.LayoutRow
	err := s.db.WithContext(ctx).
		Select("id", "guild_id", "version", "type", "created_at").
		Where("guild_id = ?", guildID).
		Order("version DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list layout versions: %w", err)
	}
	return rows, nil
}

// structurallyEqual compares two JSON documents independent of field order.
func structurallyEqual(a, b []byte) (bool, error) {
	var left, right any
	if err := json.Unmarshal(a, &left); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, &right); err != nil {
		return false, err
	}
	canonLeft, err := json.Marshal(left)
	if err != nil {
		return false, err
	}
	canonRight, err := json.Marshal(right)
	if err != nil {
		return false, err
	}
	return string(canonLeft) == string(canonRight), nil
}
