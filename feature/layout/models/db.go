package models

import (
	"time"

	"gorm.io/datatypes"
)

// Row types distinguishing the single active layout from plain snapshots.
const (
	TypeActive   = "active"
	TypeSnapshot = "snapshot"
)

// LayoutRow is one stored layout version for a guild.
type LayoutRow struct {
	ID        uint           `gorm:"primaryKey"`
	GuildID   string         `gorm:"column:guild_id;index:idx_guild_version,unique;size:32"`
	Version   int            `gorm:"column:version;index:idx_guild_version,unique"`
	Type      string         `gorm:"column:type;size:16"`
	Payload   datatypes.JSON `gorm:"column:payload"`
	CreatedAt time.Time
}

// TableName overrides the default pluralization.
func (LayoutRow) TableName() string {
	return "guild_layouts"
}
