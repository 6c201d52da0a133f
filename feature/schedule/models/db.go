package models

import "time"

// Crosswalk row sources: which side a pairing originated from.
const (
	SourceTwitch  = "twitch"
	SourceDiscord = "discord"
	SourceBoth    = "both"
)

// CrosswalkRow links one Twitch schedule segment to one Discord scheduled
// event. Missing sides are stored as empty strings so the uniqueness index
// treats them consistently. Rows are never deleted by the reconciler;
// rows whose both sides have vanished stay dangling.
type CrosswalkRow struct {
	ID              uint   `gorm:"primaryKey"`
	GuildID         string `gorm:"column:guild_id;size:32;index:idx_crosswalk_pair,unique"`
	ExternalEventID string `gorm:"column:external_event_id;size:64;index:idx_crosswalk_pair,unique"`
	NativeEventID   string `gorm:"column:native_event_id;size:32;index:idx_crosswalk_pair,unique"`
	Source          string `gorm:"column:source;size:16"`
	ContentHash     string `gorm:"column:content_hash;size:64"`
	ExternalUpdated string `gorm:"column:external_updated_at;size:40"`
	NativeUpdated   string `gorm:"column:native_updated_at;size:40"`
	LastSyncedAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides the default pluralization.
func (CrosswalkRow) TableName() string {
	return "event_crosswalk"
}

// SyncSettings holds per-guild schedule sync configuration.
type SyncSettings struct {
	ID               uint   `gorm:"primaryKey"`
	GuildID          string `gorm:"column:guild_id;uniqueIndex;size:32"`
	SyncEnabled      bool   `gorm:"column:sync_enabled"`
	BroadcasterID    string `gorm:"column:broadcaster_id;size:64"`
	DefaultChannelID string `gorm:"column:default_channel_id;size:32"`
	Timezone         string `gorm:"column:timezone;size:64"`
	LastSync         time.Time
	LastError        string `gorm:"column:last_error"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides the default pluralization.
func (SyncSettings) TableName() string {
	return "schedule_sync_settings"
}

// TwitchCredential stores the OAuth refresh token for one broadcaster.
type TwitchCredential struct {
	ID            uint   `gorm:"primaryKey"`
	GuildID       string `gorm:"column:guild_id;uniqueIndex;size:32"`
	BroadcasterID string `gorm:"column:broadcaster_id;uniqueIndex;size:64"`
	RefreshToken  string `gorm:"column:refresh_token"`
	UpdatedAt     time.Time
	CreatedAt     time.Time
}

// TableName overrides the default pluralization.
func (TwitchCredential) TableName() string {
	return "twitch_credentials"
}
