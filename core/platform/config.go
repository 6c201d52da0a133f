package platform

// Config holds configuration for the chat platform connection.
type Config struct {
	// Token is the bot token.
	Token string `mapstructure:"token" default:""`
	// EditDelayMillis is the pause after every mutating call.
	EditDelayMillis int `mapstructure:"edit_delay_millis" default:"800"`
	// ApplyTimeoutSeconds bounds one full layout apply run.
	ApplyTimeoutSeconds int `mapstructure:"apply_timeout_seconds" default:"300"`
	// AllowRestSnapshot enables the REST snapshot fallback, which issues
	// direct API enumeration calls with the long-lived bot token.
	AllowRestSnapshot bool `mapstructure:"allow_rest_snapshot" default:"false"`
	// SnapshotCooldownSeconds is the minimum gap between REST snapshots.
	SnapshotCooldownSeconds int `mapstructure:"snapshot_cooldown_seconds" default:"90"`
}
