package twitch

// Config holds Helix application credentials and endpoint overrides.
// APIBase and TokenURL are only overridden in tests.
type Config struct {
	ClientID     string `mapstructure:"client_id" default:""`
	ClientSecret string `mapstructure:"client_secret" default:""`
	APIBase      string `mapstructure:"api_base" default:""`
	TokenURL     string `mapstructure:"token_url" default:""`
}
