// Package config provides configuration management for guildsmith.
//
// It utilizes Viper for loading configuration from environment variables,
// config files (config.yaml), and command-line flags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: SQL connection details
//   - Storage: S3/MinIO credentials and bucket settings
//   - Platform: Gateway token and write pacing
//   - Twitch: Helix API credentials
//   - Sync: Schedule sweep cadence
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
