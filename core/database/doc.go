// Package database manages the persistent document store connection.
//
// It opens a GORM connection for one of three drivers: postgres (the
// production deployment), mysql, or sqlite (development and tests).
// Connection pooling and an initial ping with timeout are applied
// uniformly regardless of driver.
//
// Schema is owned by the feature model packages; Migrate runs GORM
// AutoMigrate over all of them in one place so the start command and
// the CLI subcommands share identical schema handling.
package database
