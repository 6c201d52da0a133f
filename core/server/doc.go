// Package server holds configuration for the HTTP surface of the bot:
// the listen port and the API key protecting the dashboard endpoints.
package server
