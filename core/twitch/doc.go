// Package twitch is a thin client for the Helix schedule endpoints plus
// OAuth refresh-token handling. It covers only what schedule sync needs:
// listing, creating, updating and deleting schedule segments.
package twitch
