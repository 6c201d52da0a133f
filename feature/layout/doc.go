// Package layout reconciles a guild's roles, categories and channels
// against a declarative layout document.
//
// A layout document describes the desired state: roles with colors and
// named permission flags, categories with child channels and role-keyed
// permission overwrites, rename lists applied before matching, per-kind
// prune flags and community settings. Documents are versioned per guild;
// at most one version is marked active and is preferred by the applier.
//
// The applier walks a fixed stage order (renames, roles, categories,
// channels, ordering, community, prune), matching entities purely by name
// after trimming. Per-entity failures are collected into an ApplyReport
// and never abort a stage; the whole run is bounded by a caller-supplied
// deadline and mutations issued before expiry stand.
//
// The snapshotter produces the same document shape from a live guild,
// preferring the gateway state cache and falling back to REST enumeration
// behind an explicit flag and a cooldown. The archive copies stored
// versions to object storage and restores them as new versions.
package layout
