// Package schedule keeps a broadcaster's Twitch schedule and a guild's
// native scheduled events bidirectionally in sync.
//
// Both sides are normalized into one canonical event shape and digested
// into a content hash. A persistent crosswalk table pairs segments with
// events; each sync pass resolves every row fresh from live data, so the
// row "state" (consistent, divergent, half-resolved, dangling) is always
// recomputed and a crash mid-pass just means the next pass retries.
//
// Divergent pairs resolve by last-write-wins on the updated timestamps,
// with the native side winning ties. Events with no crosswalk row are
// fuzzy-matched by normalized title and a 30 minute start window before a
// missing counterpart is created.
//
// The Sweeper runs passes for every enabled guild sequentially on a fixed
// interval; a guild's failure is recorded in its settings row and never
// blocks the rest of the sweep.
package schedule
