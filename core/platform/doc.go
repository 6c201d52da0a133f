// Package platform defines the capability surface the reconciliation
// engines require from the chat platform, and implements it over the
// discordgo client library.
//
// The Guild interface exposes exactly the operations the layout applier
// and event reconciler consume: enumeration of roles, categories and
// channels; create/edit/delete per entity kind; bulk role repositioning;
// community settings; and scheduled events. Keeping the surface explicit
// lets the engines be tested against in-memory fakes.
//
// # Write pacing
//
// Every mutation runs through a Mutator: a fixed post-write delay keeps
// large applies under the platform's abuse-rate radar, and transient
// failures (429, 5xx, edge block pages) are retried with capped
// exponential backoff. Permission denials are surfaced as ErrPermission
// so callers can skip the entity and continue the stage.
package platform
