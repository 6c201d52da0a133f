package platform

import "time"

// ChannelKind identifies the channel variants the layout engine manages.
type ChannelKind string

const (
	KindText         ChannelKind = "text"
	KindAnnouncement ChannelKind = "announcement"
	KindVoice        ChannelKind = "voice"
	KindStage        ChannelKind = "stage"
	KindForum        ChannelKind = "forum"
)

// Class collapses a kind to its matching class: announcement channels are
// looked up among text channels, stage channels among voice channels.
func (k ChannelKind) Class() ChannelKind {
	switch k {
	case KindAnnouncement:
		return KindText
	case KindStage:
		return KindVoice
	case "":
		return KindText
	default:
		return k
	}
}

// SupportsOptions reports whether the kind carries topic/nsfw/slowmode.
func (k ChannelKind) SupportsOptions() bool {
	return k.Class() == KindText
}

// Role is a guild role as seen by the reconcilers.
type Role struct {
	ID       string
	Name     string
	Color    int
	Perms    Permissions
	Position int
	Managed  bool
	Default  bool
}

// Permissions is the named subset of role permission flags the layout
// document can express.
type Permissions struct {
	Administrator  bool
	ManageChannels bool
	ManageRoles    bool
	ViewChannel    bool
	SendMessages   bool
	Connect        bool
	Speak          bool
}

// Category is a channel category.
type Category struct {
	ID       string
	Name     string
	Position int
}

// Channel is a non-category guild channel.
type Channel struct {
	ID       string
	Name     string
	Kind     ChannelKind
	ParentID string
	Position int
	Topic    string
	NSFW     bool
	Slowmode int
}

// TriState is the value of one permission overwrite flag.
type TriState int

const (
	Inherit TriState = iota
	Allow
	Deny
)

// Overwrite is a per-role channel permission overwrite. Zero value means
// every flag inherits.
type Overwrite struct {
	View           TriState
	Send           TriState
	Connect        TriState
	Speak          TriState
	ManageChannels TriState
	ManageRoles    TriState
}

// IsZero reports whether no flag deviates from inherit.
func (o Overwrite) IsZero() bool {
	return o == Overwrite{}
}

// RoleEdit carries optional role mutations; nil fields are left untouched.
type RoleEdit struct {
	Name     *string
	Color    *int
	Perms    *Permissions
	Position *int
}

// CategoryEdit carries optional category mutations.
type CategoryEdit struct {
	Name       *string
	Position   *int
	Overwrites map[string]Overwrite // key: role ID; nil leaves overwrites alone
}

// ChannelCreate describes a channel to create.
type ChannelCreate struct {
	Name       string
	Kind       ChannelKind
	ParentID   string
	Overwrites map[string]Overwrite
}

// ChannelEdit carries optional channel mutations. ParentID distinguishes
// "leave alone" (nil) from "detach from category" (pointer to empty string).
type ChannelEdit struct {
	Name       *string
	ParentID   *string
	Position   *int
	Topic      *string
	NSFW       *bool
	Slowmode   *int
	Kind       *ChannelKind // text<->announcement conversion only
	Overwrites map[string]Overwrite
}

// EventStatus is the lifecycle state of a scheduled event.
type EventStatus string

// ScheduledEvent is a native guild scheduled event.
type ScheduledEvent struct {
	ID          string
	Name        string
	Description string
	Start       time.Time
	End         time.Time
	Status      EventStatus
	ChannelID   string
	Location    string
}

// EventCreate describes a scheduled event to create. A ChannelID binds the
// event to a voice channel; otherwise Location is used as an external venue.
type EventCreate struct {
	Name        string
	Description string
	Start       time.Time
	End         time.Time
	ChannelID   string
	Location    string
}

// EventEdit carries optional scheduled event mutations.
type EventEdit struct {
	Name        *string
	Description *string
	Start       *time.Time
	End         *time.Time
	ChannelID   *string // pointer to empty string switches to external
	Location    *string
}

// CommunityEdit carries optional community settings mutations. Channels are
// referenced by ID; level strings follow the layout document vocabulary.
type CommunityEdit struct {
	RulesChannelID   *string
	UpdatesChannelID *string
	Verification     *string // none, low, medium, high, very_high
	Notifications    *string // all_messages, only_mentions
	ExplicitFilter   *string // disabled, members_without_roles, all_members
}
