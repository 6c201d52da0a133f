package models

import (
	"strings"
)

// Layout is the desired-state document for one guild. Field names follow
// the dashboard payload; the nested category form and the legacy flat
// channel list are mutually exclusive.
type Layout struct {
	Roles      []RoleSpec     `json:"roles"`
	Categories []CategorySpec `json:"categories"`
	Channels   []ChannelSpec  `json:"channels,omitempty"`
	Prune      PruneSpec      `json:"prune"`
	Renames    RenameSpec     `json:"renames"`
	Community  CommunitySpec  `json:"community"`
}

// RoleSpec describes one desired role. A nil Perms map means "preserve the
// live permissions"; an empty non-nil map clears every flag.
type RoleSpec struct {
	Name     string          `json:"name"`
	Color    string          `json:"color,omitempty"`
	Perms    map[string]bool `json:"perms,omitempty"`
	Position *int            `json:"position,omitempty"`
}

// CategorySpec describes one desired category and its child channels.
type CategorySpec struct {
	Name       string                   `json:"name"`
	Position   *int                     `json:"position,omitempty"`
	Overwrites map[string]OverwriteSpec `json:"overwrites,omitempty"`
	Channels   []ChannelSpec            `json:"channels,omitempty"`
}

// ChannelSpec describes one desired channel. Category is the parent
// category name; it is filled in during normalization for nested channels.
type ChannelSpec struct {
	Name       string                   `json:"name"`
	Type       string                   `json:"type"`
	Category   string                   `json:"category,omitempty"`
	Position   *int                     `json:"position,omitempty"`
	Options    ChannelOptions           `json:"options,omitempty"`
	Overwrites map[string]OverwriteSpec `json:"overwrites,omitempty"`
}

// ChannelOptions are the per-channel attributes text-class kinds support.
type ChannelOptions struct {
	Topic    string `json:"topic,omitempty"`
	NSFW     bool   `json:"nsfw,omitempty"`
	Slowmode int    `json:"slowmode,omitempty"`
}

// OverwriteSpec is a role-keyed permission overwrite where each flag is
// "allow", "deny" or "inherit". Unknown values read as inherit.
type OverwriteSpec struct {
	View           string `json:"view,omitempty"`
	Send           string `json:"send,omitempty"`
	Connect        string `json:"connect,omitempty"`
	Speak          string `json:"speak,omitempty"`
	ManageChannels string `json:"manage_channels,omitempty"`
	ManageRoles    string `json:"manage_roles,omitempty"`
}

// PruneSpec gates deletion of live entities absent from the document.
type PruneSpec struct {
	Roles      bool `json:"roles"`
	Categories bool `json:"categories"`
	Channels   bool `json:"channels"`
}

// RenamePair maps a live entity name to its new name.
type RenamePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RenameSpec lists renames applied before any matching, per entity kind.
type RenameSpec struct {
	Roles      []RenamePair `json:"roles,omitempty"`
	Categories []RenamePair `json:"categories,omitempty"`
	Channels   []RenamePair `json:"channels,omitempty"`
}

// CommunitySpec controls community-mode settings during a build.
type CommunitySpec struct {
	EnableOnBuild bool              `json:"enable_on_build"`
	Settings      CommunitySettings `json:"settings,omitempty"`
}

// CommunitySettings names the channels and moderation levels to apply once
// community mode is on. Empty fields are left untouched.
type CommunitySettings struct {
	RulesChannel   string `json:"rules_channel,omitempty"`
	UpdatesChannel string `json:"updates_channel,omitempty"`
	Verification   string `json:"verification,omitempty"`
	Notifications  string `json:"notifications,omitempty"`
	ExplicitFilter string `json:"explicit_filter,omitempty"`
}

// NormalizedChannels returns every desired channel with its Category field
// resolved. Nested category channels win; the legacy flat list is only
// used when no category carries channels.
func (l *Layout) NormalizedChannels() []ChannelSpec {
	var out []ChannelSpec
	for _, cat := range l.Categories {
		for _, ch := range cat.Channels {
			ch.Category = cat.Name
			out = append(out, ch)
		}
	}
	if len(out) > 0 {
		return out
	}
	return l.Channels
}

// ChannelKey is the identity triplet used for matching and pruning.
func ChannelKey(name, kind, category string) string {
	return strings.TrimSpace(name) + "\x00" + strings.TrimSpace(kind) + "\x00" + strings.TrimSpace(category)
}
