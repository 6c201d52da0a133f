package layout

import (
	"strings"

	"guildsmith/core/platform"
)

// The finders are pure name lookups over the guild's current collections.
// Matching is case-sensitive exact equality after trimming; enumeration
// failures are treated as "not found".

// FindRole returns the live role with the given name.
func FindRole(g platform.Guild, name string) (platform.Role, bool) {
	roles, err := g.Roles()
	if err != nil {
		return platform.Role{}, false
	}
	want := strings.TrimSpace(name)
	for _, r := range roles {
		if strings.TrimSpace(r.Name) == want {
			return r, true
		}
	}
	return platform.Role{}, false
}

// FindCategory returns the live category with the given name.
func FindCategory(g platform.Guild, name string) (platform.Category, bool) {
	categories, err := g.Categories()
	if err != nil {
		return platform.Category{}, false
	}
	want := strings.TrimSpace(name)
	for _, c := range categories {
		if strings.TrimSpace(c.Name) == want {
			return c, true
		}
	}
	return platform.Category{}, false
}

// FindChannel returns the live channel whose name matches and whose kind
// belongs to the same class as the requested kind. Announcement channels
// match text lookups, stage channels match voice lookups.
func FindChannel(g platform.Guild, name string, kind platform.ChannelKind) (platform.Channel, bool) {
	channels, err := g.Channels()
	if err != nil {
		return platform.Channel{}, false
	}
	want := strings.TrimSpace(name)
	class := kind.Class()
	for _, ch := range channels {
		if ch.Kind.Class() == class && strings.TrimSpace(ch.Name) == want {
			return ch, true
		}
	}
	return platform.Channel{}, false
}

// FindTextChannel looks up a text-class channel (text or announcement).
func FindTextChannel(g platform.Guild, name string) (platform.Channel, bool) {
	return FindChannel(g, name, platform.KindText)
}

// FindVoiceChannel looks up a voice-class channel (voice or stage).
func FindVoiceChannel(g platform.Guild, name string) (platform.Channel, bool) {
	return FindChannel(g, name, platform.KindVoice)
}

// FindForumChannel looks up a forum channel.
func FindForumChannel(g platform.Guild, name string) (platform.Channel, bool) {
	return FindChannel(g, name, platform.KindForum)
}
