package layout

import (
	"fmt"
	"strconv"
	"strings"

	"guildsmith/core/platform"
)

// Permission flag names used by the layout document.
const (
	permAdmin          = "admin"
	permManageChannels = "manage_channels"
	permManageRoles    = "manage_roles"
	permViewChannel    = "view_channel"
	permSendMessages   = "send_messages"
	permConnect        = "connect"
	permSpeak          = "speak"
)

// permsFromSpec maps the document's named flag set onto platform
// permissions. "administrator" is accepted as an alias for "admin";
// other unknown names are ignored.
func permsFromSpec(spec map[string]bool) platform.Permissions {
	var p platform.Permissions
	for name, on := range spec {
		switch name {
		case permAdmin, "administrator":
			p.Administrator = on
		case permManageChannels:
			p.ManageChannels = on
		case permManageRoles:
			p.ManageRoles = on
		case permViewChannel:
			p.ViewChannel = on
		case permSendMessages:
			p.SendMessages = on
		case permConnect:
			p.Connect = on
		case permSpeak:
			p.Speak = on
		}
	}
	return p
}

// permsToSpec serializes platform permissions into the document flag map.
func permsToSpec(p platform.Permissions) map[string]bool {
	return map[string]bool{
		permAdmin:          p.Administrator,
		permManageChannels: p.ManageChannels,
		permManageRoles:    p.ManageRoles,
		permViewChannel:    p.ViewChannel,
		permSendMessages:   p.SendMessages,
		permConnect:        p.Connect,
		permSpeak:          p.Speak,
	}
}

// parseColor reads a "#rrggbb" (or bare hex) color string. Blank or
// malformed values read as zero.
func parseColor(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

// formatColor renders a color the way the dashboard expects it.
func formatColor(c int) string {
	return fmt.Sprintf("#%06x", c)
}
