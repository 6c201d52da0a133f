package layout

import (
	"strings"

	"guildsmith/core/platform"
	"guildsmith/feature/layout/models"
)

// BuildOverwrites resolves a role-name-keyed overwrite spec against the
// live role list, producing role-ID-keyed platform overwrites. Role names
// with no live match are skipped silently.
func BuildOverwrites(roles []platform.Role, spec map[string]models.OverwriteSpec) map[string]platform.Overwrite {
	out := map[string]platform.Overwrite{}
	if len(spec) == 0 {
		return out
	}

	byName := map[string]string{}
	for _, r := range roles {
		byName[strings.TrimSpace(r.Name)] = r.ID
	}

	for name, ow := range spec {
		roleID, ok := byName[strings.TrimSpace(name)]
		if !ok {
			continue
		}
		out[roleID] = platform.Overwrite{
			View:           triState(ow.View),
			Send:           triState(ow.Send),
			Connect:        triState(ow.Connect),
			Speak:          triState(ow.Speak),
			ManageChannels: triState(ow.ManageChannels),
			ManageRoles:    triState(ow.ManageRoles),
		}
	}
	return out
}

func triState(v string) platform.TriState {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "allow":
		return platform.Allow
	case "deny":
		return platform.Deny
	default:
		return platform.Inherit
	}
}
