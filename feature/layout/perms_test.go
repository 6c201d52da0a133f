package layout

import (
	"testing"

	"guildsmith/core/platform"
	"guildsmith/feature/layout/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermsFromSpecAdminFlag(t *testing.T) {
	p := permsFromSpec(map[string]bool{"admin": true})
	assert.True(t, p.Administrator)

	// Long form accepted as an alias.
	p = permsFromSpec(map[string]bool{"administrator": true})
	assert.True(t, p.Administrator)

	p = permsFromSpec(map[string]bool{"unknown_flag": true})
	assert.Equal(t, platform.Permissions{}, p)
}

func TestPermsRoundTripEmitsShortAdminKey(t *testing.T) {
	spec := permsToSpec(platform.Permissions{Administrator: true, Connect: true})
	assert.True(t, spec["admin"])
	assert.True(t, spec["connect"])
	_, hasLong := spec["administrator"]
	assert.False(t, hasLong)

	assert.Equal(t, platform.Permissions{Administrator: true, Connect: true}, permsFromSpec(spec))
}

func TestApplyKeepsAdminRoleAdmin(t *testing.T) {
	g := newFakeGuild()
	g.roles = append(g.roles, platform.Role{
		ID: g.newID(), Name: "Overseer",
		Perms:    platform.Permissions{Administrator: true},
		Position: 1,
	})

	doc := &models.Layout{
		Roles: []models.RoleSpec{{Name: "Overseer", Perms: map[string]bool{"admin": true}}},
	}
	applyLayout(t, g, doc)

	role, ok := FindRole(g, "Overseer")
	require.True(t, ok)
	assert.True(t, role.Perms.Administrator, "admin flag must not be stripped")
	assert.Zero(t, g.mutations, "matching flags need no edit")
}
