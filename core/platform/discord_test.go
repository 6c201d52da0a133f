package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleEditsFields(t *testing.T) {
	pos := 3
	assert.False(t, roleEditsFields(RoleEdit{}), "empty edit patches nothing")
	assert.False(t, roleEditsFields(RoleEdit{Position: &pos}), "position-only edit needs only a reorder")

	name := "Mod"
	color := 0xff0000
	assert.True(t, roleEditsFields(RoleEdit{Name: &name}))
	assert.True(t, roleEditsFields(RoleEdit{Color: &color}))
	assert.True(t, roleEditsFields(RoleEdit{Perms: &Permissions{Speak: true}}))
	assert.True(t, roleEditsFields(RoleEdit{Color: &color, Position: &pos}))
}
