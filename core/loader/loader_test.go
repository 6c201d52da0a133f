package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type stubFeature struct {
	name    string
	enabled bool
	loadErr error
	loaded  bool
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(app fiber.Router) error {
	s.loaded = true
	return s.loadErr
}

func TestLoadAllSkipsDisabledFeatures(t *testing.T) {
	on := &stubFeature{name: "layout", enabled: true}
	off := &stubFeature{name: "schedule", enabled: false}

	mgr := NewManager()
	mgr.Register(on)
	mgr.Register(off)

	err := mgr.LoadAll(fiber.New())
	assert.NoError(t, err)
	assert.True(t, on.loaded)
	assert.False(t, off.loaded)
}

func TestLoadAllStopsOnFirstFailure(t *testing.T) {
	failing := &stubFeature{name: "layout", enabled: true, loadErr: errors.New("boom")}
	after := &stubFeature{name: "schedule", enabled: true}

	mgr := NewManager()
	mgr.Register(failing)
	mgr.Register(after)

	err := mgr.LoadAll(fiber.New())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "load feature layout")
	assert.False(t, after.loaded)
}
