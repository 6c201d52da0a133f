package schedule

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLoader(t *testing.T) {
	logger := zap.NewNop()
	// Pass nil db for this test as we don't access it unless we use the service
	feature := NewFeature(nil, nil, nil, 0, logger)

	assert.Equal(t, "schedule", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NotNil(t, feature.Sweeper())

	app := fiber.New()
	err := feature.Load(app)
	assert.NoError(t, err)
}
