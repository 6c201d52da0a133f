// Package rayid tags every request with a unique ray id for tracing.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName carries the ray id back to the caller.
const HeaderName = "X-Ray-Id"

// New returns middleware that generates a ray id per request, storing it
// in locals under "ray_id" and echoing it in the response header. An
// incoming X-Ray-Id header is honored so upstream traces stay connected.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("ray_id", rid)
		c.Set(HeaderName, rid)
		return c.Next()
	}
}
