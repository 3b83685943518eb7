package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the response header carrying the generated ray id.
const HeaderName = "X-Ray-ID"

// New creates a middleware that assigns every request a unique ray id.
// The id is stored in c.Locals("ray_id") and echoed in the response headers
// so log entries and client reports can be correlated.
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
