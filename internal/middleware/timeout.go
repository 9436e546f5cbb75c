package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// InvokeTimeout bounds the request's user context by d. Handlers pass
// c.UserContext() to the pipelines so every blocking call observes it.
func InvokeTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
