package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/expense-pilot/expense_pilot/internal/auth"
)

// IdentityHandler is a route handler that runs on behalf of an
// authenticated caller.
type IdentityHandler func(c *fiber.Ctx, who auth.Identity) error

// RequireIdentity resolves the bearer token of each request and hands the
// resulting Identity to next. Auth failures are returned as *auth.Error so
// the error handler renders them as 401 with a reason.
func RequireIdentity(authn *auth.Authenticator) func(IdentityHandler) fiber.Handler {
	return func(next IdentityHandler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			who, err := authn.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
			if err != nil {
				return err
			}
			return next(c, who)
		}
	}
}
