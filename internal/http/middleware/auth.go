package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"settingsapi/internal/security"
)

// UserIDLocalKey is the Fiber locals key holding the authenticated user ID.
const UserIDLocalKey = "user_id"

// Auth verifies the bearer JWT and attaches the caller identity to both the Fiber locals
// and the request's user context, where the service layer reads it.
// Missing or invalid tokens end the request with 401.
func Auth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := security.ParseToken(secret, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(UserIDLocalKey, claims.ID)
		c.SetUserContext(security.WithIdentity(c.UserContext(), claims.ID))
		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
