package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/EZ-CORE/EZ-GEN/internal/services"
)

// AuthRequired checks the admin JWT from Cookie("admin_token") or
// Authorization: Bearer. Browser requests are redirected to the login page;
// API requests get a plain 401.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("admin_token")
		if token == "" {
			authz := c.Get("Authorization")
			if strings.HasPrefix(authz, "Bearer ") {
				token = strings.TrimPrefix(authz, "Bearer ")
			}
		}
		if token == "" {
			return deny(c)
		}
		claims, err := services.ParseToken(token)
		if err != nil || claims.Role != services.RoleAdmin {
			return deny(c)
		}
		c.Locals("claims", claims)
		return c.Next()
	}
}

func deny(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return fiber.ErrUnauthorized
	}
	return c.Redirect("/admin/login")
}
