package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopcatalog/internal/domain"
	applog "shopcatalog/internal/log"
	"shopcatalog/internal/services"
)

const (
	sessionCookie = "sid"
	csrfCookie    = "csrf_"
)

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func isAdmin(c *fiber.Ctx) bool {
	u := currentUser(c)
	return u != nil && u.IsAdmin()
}

// AttachUser puts the session's user, if any, into Locals.
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies(sessionCookie); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("user_id", u.ID)
			}
		}
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(sessionCookie)
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil || !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		return c.Next()
	}
}

// RequireAdminAPI guards JSON writes: 401 without a session user, 403 for
// non-admins.
func RequireAdminAPI(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var u *domain.User
		if sid := c.Cookies(sessionCookie); sid != "" {
			u, _ = auth.CurrentUser(c.UserContext(), sid)
		}
		if u == nil {
			applog.Security(c, "access.denied.api", map[string]any{"reason": "anonymous"})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.api", map[string]any{"reason": "not_admin", "user": u.ID})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin role required"})
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		return c.Next()
	}
}
