package handlers

import "github.com/gofiber/fiber/v2"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	if _, set := data["CSRFToken"]; !set {
		data["CSRFToken"] = csrfToken(c)
	}
	return c.Render(tmpl, data)
}

// csrfToken is the token the CSRF middleware put into Locals, falling back
// to the cookie when the middleware did not run for this route.
func csrfToken(c *fiber.Ctx) string {
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		return tok
	}
	return c.Cookies(csrfCookie)
}
