package handlers

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shopcatalog/internal/domain"
	applog "shopcatalog/internal/log"
	"shopcatalog/internal/serializers"
	"shopcatalog/internal/services"
	"shopcatalog/internal/validate"
)

type AuthHandler struct {
	Auth         *services.AuthService
	CookieSecure bool
}

func (h *AuthHandler) ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sessionCookie)
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   h.CookieSecure,
		})
	}
	return sid
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Title": "Log in", "Err": ""})
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, email, reason string) error {
	applog.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
	return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
		"Title": "Log in", "Err": "Invalid email or password", "CSRFToken": csrfToken(c),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := h.ensureSID(c)
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return h.loginFailed(c, c.FormValue("email"), "bad_format")
	}
	pass := c.FormValue("password")
	if pass == "" || len(pass) > 128 {
		return h.loginFailed(c, email, "bad_password_format")
	}

	u, err := h.Auth.Login(c.UserContext(), sid, email, pass)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			return h.loginFailed(c, email, "bad_credentials")
		}
		return err
	}

	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect(safeNext(c.Query("next"), "/admin"))
}

// safeNext only follows local absolute paths.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" {
		return fallback
	}
	return next
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := h.ensureSID(c)
	if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.CookieSecure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	applog.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/login")
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in serializers.RegistrationInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		if v, ok := domain.AsValidation(err); ok {
			applog.Info(c, "auth.register.invalid", map[string]any{"fields": fieldNames(v)})
		}
		return err
	}
	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.register", map[string]any{"username": u.Username})
	return c.Status(fiber.StatusCreated).JSON(serializers.FromUser(*u))
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
	}
	return c.JSON(fiber.Map{"user": serializers.FromUser(*u), "is_admin": u.IsAdmin()})
}
