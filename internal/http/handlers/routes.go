package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"shopcatalog/internal/config"
	applog "shopcatalog/internal/log"
	"shopcatalog/web"
)

const csrfHeader = "X-Csrf-Token"

var errMissingCSRF = errors.New("missing csrf token")

// csrfExtractor accepts the token from the X-Csrf-Token header (JSON
// clients) or the csrf form field (admin pages).
func csrfExtractor(c *fiber.Ctx) (string, error) {
	if tok := c.Get(csrfHeader); tok != "" {
		return tok, nil
	}
	if tok := c.FormValue("csrf"); tok != "" {
		return tok, nil
	}
	return "", errMissingCSRF
}

func limitReached(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		if isAPI(c) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		}
		return c.Status(fiber.StatusTooManyRequests).Render("notfound", fiber.Map{"Message": "Too many requests. Please try again later."})
	}
}

func health(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) }

// NewApp builds the fiber app with middleware and every route.
func NewApp(d *Deps, cfg config.Config) *fiber.App {
	bodyLimit := cfg.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 1 << 20
	}
	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 120
	}

	app := fiber.New(fiber.Config{
		Views:        web.Engine(),
		ErrorHandler: ErrorHandler,
		BodyLimit:    bodyLimit,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(applog.AccessLog())
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(AttachUser(d.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:          rate,
		Expiration:   time.Minute,
		LimitReached: limitReached("rate.global.hit"),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/healthz")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		Extractor:      csrfExtractor,
		CookieName:     csrfCookie,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"path": c.Path()})
			if isAPI(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "CSRF token missing or incorrect"})
			}
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Get("/healthz", health)
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/admin") })

	// ---------- API ----------
	api := app.Group("/api/v1")
	api.Get("/healthz", health)

	writes := RequireAdminAPI(d.Auth)
	register := limiter.New(limiter.Config{
		Max:          10,
		Expiration:   10 * time.Minute,
		LimitReached: limitReached("rate.register.hit"),
	})
	api.Post("/auth/register", register, d.AuthHandler.Register)
	api.Get("/auth/me", d.AuthHandler.Me)

	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/categories/:id", d.CategoryHandler.Get)
	api.Post("/categories", writes, d.CategoryHandler.Create)
	api.Put("/categories/:id", writes, d.CategoryHandler.Update)
	api.Delete("/categories/:id", writes, d.CategoryHandler.Delete)

	api.Get("/brands", d.BrandHandler.List)
	api.Get("/brands/:id", d.BrandHandler.Get)
	api.Post("/brands", writes, d.BrandHandler.Create)
	api.Put("/brands/:id", writes, d.BrandHandler.Update)
	api.Delete("/brands/:id", writes, d.BrandHandler.Delete)

	api.Get("/attributes", d.FacetHandler.ListAttributes)
	api.Get("/attributes/:id", d.FacetHandler.GetAttribute)
	api.Post("/attributes", writes, d.FacetHandler.CreateAttribute)
	api.Delete("/attributes/:id", writes, d.FacetHandler.DeleteAttribute)
	api.Post("/attributes/:id/values", writes, d.FacetHandler.CreateValue)
	api.Get("/attribute-values", d.FacetHandler.ListValues)
	api.Get("/attribute-values/:id", d.FacetHandler.GetValue)
	api.Delete("/attribute-values/:id", writes, d.FacetHandler.DeleteValue)

	api.Get("/product-types", d.FacetHandler.ListProductTypes)
	api.Get("/product-types/:id", d.FacetHandler.GetProductType)
	api.Post("/product-types", writes, d.FacetHandler.CreateProductType)
	api.Delete("/product-types/:id", writes, d.FacetHandler.DeleteProductType)
	api.Post("/product-types/:id/attributes", writes, d.FacetHandler.AddTypeAttribute)
	api.Delete("/product-types/:id/attributes/:attributeId", writes, d.FacetHandler.RemoveTypeAttribute)

	availLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: limitReached("rate.availability.hit"),
	})
	searchLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|search"
		},
		LimitReached: limitReached("rate.search.hit"),
	})
	api.Get("/search", searchLimiter, d.SearchHandler.Search)

	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/:id", d.ProductHandler.Get)
	api.Get("/products/:id/availability", availLimiter, d.InventoryHandler.Check)
	api.Post("/products", writes, d.ProductHandler.Create)
	api.Put("/products/:id", writes, d.ProductHandler.Update)
	api.Delete("/products/:id", writes, d.ProductHandler.Delete)
	api.Post("/products/:id/attribute-values", writes, d.ProductHandler.AssignValue)
	api.Delete("/products/:id/attribute-values/:valueId", writes, d.ProductHandler.RemoveValue)
	api.Get("/products/:id/images", d.ProductHandler.ListImages)
	api.Post("/products/:id/images", writes, d.ProductHandler.AddImage)
	api.Put("/products/:id/images/:imageId", writes, d.ProductHandler.UpdateImage)
	api.Delete("/products/:id/images/:imageId", writes, d.ProductHandler.DeleteImage)

	api.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})

	// ---------- Auth (login throttled) ----------
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{
				"Title": "Log in", "Err": "Too many attempts. Please try again later.", "CSRFToken": csrfToken(c),
			})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	// ---------- Admin ----------
	ah := d.AdminHandler
	adm := app.Group("/admin", RequireAdmin(d.Auth))
	adm.Get("/", ah.Index)
	adm.Post("/product/:id/images", ah.AddImage)
	adm.Post("/product/:id/images/:imageId", ah.UpdateImage)
	adm.Post("/product/:id/images/:imageId/delete", ah.RemoveImage)
	adm.Post("/product/:id/attribute-values", ah.AddAttributeValue)
	adm.Post("/product/:id/attribute-values/:valueId/delete", ah.RemoveAttributeValue)
	adm.Post("/producttype/:id/attributes", ah.AddTypeAttribute)
	adm.Post("/producttype/:id/attributes/:attributeId/delete", ah.RemoveTypeAttribute)
	adm.Get("/:model", ah.List)
	// "add" is matched before it can be taken for an id
	adm.Get("/:model/add", ah.Add)
	adm.Post("/:model/add", ah.Create)
	adm.Get("/:model/:id", ah.Change)
	adm.Post("/:model/:id", ah.Update)
	adm.Post("/:model/:id/delete", ah.Delete)

	// 404
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})
	return app
}
