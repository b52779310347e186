package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopcatalog/internal/services"
)

type SearchHandler struct {
	Products *services.ProductService
}

// GET /api/v1/search?q=...[&category=&brand=&product_type=]
// Matches product name or sku. An empty query returns no results.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	if strings.TrimSpace(c.Query("q")) == "" {
		return c.JSON(fiber.Map{"q": "", "results": summaries(nil), "count": 0})
	}
	f, err := productFilter(c)
	if err != nil {
		return err
	}
	f.ActiveOnly = true
	ps, err := h.Products.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"q": f.Q, "results": summaries(ps), "count": len(ps)})
}
