package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopcatalog/internal/services"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// GET /api/v1/products/:id/availability
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	check := h.Inv.PublicAvailability
	if isAdmin(c) {
		check = h.Inv.CheckAvailability
	}
	a, err := check(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(a)
}
