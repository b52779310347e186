package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopcatalog/internal/domain"
	applog "shopcatalog/internal/log"
	"shopcatalog/internal/serializers"
	"shopcatalog/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/categories[?tree=true]
// Anonymous callers and plain users only see active categories.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	activeOnly := !isAdmin(c)
	var (
		cats []domain.Category
		err  error
	)
	if c.QueryBool("tree") {
		cats, err = h.Catalog.CategoryTree(c.UserContext(), activeOnly)
	} else {
		cats, err = h.Catalog.ListCategories(c.UserContext(), activeOnly)
	}
	if err != nil {
		return err
	}
	return c.JSON(serializers.FromCategories(cats))
}

func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.Catalog.Category(c.UserContext(), id, !isAdmin(c))
	if err != nil {
		return err
	}
	return c.JSON(serializers.FromCategory(cat))
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in serializers.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	var cat domain.Category
	in.Apply(&cat)
	if err := h.Catalog.CreateCategory(c.UserContext(), &cat); err != nil {
		return err
	}
	applog.Audit(c, "admin.category.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.Status(fiber.StatusCreated).JSON(serializers.FromCategory(cat))
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.Catalog.Category(c.UserContext(), id, false)
	if err != nil {
		return err
	}
	var in serializers.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	in.Apply(&cat)
	if err := h.Catalog.UpdateCategory(c.UserContext(), &cat); err != nil {
		return err
	}
	applog.Audit(c, "admin.category.update", map[string]any{"category_id": id})
	return c.JSON(serializers.FromCategory(cat))
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.category.delete", map[string]any{"category_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

type BrandHandler struct {
	Catalog *services.CatalogService
}

func (h *BrandHandler) List(c *fiber.Ctx) error {
	brands, err := h.Catalog.ListBrands(c.UserContext(), !isAdmin(c))
	if err != nil {
		return err
	}
	out := make([]serializers.BrandRepresentation, 0, len(brands))
	for _, b := range brands {
		out = append(out, serializers.FromBrand(b))
	}
	return c.JSON(out)
}

func (h *BrandHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Catalog.Brand(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !b.IsActive && !isAdmin(c) {
		return domain.ErrNotFound
	}
	return c.JSON(serializers.FromBrand(b))
}

func (h *BrandHandler) Create(c *fiber.Ctx) error {
	var in serializers.BrandInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	var b domain.Brand
	in.Apply(&b)
	if err := h.Catalog.CreateBrand(c.UserContext(), &b); err != nil {
		return err
	}
	applog.Audit(c, "admin.brand.create", map[string]any{"brand_id": b.ID, "name": b.Name})
	return c.Status(fiber.StatusCreated).JSON(serializers.FromBrand(b))
}

func (h *BrandHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.Catalog.Brand(c.UserContext(), id)
	if err != nil {
		return err
	}
	var in serializers.BrandInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	in.Apply(&b)
	if err := h.Catalog.UpdateBrand(c.UserContext(), &b); err != nil {
		return err
	}
	applog.Audit(c, "admin.brand.update", map[string]any{"brand_id": id})
	return c.JSON(serializers.FromBrand(b))
}

// Delete removes the brand together with its products.
func (h *BrandHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteBrand(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.brand.delete", map[string]any{"brand_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
