package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopcatalog/internal/domain"
	applog "shopcatalog/internal/log"
	"shopcatalog/internal/serializers"
	"shopcatalog/internal/services"
	"shopcatalog/internal/validate"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type ProductHandler struct {
	Products *services.ProductService
}

// filter reads the list query. Non-admins only ever see active products.
func productFilter(c *fiber.Ctx) (domain.ProductFilter, error) {
	f := domain.ProductFilter{ActiveOnly: !isAdmin(c) || c.QueryBool("active")}
	for name, dst := range map[string]*string{
		"category":     &f.CategoryID,
		"brand":        &f.BrandID,
		"product_type": &f.ProductTypeID,
	} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		id, ok := validate.ID(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": name})
			return f, domain.NewFieldError(name, "Select a valid choice. That choice is not one of the available choices.")
		}
		*dst = id
	}
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		q, ok := validate.Q(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q", "value": raw})
			return f, domain.NewFieldError("q", "Enter a valid keyword (letters/numbers only)")
		}
		f.Q = q
	}
	f.Limit = c.QueryInt("limit", defaultPageSize)
	if f.Limit < 1 || f.Limit > maxPageSize {
		f.Limit = defaultPageSize
	}
	if f.Offset = c.QueryInt("offset", 0); f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

func summaries(ps []domain.Product) []serializers.ProductSummary {
	out := make([]serializers.ProductSummary, 0, len(ps))
	for _, p := range ps {
		out = append(out, serializers.FromProduct(p))
	}
	return out
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	f, err := productFilter(c)
	if err != nil {
		return err
	}
	ps, err := h.Products.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"results": summaries(ps), "limit": f.Limit, "offset": f.Offset})
}

// Get serves the full representation with its flattened specification.
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if !isAdmin(c) {
		p, err := h.Products.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return domain.ErrNotFound
		}
	}
	return h.sendRepresentation(c, fiber.StatusOK, id)
}

func (h *ProductHandler) sendRepresentation(c *fiber.Ctx, status int, id string) error {
	b, err := h.Products.Representation(c.UserContext(), id)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(b)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in serializers.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	var p domain.Product
	in.Apply(&p)
	if err := h.Products.Create(c.UserContext(), &p); err != nil {
		return err
	}
	applog.Audit(c, "admin.product.create", map[string]any{"product_id": p.ID, "sku": p.SKU})
	return h.sendRepresentation(c, fiber.StatusCreated, p.ID)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Products.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	var in serializers.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	in.Apply(&p)
	if err := h.Products.Update(c.UserContext(), &p); err != nil {
		return err
	}
	applog.Audit(c, "admin.product.update", map[string]any{"product_id": id})
	return h.sendRepresentation(c, fiber.StatusOK, id)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Products.Delete(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/products/:id/attribute-values
func (h *ProductHandler) AssignValue(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in serializers.AttributeValueAssignInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	if _, err := h.Products.AssignAttributeValue(c.UserContext(), id, in.AttributeValueID); err != nil {
		return err
	}
	applog.Audit(c, "admin.product.attribute_value.add", map[string]any{"product_id": id, "attribute_value_id": in.AttributeValueID})
	return h.sendRepresentation(c, fiber.StatusCreated, id)
}

func (h *ProductHandler) RemoveValue(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	valueID, err := pathID(c, "valueId")
	if err != nil {
		return err
	}
	if err := h.Products.RemoveAttributeValue(c.UserContext(), id, valueID); err != nil {
		return err
	}
	applog.Audit(c, "admin.product.attribute_value.remove", map[string]any{"product_id": id, "attribute_value_id": valueID})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/products/:id/images. Hidden like the product itself.
func (h *ProductHandler) ListImages(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Products.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !p.IsActive && !isAdmin(c) {
		return domain.ErrNotFound
	}
	imgs, err := h.Products.ListImages(c.UserContext(), id)
	if err != nil {
		return err
	}
	out := make([]serializers.ImageRepresentation, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, serializers.FromImage(img))
	}
	return c.JSON(out)
}

// POST /api/v1/products/:id/images. Without an order the image goes last.
func (h *ProductHandler) AddImage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in serializers.ImageInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	img := domain.ProductImage{ProductID: id, AlternativeText: in.AlternativeText, URL: in.URL}
	if in.Order != nil {
		img.Order = *in.Order
	}
	if err := h.Products.SaveImage(c.UserContext(), &img, in.Order == nil); err != nil {
		return err
	}
	applog.Audit(c, "admin.product.image.add", map[string]any{"product_id": id, "image_id": img.ID, "order": img.Order})
	return c.Status(fiber.StatusCreated).JSON(serializers.FromImage(img))
}

func (h *ProductHandler) UpdateImage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := pathID(c, "imageId")
	if err != nil {
		return err
	}
	img, err := h.Products.Image(c.UserContext(), id, imageID)
	if err != nil {
		return err
	}
	var in serializers.ImageInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	img.AlternativeText, img.URL = in.AlternativeText, in.URL
	if in.Order != nil {
		img.Order = *in.Order
	}
	if err := h.Products.SaveImage(c.UserContext(), &img, false); err != nil {
		return err
	}
	applog.Audit(c, "admin.product.image.update", map[string]any{"product_id": id, "image_id": imageID, "order": img.Order})
	return c.JSON(serializers.FromImage(img))
}

func (h *ProductHandler) DeleteImage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := pathID(c, "imageId")
	if err != nil {
		return err
	}
	if err := h.Products.DeleteImage(c.UserContext(), id, imageID); err != nil {
		return err
	}
	applog.Audit(c, "admin.product.image.delete", map[string]any{"product_id": id, "image_id": imageID})
	return c.SendStatus(fiber.StatusNoContent)
}
