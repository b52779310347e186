package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopcatalog/internal/domain"
	applog "shopcatalog/internal/log"
	"shopcatalog/internal/serializers"
	"shopcatalog/internal/services"
)

// FacetHandler serves attributes, attribute values and product types.
type FacetHandler struct {
	Facets *services.FacetService
}

func (h *FacetHandler) ListAttributes(c *fiber.Ctx) error {
	attrs, err := h.Facets.ListAttributes(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]serializers.AttributeRepresentation, 0, len(attrs))
	for _, a := range attrs {
		_, vals, err := h.Facets.Attribute(c.UserContext(), a.ID)
		if err != nil {
			return err
		}
		out = append(out, serializers.FromAttribute(a, vals))
	}
	return c.JSON(out)
}

func (h *FacetHandler) GetAttribute(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, vals, err := h.Facets.Attribute(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(serializers.FromAttribute(a, vals))
}

func (h *FacetHandler) CreateAttribute(c *fiber.Ctx) error {
	var in serializers.AttributeInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	a := domain.Attribute{Name: in.Name, Description: in.Description}
	if err := h.Facets.CreateAttribute(c.UserContext(), &a); err != nil {
		return err
	}
	applog.Audit(c, "admin.attribute.create", map[string]any{"attribute_id": a.ID, "name": a.Name})
	return c.Status(fiber.StatusCreated).JSON(serializers.FromAttribute(a, nil))
}

func (h *FacetHandler) DeleteAttribute(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Facets.DeleteAttribute(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.attribute.delete", map[string]any{"attribute_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/attributes/:id/values
func (h *FacetHandler) CreateValue(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in serializers.AttributeValueInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	v := domain.AttributeValue{AttributeID: id, Value: in.Value}
	if err := h.Facets.CreateValue(c.UserContext(), &v); err != nil {
		return err
	}
	applog.Audit(c, "admin.attribute_value.create", map[string]any{"attribute_value_id": v.ID, "value": v.String()})
	return c.Status(fiber.StatusCreated).JSON(serializers.FromAttributeValue(v))
}

func (h *FacetHandler) ListValues(c *fiber.Ctx) error {
	vals, err := h.Facets.ListValues(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]serializers.AttributeValueRepresentation, 0, len(vals))
	for _, v := range vals {
		out = append(out, serializers.FromAttributeValue(v))
	}
	return c.JSON(out)
}

func (h *FacetHandler) GetValue(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.Facets.Value(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(serializers.FromAttributeValue(v))
}

func (h *FacetHandler) DeleteValue(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Facets.DeleteValue(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.attribute_value.delete", map[string]any{"attribute_value_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FacetHandler) ListProductTypes(c *fiber.Ctx) error {
	types, err := h.Facets.ListProductTypes(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]serializers.ProductTypeRepresentation, 0, len(types))
	for _, pt := range types {
		full, err := h.Facets.ProductType(c.UserContext(), pt.ID)
		if err != nil {
			return err
		}
		out = append(out, serializers.FromProductType(full))
	}
	return c.JSON(out)
}

func (h *FacetHandler) GetProductType(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	pt, err := h.Facets.ProductType(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(serializers.FromProductType(pt))
}

func (h *FacetHandler) CreateProductType(c *fiber.Ctx) error {
	var in serializers.ProductTypeInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	pt := domain.ProductType{Name: in.Name}
	if err := h.Facets.CreateProductType(c.UserContext(), &pt); err != nil {
		return err
	}
	applog.Audit(c, "admin.product_type.create", map[string]any{"product_type_id": pt.ID, "name": pt.Name})
	return c.Status(fiber.StatusCreated).JSON(serializers.FromProductType(pt))
}

// DeleteProductType answers 409 while products still use the type.
func (h *FacetHandler) DeleteProductType(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Facets.DeleteProductType(c.UserContext(), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.product_type.delete", map[string]any{"product_type_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/product-types/:id/attributes
func (h *FacetHandler) AddTypeAttribute(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in serializers.ProductTypeAttributeInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	if _, err := h.Facets.AddTypeAttribute(c.UserContext(), id, in.AttributeID); err != nil {
		return err
	}
	pt, err := h.Facets.ProductType(c.UserContext(), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.product_type.attribute.add", map[string]any{"product_type_id": id, "attribute_id": in.AttributeID})
	return c.Status(fiber.StatusCreated).JSON(serializers.FromProductType(pt))
}

func (h *FacetHandler) RemoveTypeAttribute(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	attrID, err := pathID(c, "attributeId")
	if err != nil {
		return err
	}
	if err := h.Facets.RemoveTypeAttribute(c.UserContext(), id, attrID); err != nil {
		return err
	}
	applog.Audit(c, "admin.product_type.attribute.remove", map[string]any{"product_type_id": id, "attribute_id": attrID})
	return c.SendStatus(fiber.StatusNoContent)
}
