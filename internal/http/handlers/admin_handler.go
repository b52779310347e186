package handlers

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopcatalog/internal/admin"
	"shopcatalog/internal/domain"
	applog "shopcatalog/internal/log"
	"shopcatalog/internal/serializers"
	"shopcatalog/internal/services"
	"shopcatalog/internal/validate"
)

// AdminHandler serves the HTML administration site: model index, change
// lists, change pages with their inlines, and deletes.
type AdminHandler struct {
	Site     *admin.Site
	Products *services.ProductService
	Facets   *services.FacetService
}

const msgProtected = "Cannot delete this object because other records still reference it."

// GET /admin
func (h *AdminHandler) Index(c *fiber.Ctx) error {
	return render(c, "admin_index", fiber.Map{"Title": "Site administration", "Models": h.Site.Models()})
}

func (h *AdminHandler) model(c *fiber.Ctx) (*admin.ModelAdmin, error) {
	slug, ok := validate.Slug(c.Params("model"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "model"})
		return nil, domain.ErrNotFound
	}
	m, ok := h.Site.Get(slug)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

// GET /admin/:model
func (h *AdminHandler) List(c *fiber.Ctx) error {
	m, err := h.model(c)
	if err != nil {
		return err
	}
	rows, err := m.List(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "admin_list", fiber.Map{"Title": m.VerbosePlural, "Model": m, "Rows": rows})
}

// GET /admin/:model/:id
func (h *AdminHandler) Change(c *fiber.Ctx) error {
	m, err := h.model(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return h.renderChange(c, m, id, fiber.StatusOK, nil, nil)
}

// formFields loads the model's form, keeping posted values when a rejected
// form is shown again.
func formFields(ctx context.Context, m *admin.ModelAdmin, id string, posted url.Values) ([]admin.FormField, error) {
	if m.Form == nil {
		return nil, nil
	}
	fields, err := m.Form(ctx, id)
	if err != nil || posted == nil {
		return fields, err
	}
	return admin.Fill(fields, posted), nil
}

func (h *AdminHandler) renderChange(c *fiber.Ctx, m *admin.ModelAdmin, id string, status int, errs map[string][]string, posted url.Values) error {
	page, err := m.Change(c.UserContext(), id)
	if err != nil {
		return err
	}
	fields, err := formFields(c.UserContext(), m, id, posted)
	if err != nil {
		return err
	}
	c.Status(status)
	return render(c, "admin_change", fiber.Map{
		"Title": page.Title, "Model": m, "Page": page, "ID": id, "Errors": errs, "Fields": fields,
	})
}

func (h *AdminHandler) renderAdd(c *fiber.Ctx, m *admin.ModelAdmin, status int, errs map[string][]string, posted url.Values) error {
	fields, err := formFields(c.UserContext(), m, "", posted)
	if err != nil {
		return err
	}
	c.Status(status)
	return render(c, "admin_add", fiber.Map{
		"Title": "Add " + m.Verbose, "Model": m, "Errors": errs, "Fields": fields,
	})
}

// postedForm collects the url-encoded body.
func postedForm(c *fiber.Ctx) url.Values {
	form := url.Values{}
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		form.Add(string(k), string(v))
	})
	return form
}

// GET /admin/:model/add
func (h *AdminHandler) Add(c *fiber.Ctx) error {
	m, err := h.model(c)
	if err != nil {
		return err
	}
	if m.Save == nil {
		return domain.ErrNotFound
	}
	return h.renderAdd(c, m, fiber.StatusOK, nil, nil)
}

// POST /admin/:model/add
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	m, err := h.model(c)
	if err != nil {
		return err
	}
	if m.Save == nil {
		return domain.ErrNotFound
	}
	form := postedForm(c)
	id, err := m.Save(c.UserContext(), "", form)
	if err != nil {
		v, ok := domain.AsValidation(err)
		if !ok {
			return err
		}
		applog.Info(c, "admin.form.invalid", map[string]any{"model": m.Slug, "fields": fieldNames(v)})
		return h.renderAdd(c, m, fiber.StatusBadRequest, v.Fields, form)
	}
	applog.Audit(c, "admin."+m.Slug+".create", map[string]any{"id": id})
	return c.Redirect(admin.EditLink(m.Slug, id))
}

// POST /admin/:model/:id
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	m, err := h.model(c)
	if err != nil {
		return err
	}
	if m.Save == nil {
		return domain.ErrNotFound
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	form := postedForm(c)
	if _, err := m.Save(c.UserContext(), id, form); err != nil {
		v, ok := domain.AsValidation(err)
		if !ok {
			return err
		}
		applog.Info(c, "admin.form.invalid", map[string]any{"model": m.Slug, "id": id, "fields": fieldNames(v)})
		return h.renderChange(c, m, id, fiber.StatusBadRequest, v.Fields, form)
	}
	applog.Audit(c, "admin."+m.Slug+".update", map[string]any{"id": id})
	return c.Redirect(admin.EditLink(m.Slug, id))
}

// inlineFailed re-renders the change page with the validation messages, or
// passes any other error on to the error handler.
func (h *AdminHandler) inlineFailed(c *fiber.Ctx, slug, id string, err error) error {
	v, ok := domain.AsValidation(err)
	if !ok {
		return err
	}
	applog.Info(c, "admin.inline.invalid", map[string]any{"model": slug, "id": id, "fields": fieldNames(v)})
	m, _ := h.Site.Get(slug)
	return h.renderChange(c, m, id, fiber.StatusBadRequest, v.Fields, nil)
}

// POST /admin/:model/:id/delete
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	m, err := h.model(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := m.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrProtected) {
			applog.Info(c, "admin.delete.protected", map[string]any{"model": m.Slug, "id": id})
			return h.renderChange(c, m, id, fiber.StatusConflict,
				map[string][]string{domain.NonFieldErrors: {msgProtected}}, nil)
		}
		return err
	}
	applog.Audit(c, "admin."+m.Slug+".delete", map[string]any{"id": id})
	return c.Redirect("/admin/" + m.Slug)
}

// imageForm reads the inline image form. An empty order means "after the
// last image".
func imageForm(c *fiber.Ctx) (serializers.ImageInput, error) {
	in := serializers.ImageInput{AlternativeText: c.FormValue("alternative_text"), URL: c.FormValue("url")}
	if raw := strings.TrimSpace(c.FormValue("order")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, domain.NewFieldError("order", "Enter a whole number.")
		}
		in.Order = &n
	}
	return in, in.Validate()
}

// POST /admin/product/:id/images
func (h *AdminHandler) AddImage(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in, err := imageForm(c)
	if err != nil {
		return h.inlineFailed(c, admin.ModelProduct, id, err)
	}
	img := domain.ProductImage{ProductID: id, AlternativeText: in.AlternativeText, URL: in.URL}
	if in.Order != nil {
		img.Order = *in.Order
	}
	if err := h.Products.SaveImage(c.UserContext(), &img, in.Order == nil); err != nil {
		return h.inlineFailed(c, admin.ModelProduct, id, err)
	}
	applog.Audit(c, "admin.product.image.add", map[string]any{"product_id": id, "image_id": img.ID, "order": img.Order})
	return c.Redirect(admin.EditLink(admin.ModelProduct, id))
}

// POST /admin/product/:id/images/:imageId edits an image in place. An
// empty order keeps the current one.
func (h *AdminHandler) UpdateImage(c *fiber.Ctx) error {
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
	in, err := imageForm(c)
	if err != nil {
		return h.inlineFailed(c, admin.ModelProduct, id, err)
	}
	img.AlternativeText, img.URL = in.AlternativeText, in.URL
	if in.Order != nil {
		img.Order = *in.Order
	}
	if err := h.Products.SaveImage(c.UserContext(), &img, false); err != nil {
		return h.inlineFailed(c, admin.ModelProduct, id, err)
	}
	applog.Audit(c, "admin.product.image.update", map[string]any{"product_id": id, "image_id": imageID, "order": img.Order})
	return c.Redirect(admin.EditLink(admin.ModelProduct, id))
}

// POST /admin/product/:id/images/:imageId/delete
func (h *AdminHandler) RemoveImage(c *fiber.Ctx) error {
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
	return c.Redirect(admin.EditLink(admin.ModelProduct, id))
}

// POST /admin/product/:id/attribute-values
func (h *AdminHandler) AddAttributeValue(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in := serializers.AttributeValueAssignInput{AttributeValueID: c.FormValue("attribute_value_id")}
	if err := in.Validate(); err != nil {
		return h.inlineFailed(c, admin.ModelProduct, id, err)
	}
	if _, err := h.Products.AssignAttributeValue(c.UserContext(), id, in.AttributeValueID); err != nil {
		return h.inlineFailed(c, admin.ModelProduct, id, err)
	}
	applog.Audit(c, "admin.product.attribute_value.add", map[string]any{"product_id": id, "attribute_value_id": in.AttributeValueID})
	return c.Redirect(admin.EditLink(admin.ModelProduct, id))
}

// POST /admin/product/:id/attribute-values/:valueId/delete
func (h *AdminHandler) RemoveAttributeValue(c *fiber.Ctx) error {
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
	return c.Redirect(admin.EditLink(admin.ModelProduct, id))
}

// POST /admin/producttype/:id/attributes
func (h *AdminHandler) AddTypeAttribute(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in := serializers.ProductTypeAttributeInput{AttributeID: c.FormValue("attribute_id")}
	if err := in.Validate(); err != nil {
		return h.inlineFailed(c, admin.ModelProductType, id, err)
	}
	if _, err := h.Facets.AddTypeAttribute(c.UserContext(), id, in.AttributeID); err != nil {
		return h.inlineFailed(c, admin.ModelProductType, id, err)
	}
	applog.Audit(c, "admin.product_type.attribute.add", map[string]any{"product_type_id": id, "attribute_id": in.AttributeID})
	return c.Redirect(admin.EditLink(admin.ModelProductType, id))
}

// POST /admin/producttype/:id/attributes/:attributeId/delete
func (h *AdminHandler) RemoveTypeAttribute(c *fiber.Ctx) error {
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
	return c.Redirect(admin.EditLink(admin.ModelProductType, id))
}
