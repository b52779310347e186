package admin

import (
	"context"
	"net/url"
	"strconv"

	"shopcatalog/internal/domain"
	"shopcatalog/internal/serializers"
	"shopcatalog/internal/services"
)

const (
	ModelCategory       = "category"
	ModelBrand          = "brand"
	ModelAttribute      = "attribute"
	ModelProductType    = "producttype"
	ModelAttributeValue = "attributevalue"
	ModelProduct        = "product"
)

// NewSite registers the catalog models.
func NewSite(catalog *services.CatalogService, facets *services.FacetService, prods *services.ProductService) *Site {
	s := &Site{}
	s.Register(categoryAdmin(catalog))
	s.Register(brandAdmin(catalog, prods))
	s.Register(attributeAdmin(facets))
	s.Register(productTypeAdmin(facets))
	s.Register(attributeValueAdmin(facets))
	s.Register(productAdmin(catalog, facets, prods))
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func categoryAdmin(catalog *services.CatalogService) *ModelAdmin {
	return &ModelAdmin{
		Slug: ModelCategory, Verbose: "category", VerbosePlural: "categories",
		Columns: []string{"Name", "Parent", "Active"},
		List: func(ctx context.Context) ([]Row, error) {
			cats, err := catalog.ListCategories(ctx, false)
			if err != nil {
				return nil, err
			}
			names := make(map[string]string, len(cats))
			for _, c := range cats {
				names[c.ID] = c.Name
			}
			rows := make([]Row, 0, len(cats))
			for _, c := range cats {
				parent := ""
				if c.ParentID != nil {
					parent = names[*c.ParentID]
				}
				rows = append(rows, Row{ID: c.ID, Cells: []string{c.Name, parent, yesNo(c.IsActive)},
					EditURL: EditLink(ModelCategory, c.ID)})
			}
			return rows, nil
		},
		Change: func(ctx context.Context, id string) (Page, error) {
			c, err := catalog.Category(ctx, id, false)
			if err != nil {
				return Page{}, err
			}
			parent := ""
			if c.ParentID != nil {
				if p, err := catalog.Category(ctx, *c.ParentID, false); err == nil {
					parent = p.Name
				}
			}
			children := Inline{Title: "Child categories", Columns: []string{"Name", "Active"}}
			for _, ch := range c.Children {
				children.Rows = append(children.Rows, Row{ID: ch.ID, Cells: []string{ch.Name, yesNo(ch.IsActive)},
					EditURL: EditLink(ModelCategory, ch.ID)})
			}
			return Page{
				Title:   c.Name,
				Fields:  []Field{{"Parent", parent}, {"Created", c.CreatedAt.Format("2006-01-02 15:04")}},
				Inlines: []Inline{children},
			}, nil
		},
		Delete: catalog.DeleteCategory,
		Form: func(ctx context.Context, id string) ([]FormField, error) {
			c := domain.Category{IsActive: true}
			if id != "" {
				var err error
				if c, err = catalog.Category(ctx, id, false); err != nil {
					return nil, err
				}
			}
			cats, err := catalog.ListCategories(ctx, false)
			if err != nil {
				return nil, err
			}
			opts := make([]Option, 0, len(cats))
			for _, o := range cats {
				if o.ID != id {
					opts = append(opts, Option{Value: o.ID, Label: o.Name})
				}
			}
			return []FormField{
				textField("name", "Name", c.Name, true),
				selectField("parent", "Parent", ptrValue(c.ParentID), false, opts),
				checkbox("is_active", "Active", c.IsActive),
			}, nil
		},
		Save: func(ctx context.Context, id string, form url.Values) (string, error) {
			in := serializers.CategoryInput{Name: form.Get("name"), ParentID: optionalID(form, "parent"), IsActive: checked(form, "is_active")}
			if err := in.Validate(); err != nil {
				return "", err
			}
			if id == "" {
				var c domain.Category
				in.Apply(&c)
				err := catalog.CreateCategory(ctx, &c)
				return c.ID, err
			}
			c, err := catalog.Category(ctx, id, false)
			if err != nil {
				return "", err
			}
			in.Apply(&c)
			err = catalog.UpdateCategory(ctx, &c)
			return c.ID, err
		},
	}
}

func brandAdmin(catalog *services.CatalogService, prods *services.ProductService) *ModelAdmin {
	return &ModelAdmin{
		Slug: ModelBrand, Verbose: "brand", VerbosePlural: "brands",
		Columns: []string{"Name", "Active"},
		List: func(ctx context.Context) ([]Row, error) {
			brands, err := catalog.ListBrands(ctx, false)
			if err != nil {
				return nil, err
			}
			rows := make([]Row, 0, len(brands))
			for _, b := range brands {
				rows = append(rows, Row{ID: b.ID, Cells: []string{b.Name, yesNo(b.IsActive)}, EditURL: EditLink(ModelBrand, b.ID)})
			}
			return rows, nil
		},
		Change: func(ctx context.Context, id string) (Page, error) {
			b, err := catalog.Brand(ctx, id)
			if err != nil {
				return Page{}, err
			}
			ps, err := prods.ListByBrand(ctx, id)
			if err != nil {
				return Page{}, err
			}
			return Page{Title: b.Name, Inlines: []Inline{productInline(ps)}}, nil
		},
		Delete: catalog.DeleteBrand,
		Form: func(ctx context.Context, id string) ([]FormField, error) {
			b := domain.Brand{IsActive: true}
			if id != "" {
				var err error
				if b, err = catalog.Brand(ctx, id); err != nil {
					return nil, err
				}
			}
			return []FormField{textField("name", "Name", b.Name, true), checkbox("is_active", "Active", b.IsActive)}, nil
		},
		Save: func(ctx context.Context, id string, form url.Values) (string, error) {
			in := serializers.BrandInput{Name: form.Get("name"), IsActive: checked(form, "is_active")}
			if err := in.Validate(); err != nil {
				return "", err
			}
			if id == "" {
				var b domain.Brand
				in.Apply(&b)
				err := catalog.CreateBrand(ctx, &b)
				return b.ID, err
			}
			b, err := catalog.Brand(ctx, id)
			if err != nil {
				return "", err
			}
			in.Apply(&b)
			err = catalog.UpdateBrand(ctx, &b)
			return b.ID, err
		},
	}
}

// productInline lists products with an edit link to each product's page.
func productInline(ps []domain.Product) Inline {
	in := Inline{Title: "Products", Columns: []string{"Name", "SKU", "Price", "Stock", "Availability"}}
	for _, p := range ps {
		in.Rows = append(in.Rows, Row{
			ID:      p.ID,
			Cells:   []string{p.Name, p.SKU, p.Price.StringFixed(2), strconv.Itoa(p.StockQty), services.Availability(p).Status},
			EditURL: EditLink(ModelProduct, p.ID),
		})
	}
	return in
}

func attributeAdmin(facets *services.FacetService) *ModelAdmin {
	return &ModelAdmin{
		Slug: ModelAttribute, Verbose: "attribute", VerbosePlural: "attributes",
		Columns: []string{"Name", "Description"},
		List: func(ctx context.Context) ([]Row, error) {
			attrs, err := facets.ListAttributes(ctx)
			if err != nil {
				return nil, err
			}
			rows := make([]Row, 0, len(attrs))
			for _, a := range attrs {
				rows = append(rows, Row{ID: a.ID, Cells: []string{a.Name, a.Description}, EditURL: EditLink(ModelAttribute, a.ID)})
			}
			return rows, nil
		},
		Change: func(ctx context.Context, id string) (Page, error) {
			a, vals, err := facets.Attribute(ctx, id)
			if err != nil {
				return Page{}, err
			}
			values := Inline{Title: "Values", Columns: []string{"Value"}}
			for _, v := range vals {
				values.Rows = append(values.Rows, Row{ID: v.ID, Cells: []string{v.Value}, EditURL: EditLink(ModelAttributeValue, v.ID)})
			}
			return Page{Title: a.Name, Inlines: []Inline{values}}, nil
		},
		Delete: facets.DeleteAttribute,
		Form: func(ctx context.Context, id string) ([]FormField, error) {
			var a domain.Attribute
			if id != "" {
				var err error
				if a, _, err = facets.Attribute(ctx, id); err != nil {
					return nil, err
				}
			}
			return []FormField{textField("name", "Name", a.Name, true), textarea("description", "Description", a.Description)}, nil
		},
		Save: func(ctx context.Context, id string, form url.Values) (string, error) {
			in := serializers.AttributeInput{Name: form.Get("name"), Description: form.Get("description")}
			if err := in.Validate(); err != nil {
				return "", err
			}
			a := domain.Attribute{ID: id, Name: in.Name, Description: in.Description}
			if id == "" {
				err := facets.CreateAttribute(ctx, &a)
				return a.ID, err
			}
			err := facets.UpdateAttribute(ctx, &a)
			return a.ID, err
		},
	}
}

func productTypeAdmin(facets *services.FacetService) *ModelAdmin {
	return &ModelAdmin{
		Slug: ModelProductType, Verbose: "product type", VerbosePlural: "product types",
		Columns: []string{"Name", "Attributes"},
		List: func(ctx context.Context) ([]Row, error) {
			types, err := facets.ListProductTypes(ctx)
			if err != nil {
				return nil, err
			}
			rows := make([]Row, 0, len(types))
			for _, pt := range types {
				full, err := facets.ProductType(ctx, pt.ID)
				if err != nil {
					return nil, err
				}
				rows = append(rows, Row{ID: pt.ID, Cells: []string{pt.Name, strconv.Itoa(len(full.Attributes))},
					EditURL: EditLink(ModelProductType, pt.ID)})
			}
			return rows, nil
		},
		Change: func(ctx context.Context, id string) (Page, error) {
			pt, err := facets.ProductType(ctx, id)
			if err != nil {
				return Page{}, err
			}
			all, err := facets.ListAttributes(ctx)
			if err != nil {
				return Page{}, err
			}
			in := Inline{Title: "Product type attributes", Columns: []string{"Attribute"}}
			for _, a := range pt.Attributes {
				in.Rows = append(in.Rows, Row{
					ID: a.ID, Cells: []string{a.Name},
					EditURL:   EditLink(ModelAttribute, a.ID),
					DeleteURL: EditLink(ModelProductType, pt.ID) + "/attributes/" + a.ID + "/delete",
				})
			}
			opts := make([]Option, 0, len(all))
			for _, a := range all {
				opts = append(opts, Option{Value: a.ID, Label: a.Name})
			}
			in.Form = &InlineForm{
				Action: EditLink(ModelProductType, pt.ID) + "/attributes",
				Fields: []FormField{{Name: "attribute_id", Label: "Attribute", Type: "select", Required: true, Options: opts}},
			}
			return Page{Title: pt.Name, Inlines: []Inline{in}}, nil
		},
		Delete: facets.DeleteProductType,
		Form: func(ctx context.Context, id string) ([]FormField, error) {
			var pt domain.ProductType
			if id != "" {
				var err error
				if pt, err = facets.ProductType(ctx, id); err != nil {
					return nil, err
				}
			}
			return []FormField{textField("name", "Name", pt.Name, true)}, nil
		},
		Save: func(ctx context.Context, id string, form url.Values) (string, error) {
			in := serializers.ProductTypeInput{Name: form.Get("name")}
			if err := in.Validate(); err != nil {
				return "", err
			}
			pt := domain.ProductType{ID: id, Name: in.Name}
			if id == "" {
				err := facets.CreateProductType(ctx, &pt)
				return pt.ID, err
			}
			err := facets.UpdateProductType(ctx, &pt)
			return pt.ID, err
		},
	}
}

func attributeValueAdmin(facets *services.FacetService) *ModelAdmin {
	return &ModelAdmin{
		Slug: ModelAttributeValue, Verbose: "attribute value", VerbosePlural: "attribute values",
		Columns: []string{"Attribute value", "Attribute"},
		List: func(ctx context.Context) ([]Row, error) {
			vals, err := facets.ListValues(ctx)
			if err != nil {
				return nil, err
			}
			rows := make([]Row, 0, len(vals))
			for _, v := range vals {
				rows = append(rows, Row{ID: v.ID, Cells: []string{v.String(), v.AttributeName}, EditURL: EditLink(ModelAttributeValue, v.ID)})
			}
			return rows, nil
		},
		Change: func(ctx context.Context, id string) (Page, error) {
			v, err := facets.Value(ctx, id)
			if err != nil {
				return Page{}, err
			}
			return Page{Title: v.String(), Fields: []Field{{"Attribute", v.AttributeName}}}, nil
		},
		Delete: facets.DeleteValue,
		// The attribute is chosen on add only; moving a value to another
		// attribute would break products holding it.
		Form: func(ctx context.Context, id string) ([]FormField, error) {
			if id != "" {
				v, err := facets.Value(ctx, id)
				if err != nil {
					return nil, err
				}
				return []FormField{textField("attribute_value", "Attribute value", v.Value, true)}, nil
			}
			attrs, err := facets.ListAttributes(ctx)
			if err != nil {
				return nil, err
			}
			opts := make([]Option, 0, len(attrs))
			for _, a := range attrs {
				opts = append(opts, Option{Value: a.ID, Label: a.Name})
			}
			return []FormField{
				selectField("attribute", "Attribute", "", true, opts),
				textField("attribute_value", "Attribute value", "", true),
			}, nil
		},
		Save: func(ctx context.Context, id string, form url.Values) (string, error) {
			in := serializers.AttributeValueInput{Value: form.Get("attribute_value")}
			if id != "" {
				if err := in.Validate(); err != nil {
					return "", err
				}
				v := domain.AttributeValue{ID: id, Value: in.Value}
				return id, facets.UpdateValue(ctx, &v)
			}
			v := &domain.ValidationError{}
			attrID := optionalID(form, "attribute")
			if attrID == nil {
				v.Add("attribute", "This field is required.")
			}
			if err := merge(v, in.Validate()); err != nil {
				return "", err
			}
			av := domain.AttributeValue{AttributeID: *attrID, Value: in.Value}
			err := choiceErr(facets.CreateValue(ctx, &av), "attribute")
			return av.ID, err
		},
	}
}

func productAdmin(catalog *services.CatalogService, facets *services.FacetService, prods *services.ProductService) *ModelAdmin {
	return &ModelAdmin{
		Slug: ModelProduct, Verbose: "product", VerbosePlural: "products",
		Columns: []string{"Name", "SKU", "Price", "Stock", "Active"},
		List: func(ctx context.Context) ([]Row, error) {
			ps, err := prods.List(ctx, domain.ProductFilter{})
			if err != nil {
				return nil, err
			}
			rows := make([]Row, 0, len(ps))
			for _, p := range ps {
				rows = append(rows, Row{ID: p.ID,
					Cells:   []string{p.Name, p.SKU, p.Price.StringFixed(2), strconv.Itoa(p.StockQty), yesNo(p.IsActive)},
					EditURL: EditLink(ModelProduct, p.ID)})
			}
			return rows, nil
		},
		Change: func(ctx context.Context, id string) (Page, error) {
			d, err := prods.Detail(ctx, id)
			if err != nil {
				return Page{}, err
			}
			category := ""
			if d.Category != nil {
				category = d.Category.Name
			}
			self := EditLink(ModelProduct, d.ID)

			images := Inline{Title: "Product images", Columns: []string{"Order", "Alternative text", "URL"}}
			for _, img := range d.Images {
				images.Rows = append(images.Rows, Row{ID: img.ID,
					Cells:     []string{img.String(), img.AlternativeText, img.URL},
					DeleteURL: self + "/images/" + img.ID + "/delete",
					Form: &InlineForm{Action: self + "/images/" + img.ID, Submit: "Save", Fields: []FormField{
						textField("alternative_text", "Alternative text", img.AlternativeText, true),
						{Name: "url", Label: "URL", Type: "url", Required: true, Value: img.URL},
						{Name: "order", Label: "Order", Type: "number", Value: strconv.Itoa(img.Order)},
					}}})
			}
			images.Form = &InlineForm{Action: self + "/images", Fields: []FormField{
				{Name: "alternative_text", Label: "Alternative text", Type: "text", Required: true},
				{Name: "url", Label: "URL", Type: "url", Required: true},
				{Name: "order", Label: "Order", Type: "number"},
			}}

			values := Inline{Title: "Product attribute values", Columns: []string{"Attribute", "Value"}}
			for _, v := range d.AttributeValues {
				values.Rows = append(values.Rows, Row{ID: v.ID,
					Cells:     []string{v.AttributeName, v.Value},
					EditURL:   EditLink(ModelAttributeValue, v.ID),
					DeleteURL: self + "/attribute-values/" + v.ID + "/delete"})
			}
			all, err := facets.ListValues(ctx)
			if err != nil {
				return Page{}, err
			}
			opts := make([]Option, 0, len(all))
			for _, v := range all {
				opts = append(opts, Option{Value: v.ID, Label: v.String()})
			}
			values.Form = &InlineForm{Action: self + "/attribute-values", Fields: []FormField{
				{Name: "attribute_value_id", Label: "Attribute value", Type: "select", Required: true, Options: opts},
			}}

			return Page{
				Title: d.Name,
				Fields: []Field{
					{"Brand", d.Brand.Name}, {"Category", category}, {"Product type", d.ProductType.Name},
					{"Availability", services.Availability(d.Product).Status},
					{"Created", d.CreatedAt.Format("2006-01-02 15:04")},
				},
				Inlines: []Inline{images, values},
			}, nil
		},
		Delete: prods.Delete,
		Form: func(ctx context.Context, id string) ([]FormField, error) {
			p := domain.Product{IsActive: true}
			if id != "" {
				var err error
				if p, err = prods.Get(ctx, id); err != nil {
					return nil, err
				}
			}
			brands, err := catalog.ListBrands(ctx, false)
			if err != nil {
				return nil, err
			}
			cats, err := catalog.ListCategories(ctx, false)
			if err != nil {
				return nil, err
			}
			types, err := facets.ListProductTypes(ctx)
			if err != nil {
				return nil, err
			}
			var brandOpts, catOpts, typeOpts []Option
			for _, b := range brands {
				brandOpts = append(brandOpts, Option{Value: b.ID, Label: b.Name})
			}
			for _, c := range cats {
				catOpts = append(catOpts, Option{Value: c.ID, Label: c.Name})
			}
			for _, t := range types {
				typeOpts = append(typeOpts, Option{Value: t.ID, Label: t.Name})
			}
			price, stock := "", ""
			if id != "" {
				price, stock = p.Price.StringFixed(2), strconv.Itoa(p.StockQty)
			}
			return []FormField{
				textField("name", "Name", p.Name, true),
				textarea("description", "Description", p.Description),
				selectField("brand_id", "Brand", p.BrandID, true, brandOpts),
				selectField("category_id", "Category", ptrValue(p.CategoryID), false, catOpts),
				selectField("product_type_id", "Product type", p.ProductTypeID, true, typeOpts),
				textField("price", "Price", price, true),
				textField("sku", "SKU", p.SKU, true),
				{Name: "stock_qty", Label: "Stock quantity", Type: "number", Required: true, Value: stock},
				checkbox("is_digital", "Digital", p.IsDigital),
				checkbox("is_active", "Active", p.IsActive),
			}, nil
		},
		Save: func(ctx context.Context, id string, form url.Values) (string, error) {
			v := &domain.ValidationError{}
			in := serializers.ProductInput{
				Name:          form.Get("name"),
				Description:   form.Get("description"),
				IsDigital:     form.Get("is_digital") != "",
				BrandID:       form.Get("brand_id"),
				CategoryID:    optionalID(form, "category_id"),
				ProductTypeID: form.Get("product_type_id"),
				IsActive:      checked(form, "is_active"),
				Price:         formDecimal(form, "price", v),
				SKU:           form.Get("sku"),
				StockQty:      formInt(form, "stock_qty", v),
			}
			if err := merge(v, in.Validate()); err != nil {
				return "", err
			}
			if id == "" {
				var p domain.Product
				in.Apply(&p)
				err := prods.Create(ctx, &p)
				return p.ID, err
			}
			p, err := prods.Get(ctx, id)
			if err != nil {
				return "", err
			}
			in.Apply(&p)
			err = prods.Update(ctx, &p)
			return p.ID, err
		},
	}
}
