package admin_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcatalog/internal/admin"
	"shopcatalog/internal/domain"
	"shopcatalog/internal/repos"
	"shopcatalog/internal/services"
)

func TestEditLink(t *testing.T) {
	assert.Equal(t, "/admin/product/p-1", admin.EditLink("product", "p-1"))
	assert.Equal(t, "", admin.EditLink("product", ""))
	assert.Equal(t, "/admin/brand/a%2Fb", admin.EditLink("brand", "a/b"))
}

func TestSiteRegistry(t *testing.T) {
	s := &admin.Site{}
	s.Register(&admin.ModelAdmin{Slug: "a"})
	s.Register(&admin.ModelAdmin{Slug: "b"})
	require.Len(t, s.Models(), 2)
	assert.Equal(t, "a", s.Models()[0].Slug)
	_, ok := s.Get("b")
	assert.True(t, ok)
	_, ok = s.Get("c")
	assert.False(t, ok)
	assert.Panics(t, func() { s.Register(&admin.ModelAdmin{Slug: "a"}) })
}

func newSite(t *testing.T) *admin.Site {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repos.SeedDemo(context.Background(), db))
	set := repos.NewSet(db)
	return admin.NewSite(
		services.NewCatalogService(set, nil),
		services.NewFacetService(set, nil),
		services.NewProductService(set, nil),
	)
}

func TestCatalogModelsRegistered(t *testing.T) {
	s := newSite(t)
	var slugs []string
	for _, m := range s.Models() {
		slugs = append(slugs, m.Slug)
	}
	assert.Equal(t, []string{"category", "brand", "attribute", "producttype", "attributevalue", "product"}, slugs)
}

func TestProductChangePageInlines(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	m, _ := s.Get(admin.ModelProduct)

	rows, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	var tee admin.Row
	for _, r := range rows {
		if r.Cells[1] == "TEE-001" {
			tee = r
		}
	}
	require.NotEmpty(t, tee.ID)
	assert.Equal(t, admin.EditLink("product", tee.ID), tee.EditURL)

	page, err := m.Change(ctx, tee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Classic Tee", page.Title)
	require.Len(t, page.Inlines, 2)

	images := page.Inlines[0]
	require.Len(t, images.Rows, 2)
	assert.Equal(t, "1", images.Rows[0].Cells[0])
	assert.Equal(t, "2", images.Rows[1].Cells[0])
	require.NotNil(t, images.Form)
	assert.Equal(t, tee.EditURL+"/images", images.Form.Action)

	values := page.Inlines[1]
	require.Len(t, values.Rows, 2)
	assert.Equal(t, []string{"Color", "Red"}, values.Rows[0].Cells)
	assert.Equal(t, admin.EditLink("attributevalue", values.Rows[0].ID), values.Rows[0].EditURL)
	assert.NotEmpty(t, values.Form.Fields[0].Options)

	_, err = m.Change(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBrandInlineLinksToProducts(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	m, _ := s.Get(admin.ModelBrand)
	rows, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].Cells[0])

	page, err := m.Change(ctx, rows[0].ID)
	require.NoError(t, err)
	require.Len(t, page.Inlines, 1)
	prods := page.Inlines[0]
	require.Len(t, prods.Rows, 1)
	assert.Equal(t, "Classic Tee", prods.Rows[0].Cells[0])
	assert.Equal(t, admin.EditLink("product", prods.Rows[0].ID), prods.Rows[0].EditURL)
	assert.Equal(t, domain.InStock, prods.Rows[0].Cells[4])
}

func TestCategoryDeleteThroughAdminIsProtected(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	m, _ := s.Get(admin.ModelCategory)
	rows, err := m.List(ctx)
	require.NoError(t, err)
	for _, r := range rows {
		if r.Cells[0] == "Clothing" {
			assert.ErrorIs(t, m.Delete(ctx, r.ID), domain.ErrProtected)
			return
		}
	}
	t.Fatal("Clothing not listed")
}

func TestBrandFormCreatesAndUpdates(t *testing.T) {
	s := newSite(t)
	ctx := context.Background()
	m, _ := s.Get(admin.ModelBrand)

	fields, err := m.Form(ctx, "")
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "on", fields[1].Value, "new brands start active")

	_, err = m.Save(ctx, "", url.Values{"name": {""}})
	v, ok := domain.AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, v.Fields, "name")

	id, err := m.Save(ctx, "", url.Values{"name": {"Initech"}, "is_active": {"on"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = m.Save(ctx, id, url.Values{"name": {"Initrode"}})
	require.NoError(t, err)
	fields, err = m.Form(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Initrode", fields[0].Value)
	assert.Empty(t, fields[1].Value)

	_, err = m.Save(ctx, "missing", url.Values{"name": {"X"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductFormReportsParseErrorsOnce(t *testing.T) {
	s := newSite(t)
	m, _ := s.Get(admin.ModelProduct)
	_, err := m.Save(context.Background(), "", url.Values{"name": {"Mug"}, "price": {"ten"}, "stock_qty": {"x"}})
	v, ok := domain.AsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, []string{"Enter a number."}, v.Fields["price"])
	assert.Equal(t, []string{"Enter a whole number."}, v.Fields["stock_qty"])
	assert.Contains(t, v.Fields, "brand_id")
}

func TestFillKeepsPostedValues(t *testing.T) {
	fields := []admin.FormField{
		{Name: "name", Type: "text", Value: "old"},
		{Name: "is_active", Type: "checkbox", Value: "on"},
		{Name: "note", Type: "textarea", Value: "kept"},
	}
	got := admin.Fill(fields, url.Values{"name": {"new"}})
	assert.Equal(t, "new", got[0].Value)
	assert.Empty(t, got[1].Value)
	assert.Equal(t, "kept", got[2].Value)
	assert.Equal(t, "old", fields[0].Value)
}
