package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcatalog/internal/domain"
	"shopcatalog/internal/serializers"
)

func TestAPI_ReadsArePublicWritesNeedAdmin(t *testing.T) {
	e := newTestEnv(t)

	resp := e.request(t, http.MethodGet, "/api/v1/brands", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/v1/brands", `{"name":"Initech"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/v1/brands", `{"name":"Initech"}`, sidAlice)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.request(t, http.MethodPost, "/api/v1/brands", `{"name":"Initech"}`, sidAdmin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var b serializers.BrandRepresentation
	decode(t, resp, &b)
	assert.Equal(t, "Initech", b.Name)
	assert.True(t, b.IsActive)
	assert.NotEmpty(t, b.ID)
}

func TestAPI_WritesRequireCSRFToken(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/brands", strings.NewReader(`{"name":"Initech"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "sid", Value: sidAdmin})
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: e.csrf})
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	brands, err := e.set.Brands.List(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func TestAPI_ProductRepresentation(t *testing.T) {
	e := newTestEnv(t)
	f := e.fixture(t)

	resp := e.request(t, http.MethodGet, "/api/v1/products/"+f.product.ID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got serializers.ProductRepresentation
	decode(t, resp, &got)

	assert.Equal(t, "Classic Tee", got.Name)
	assert.Equal(t, "19.99", got.Price)
	assert.Equal(t, "Acme", got.BrandName)
	require.NotNil(t, got.CategoryName)
	assert.Equal(t, "Shirts", *got.CategoryName)
	assert.Equal(t, "T-Shirt", got.ProductType)
	assert.Equal(t, map[string]string{"Color": "Red"}, got.Specification)
	require.Len(t, got.ProductImage, 1)
	assert.Equal(t, 1, got.ProductImage[0].Order)
}

func TestAPI_ProductCreateValidation(t *testing.T) {
	e := newTestEnv(t)
	f := e.fixture(t)

	body := `{"name":"Hoodie","brand_id":"` + f.brand.ID + `","product_type_id":"` + f.ptype.ID +
		`","price":"-5","sku":"HD-1","stock_qty":-1}`
	resp := e.request(t, http.MethodPost, "/api/v1/products", body, sidAdmin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var vb validationBody
	decode(t, resp, &vb)
	assert.Equal(t, "validation failed", vb.Error)
	assert.Equal(t, []string{serializers.MsgPriceNotPositive}, vb.Fields["price"])
	assert.Equal(t, []string{serializers.MsgStockNegative}, vb.Fields["stock_qty"])

	body = `{"name":"Hoodie","brand_id":"` + f.brand.ID + `","product_type_id":"` + f.ptype.ID +
		`","price":"12.5","sku":"HD-1","stock_qty":3}`
	resp = e.request(t, http.MethodPost, "/api/v1/products", body, sidAdmin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var got serializers.ProductRepresentation
	decode(t, resp, &got)
	assert.Equal(t, "12.50", got.Price)
	assert.Nil(t, got.CategoryName)
	assert.Empty(t, got.Specification)
}

func TestAPI_DuplicateAttributeRejected(t *testing.T) {
	e := newTestEnv(t)
	f := e.fixture(t)

	resp := e.request(t, http.MethodPost, "/api/v1/products/"+f.product.ID+"/attribute-values",
		`{"attribute_value_id":"`+f.blue.ID+`"}`, sidAdmin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var vb validationBody
	decode(t, resp, &vb)
	assert.Equal(t, []string{"Duplicate attribute exists"}, vb.Fields[domain.NonFieldErrors])

	// freeing the attribute lets the other value in
	resp = e.request(t, http.MethodDelete, "/api/v1/products/"+f.product.ID+"/attribute-values/"+f.red.ID, "", sidAdmin)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.request(t, http.MethodPost, "/api/v1/products/"+f.product.ID+"/attribute-values",
		`{"attribute_value_id":"`+f.blue.ID+`"}`, sidAdmin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var got serializers.ProductRepresentation
	decode(t, resp, &got)
	assert.Equal(t, map[string]string{"Color": "Blue"}, got.Specification)
}

func TestAPI_ImageOrder(t *testing.T) {
	e := newTestEnv(t)
	f := e.fixture(t)
	path := "/api/v1/products/" + f.product.ID + "/images"

	resp := e.request(t, http.MethodPost, path, `{"alternative_text":"back","url":"https://cdn.shopcatalog.test/back.jpg"}`, sidAdmin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var img serializers.ImageRepresentation
	decode(t, resp, &img)
	assert.Equal(t, 2, img.Order)

	resp = e.request(t, http.MethodPost, path, `{"alternative_text":"side","url":"https://cdn.shopcatalog.test/side.jpg","order":1}`, sidAdmin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var vb validationBody
	decode(t, resp, &vb)
	assert.Equal(t, []string{"Duplicate order value."}, vb.Fields[domain.NonFieldErrors])

	resp = e.request(t, http.MethodPost, path, `{"alternative_text":"side","url":"not a url"}`, sidAdmin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &vb)
	assert.Contains(t, vb.Fields, "url")

	resp = e.request(t, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var imgs []serializers.ImageRepresentation
	decode(t, resp, &imgs)
	require.Len(t, imgs, 2)
	assert.Equal(t, "front", imgs[0].AlternativeText)
}

func TestAPI_InactiveProductHiddenFromPublic(t *testing.T) {
	e := newTestEnv(t)
	f := e.fixture(t)
	f.product.IsActive = false
	require.NoError(t, e.set.Products.Update(context.Background(), &f.product))

	resp := e.request(t, http.MethodGet, "/api/v1/products/"+f.product.ID, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = e.request(t, http.MethodGet, "/api/v1/products/"+f.product.ID, "", sidAdmin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.request(t, http.MethodGet, "/api/v1/products/"+f.product.ID+"/images", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = e.request(t, http.MethodGet, "/api/v1/products/"+f.product.ID+"/images", "", sidAdmin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var imgs []serializers.ImageRepresentation
	decode(t, resp, &imgs)
	assert.Len(t, imgs, 1)

	var list struct {
		Results []serializers.ProductSummary `json:"results"`
	}
	decode(t, e.request(t, http.MethodGet, "/api/v1/products", "", ""), &list)
	assert.Empty(t, list.Results)
	decode(t, e.request(t, http.MethodGet, "/api/v1/products", "", sidAdmin), &list)
	assert.Len(t, list.Results, 1)
}

func TestAPI_CategoryWithChildrenCannotBeDeleted(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	parent := domain.Category{Name: "Clothing", IsActive: true}
	require.NoError(t, e.set.Categories.Create(ctx, &parent))
	child := domain.Category{Name: "Shirts", ParentID: &parent.ID, IsActive: true}
	require.NoError(t, e.set.Categories.Create(ctx, &child))

	resp := e.request(t, http.MethodDelete, "/api/v1/categories/"+parent.ID, "", sidAdmin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.request(t, http.MethodDelete, "/api/v1/categories/"+child.ID, "", sidAdmin)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.request(t, http.MethodDelete, "/api/v1/categories/"+parent.ID, "", sidAdmin)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_InactiveChildCategoryHiddenFromPublic(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	parent := domain.Category{Name: "Clothing", IsActive: true}
	require.NoError(t, e.set.Categories.Create(ctx, &parent))
	for _, c := range []domain.Category{{Name: "Shirts", IsActive: true}, {Name: "Hidden"}} {
		c.ParentID = &parent.ID
		require.NoError(t, e.set.Categories.Create(ctx, &c))
	}

	var got serializers.CategoryRepresentation
	decode(t, e.request(t, http.MethodGet, "/api/v1/categories/"+parent.ID, "", ""), &got)
	require.Len(t, got.Children, 1)
	assert.Equal(t, "Shirts", got.Children[0].Name)

	got = serializers.CategoryRepresentation{}
	decode(t, e.request(t, http.MethodGet, "/api/v1/categories/"+parent.ID, "", sidAdmin), &got)
	assert.Len(t, got.Children, 2)
}

func TestAPI_MalformedIDIsNotFound(t *testing.T) {
	e := newTestEnv(t)
	resp := e.request(t, http.MethodGet, "/api/v1/products/not.an.id", "", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "not found", body["error"])
}

func TestAPI_SearchAndAvailability(t *testing.T) {
	e := newTestEnv(t)
	f := e.fixture(t)

	var res struct {
		Count   int                          `json:"count"`
		Results []serializers.ProductSummary `json:"results"`
	}
	decode(t, e.request(t, http.MethodGet, "/api/v1/search?q=tee-001", "", ""), &res)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, f.product.ID, res.Results[0].ID)

	decode(t, e.request(t, http.MethodGet, "/api/v1/search?q=phone", "", ""), &res)
	assert.Zero(t, res.Count)

	resp := e.request(t, http.MethodGet, "/api/v1/search?q=%3Cscript%3E", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var a domain.Availability
	decode(t, e.request(t, http.MethodGet, "/api/v1/products/"+f.product.ID+"/availability", "", ""), &a)
	assert.Equal(t, domain.Availability{Status: domain.InStock, Qty: 40}, a)
}

func TestAPI_ProductTypeAttributes(t *testing.T) {
	e := newTestEnv(t)
	f := e.fixture(t)
	ctx := context.Background()
	size := domain.Attribute{Name: "Size"}
	require.NoError(t, e.set.Attributes.Create(ctx, &size))

	path := "/api/v1/product-types/" + f.ptype.ID + "/attributes"
	resp := e.request(t, http.MethodPost, path, `{"attribute_id":"`+size.ID+`"}`, sidAdmin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var pt serializers.ProductTypeRepresentation
	decode(t, resp, &pt)
	assert.Len(t, pt.Attributes, 2)

	resp = e.request(t, http.MethodPost, path, `{"attribute_id":"`+size.ID+`"}`, sidAdmin)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.request(t, http.MethodDelete, path+"/"+size.ID, "", sidAdmin)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// the type is still used by a product
	resp = e.request(t, http.MethodDelete, "/api/v1/product-types/"+f.ptype.ID, "", sidAdmin)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
