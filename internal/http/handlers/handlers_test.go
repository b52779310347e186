package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"shopcatalog/internal/config"
	"shopcatalog/internal/domain"
	"shopcatalog/internal/http/handlers"
	"shopcatalog/internal/repos"
)

const (
	sidAdmin = "sid-admin"
	sidAlice = "sid-alice"
)

type testEnv struct {
	app  *fiber.App
	db   *sqlx.DB
	set  repos.Set
	csrf string
}

// newTestEnv builds the full app over an in-memory database with the seeded
// users and one bound session each. Fetching the CSRF token costs one request
// against the global rate limit.
func newTestEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := config.Config{BodyLimit: 1 << 20, RateLimit: 10000}
	for _, f := range tweak {
		f(&cfg)
	}

	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repos.SeedUsers(ctx, db))

	set := repos.NewSet(db)
	require.NoError(t, set.Users.BindSession(ctx, sidAdmin, "u-admin"))
	require.NoError(t, set.Users.BindSession(ctx, sidAlice, "u-alice"))

	e := &testEnv{app: handlers.NewApp(handlers.NewDeps(db, cfg, nil), cfg), db: db, set: set}
	resp, err := e.app.Test(httptest.NewRequest(http.MethodGet, "/login", nil), -1)
	require.NoError(t, err)
	e.csrf = cookie(resp, "csrf_")
	require.NotEmpty(t, e.csrf, "csrf cookie missing")
	return e
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// request sends body as JSON when it looks like an object, as a form
// otherwise, with the CSRF cookie and header set.
func (e *testEnv) request(t *testing.T, method, path, body, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	switch {
	case strings.HasPrefix(body, "{"):
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	case body != "":
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: e.csrf})
	req.Header.Set("X-Csrf-Token", e.csrf)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

type validationBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

type fixture struct {
	brand   domain.Brand
	cat     domain.Category
	ptype   domain.ProductType
	color   domain.Attribute
	red     domain.AttributeValue
	blue    domain.AttributeValue
	product domain.Product
	image   domain.ProductImage
}

// fixture creates a Red "Classic Tee" with one image.
func (e *testEnv) fixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture

	f.brand = domain.Brand{Name: "Acme", IsActive: true}
	require.NoError(t, e.set.Brands.Create(ctx, &f.brand))
	f.cat = domain.Category{Name: "Shirts", IsActive: true}
	require.NoError(t, e.set.Categories.Create(ctx, &f.cat))

	f.color = domain.Attribute{Name: "Color"}
	require.NoError(t, e.set.Attributes.Create(ctx, &f.color))
	f.red = domain.AttributeValue{Value: "Red", AttributeID: f.color.ID}
	require.NoError(t, e.set.Attributes.CreateValue(ctx, &f.red))
	f.blue = domain.AttributeValue{Value: "Blue", AttributeID: f.color.ID}
	require.NoError(t, e.set.Attributes.CreateValue(ctx, &f.blue))

	f.ptype = domain.ProductType{Name: "T-Shirt"}
	require.NoError(t, e.set.ProductTypes.Create(ctx, &f.ptype))
	_, err := e.set.ProductTypes.AddAttribute(ctx, f.ptype.ID, f.color.ID)
	require.NoError(t, err)

	f.product = domain.Product{
		Name: "Classic Tee", Description: "Cotton.", BrandID: f.brand.ID, CategoryID: &f.cat.ID,
		ProductTypeID: f.ptype.ID, IsActive: true, Price: decimal.RequireFromString("19.99"),
		SKU: "TEE-001", StockQty: 40,
	}
	require.NoError(t, e.set.Products.Create(ctx, &f.product))
	_, err = e.set.ProductAttributes.Assign(ctx, f.product.ID, f.red.ID)
	require.NoError(t, err)

	f.image = domain.ProductImage{ProductID: f.product.ID, AlternativeText: "front", URL: "https://cdn.shopcatalog.test/front.jpg"}
	require.NoError(t, e.set.Images.Save(ctx, &f.image, true))
	return f
}
