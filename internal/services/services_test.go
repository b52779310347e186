package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcatalog/internal/cache"
	"shopcatalog/internal/domain"
	"shopcatalog/internal/repos"
	"shopcatalog/internal/serializers"
	"shopcatalog/internal/services"
)

// memCache records what the services ask of the cache. beforeSet, when
// set, runs at the start of every Set.
type memCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	gen         int64
	ver         map[string]int64
	invalidated []string
	flushes     int
	beforeSet   func()
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ver: map[string]int64{}}
}

func (m *memCache) Get(_ context.Context, id string) ([]byte, cache.Stamp, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[id]
	return b, cache.Stamp{Gen: m.gen, Ver: m.ver[id]}, ok
}

func (m *memCache) Set(_ context.Context, id string, st cache.Stamp, b []byte) {
	if m.beforeSet != nil {
		m.beforeSet()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if st != (cache.Stamp{Gen: m.gen, Ver: m.ver[id]}) {
		return
	}
	m.data[id] = b
}

func (m *memCache) Invalidate(_ context.Context, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.data, id)
		m.ver[id]++
		m.invalidated = append(m.invalidated, id)
	}
}

func (m *memCache) InvalidateAll(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	m.gen++
	m.flushes++
}

type env struct {
	db      *sqlx.DB
	set     repos.Set
	cache   *memCache
	catalog *services.CatalogService
	facets  *services.FacetService
	prods   *services.ProductService

	brand domain.Brand
	cat   domain.Category
	ptype domain.ProductType
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{db: db, set: repos.NewSet(db), cache: newMemCache()}
	e.catalog = services.NewCatalogService(e.set, e.cache)
	e.facets = services.NewFacetService(e.set, e.cache)
	e.prods = services.NewProductService(e.set, e.cache)

	ctx := context.Background()
	e.brand = domain.Brand{Name: "Acme", IsActive: true}
	require.NoError(t, e.catalog.CreateBrand(ctx, &e.brand))
	e.cat = domain.Category{Name: "Shirts", IsActive: true}
	require.NoError(t, e.catalog.CreateCategory(ctx, &e.cat))
	e.ptype = domain.ProductType{Name: "T-Shirt"}
	require.NoError(t, e.facets.CreateProductType(ctx, &e.ptype))
	return e
}

func (e *env) product(t *testing.T, sku string, stock int) domain.Product {
	t.Helper()
	p := domain.Product{
		Name: "Tee " + sku, BrandID: e.brand.ID, CategoryID: &e.cat.ID, ProductTypeID: e.ptype.ID,
		IsActive: true, Price: decimal.RequireFromString("19.99"), SKU: sku, StockQty: stock,
	}
	require.NoError(t, e.prods.Create(context.Background(), &p))
	return p
}

func (e *env) value(t *testing.T, attr, val string) domain.AttributeValue {
	t.Helper()
	ctx := context.Background()
	attrs, err := e.facets.ListAttributes(ctx)
	require.NoError(t, err)
	var a domain.Attribute
	for _, x := range attrs {
		if x.Name == attr {
			a = x
		}
	}
	if a.ID == "" {
		a = domain.Attribute{Name: attr}
		require.NoError(t, e.facets.CreateAttribute(ctx, &a))
	}
	v := domain.AttributeValue{AttributeID: a.ID, Value: val}
	require.NoError(t, e.facets.CreateValue(ctx, &v))
	return v
}

func TestRepresentationSpecificationAndCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "TEE-1", 3)
	red, medium := e.value(t, "Color", "Red"), e.value(t, "Size", "M")
	assert.Equal(t, "Color", red.AttributeName)

	_, err := e.prods.AssignAttributeValue(ctx, p.ID, red.ID)
	require.NoError(t, err)
	_, err = e.prods.AssignAttributeValue(ctx, p.ID, medium.ID)
	require.NoError(t, err)
	img := domain.ProductImage{ProductID: p.ID, AlternativeText: "front", URL: "https://x/1.jpg"}
	require.NoError(t, e.prods.SaveImage(ctx, &img, true))

	b, err := e.prods.Representation(ctx, p.ID)
	require.NoError(t, err)
	var rep serializers.ProductRepresentation
	require.NoError(t, json.Unmarshal(b, &rep))
	assert.Equal(t, map[string]string{"Color": "Red", "Size": "M"}, rep.Specification)
	assert.Equal(t, "Acme", rep.BrandName)
	require.NotNil(t, rep.CategoryName)
	assert.Equal(t, "Shirts", *rep.CategoryName)
	assert.Equal(t, "19.99", rep.Price)
	require.Len(t, rep.ProductImage, 1)
	assert.Equal(t, 1, rep.ProductImage[0].Order)

	cached, _, ok := e.cache.Get(ctx, p.ID)
	require.True(t, ok)
	assert.JSONEq(t, string(b), string(cached))

	// a brand rename must not serve the stale brand_name
	e.brand.Name = "Acme Co"
	require.NoError(t, e.catalog.UpdateBrand(ctx, &e.brand))
	_, _, ok = e.cache.Get(ctx, p.ID)
	assert.False(t, ok)
	b, err = e.prods.Representation(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &rep))
	assert.Equal(t, "Acme Co", rep.BrandName)
}

func TestRepresentationNotCachedWhenInvalidatedWhileBuilding(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "TEE-1", 3)

	// the rename lands after the detail was read but before it is stored
	e.cache.beforeSet = func() {
		e.cache.beforeSet = nil
		renamed := p
		renamed.Name = "Renamed Tee"
		require.NoError(t, e.prods.Update(ctx, &renamed))
	}
	_, err := e.prods.Representation(ctx, p.ID)
	require.NoError(t, err)
	_, _, ok := e.cache.Get(ctx, p.ID)
	assert.False(t, ok, "stale representation was cached")

	b, err := e.prods.Representation(ctx, p.ID)
	require.NoError(t, err)
	var rep serializers.ProductRepresentation
	require.NoError(t, json.Unmarshal(b, &rep))
	assert.Equal(t, "Renamed Tee", rep.Name)
	_, _, ok = e.cache.Get(ctx, p.ID)
	assert.True(t, ok)
}

func TestDuplicateAttributeThroughService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "TEE-1", 3)
	red, blue := e.value(t, "Color", "Red"), e.value(t, "Color", "Blue")

	_, err := e.prods.AssignAttributeValue(ctx, p.ID, red.ID)
	require.NoError(t, err)
	_, err = e.prods.AssignAttributeValue(ctx, p.ID, blue.ID)
	v, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Duplicate attribute exists"}, v.Fields[domain.NonFieldErrors])

	require.NoError(t, e.prods.RemoveAttributeValue(ctx, p.ID, red.ID))
	_, err = e.prods.AssignAttributeValue(ctx, p.ID, blue.ID)
	require.NoError(t, err)
}

func TestConcurrentAssignKeepsOneValuePerAttribute(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "TEE-1", 3)
	vals := []domain.AttributeValue{
		e.value(t, "Color", "Red"), e.value(t, "Color", "Blue"),
		e.value(t, "Color", "Green"), e.value(t, "Color", "Black"),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(vals))
	for i, v := range vals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.prods.AssignAttributeValue(ctx, p.ID, v.ID)
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		_, isValidation := domain.AsValidation(err)
		assert.True(t, isValidation, "unexpected error %v", err)
	}
	assert.Equal(t, 1, ok)
	held, err := e.prods.AttributeValues(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, held, 1)
}

func TestDuplicateImageOrderThroughService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "TEE-1", 3)

	a := domain.ProductImage{ProductID: p.ID, AlternativeText: "a", URL: "https://x/a.jpg", Order: 1}
	require.NoError(t, e.prods.SaveImage(ctx, &a, false))
	b := domain.ProductImage{ProductID: p.ID, AlternativeText: "b", URL: "https://x/b.jpg", Order: 1}
	v, ok := domain.AsValidation(e.prods.SaveImage(ctx, &b, false))
	require.True(t, ok)
	assert.Equal(t, []string{"Duplicate order value."}, v.Fields[domain.NonFieldErrors])

	imgs, err := e.prods.ListImages(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, imgs, 1)
}

func TestCategoryTreeAndMoves(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	clothing := domain.Category{Name: "Clothing", IsActive: true}
	require.NoError(t, e.catalog.CreateCategory(ctx, &clothing))
	e.cat.ParentID = &clothing.ID
	require.NoError(t, e.catalog.UpdateCategory(ctx, &e.cat))
	hats := domain.Category{Name: "Hats", ParentID: &clothing.ID, IsActive: false}
	require.NoError(t, e.catalog.CreateCategory(ctx, &hats))

	tree, err := e.catalog.CategoryTree(ctx, false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "Clothing", tree[0].Name)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "Hats", tree[0].Children[0].Name)
	assert.Equal(t, "Shirts", tree[0].Children[1].Name)

	active, err := e.catalog.CategoryTree(ctx, true)
	require.NoError(t, err)
	require.Len(t, active[0].Children, 1)

	// Clothing may not go under its own child
	clothing.ParentID = &e.cat.ID
	v, ok := domain.AsValidation(e.catalog.UpdateCategory(ctx, &clothing))
	require.True(t, ok)
	assert.Contains(t, v.Fields, "parent")

	self := e.cat.ID
	e.cat.ParentID = &self
	_, ok = domain.AsValidation(e.catalog.UpdateCategory(ctx, &e.cat))
	assert.True(t, ok)

	assert.ErrorIs(t, e.catalog.DeleteCategory(ctx, clothing.ID), domain.ErrProtected)
}

func TestDeletesInvalidateRepresentations(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "TEE-1", 3)
	red := e.value(t, "Color", "Red")
	_, err := e.prods.AssignAttributeValue(ctx, p.ID, red.ID)
	require.NoError(t, err)

	_, err = e.prods.Representation(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, e.facets.DeleteAttribute(ctx, red.AttributeID))
	_, _, ok := e.cache.Get(ctx, p.ID)
	assert.False(t, ok)

	_, err = e.prods.Representation(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, e.catalog.DeleteCategory(ctx, e.cat.ID))
	d, err := e.prods.Detail(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, d.Category)
	assert.Contains(t, e.cache.invalidated, p.ID)

	assert.ErrorIs(t, e.facets.DeleteProductType(ctx, e.ptype.ID), domain.ErrProtected)
	require.NoError(t, e.catalog.DeleteBrand(ctx, e.brand.ID))
	_, err = e.prods.Representation(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, e.facets.DeleteProductType(ctx, e.ptype.ID))
}

func TestAuthRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	auth := services.NewAuthService(e.set.Users)

	in := serializers.RegistrationInput{
		Username: "bob", Password: "T4ngerine-Orbit", Password2: "T4ngerine-Orbit",
		Email: "bob@shop.test", FirstName: "Bob", LastName: "Stone",
	}
	u, err := auth.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEqual(t, in.Password, u.Hash)

	in.Username = "bob2"
	_, err = auth.Register(ctx, in)
	v, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{serializers.MsgEmailTaken}, v.Fields["email"])

	_, err = auth.Login(ctx, "sid-1", "bob@shop.test", "wrong")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = auth.Login(ctx, "sid-1", "nobody@shop.test", "T4ngerine-Orbit")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	_, err = auth.Login(ctx, "sid-1", "BOB@shop.test", "T4ngerine-Orbit")
	require.NoError(t, err)
	cur, err := auth.CurrentUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, cur.ID)

	require.NoError(t, auth.Logout(ctx, "sid-1"))
	_, err = auth.CurrentUser(ctx, "sid-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
