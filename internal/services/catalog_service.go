package services

import (
	"context"
	"errors"
	"sort"

	"shopcatalog/internal/cache"
	"shopcatalog/internal/domain"
	"shopcatalog/internal/repos"
)

// CatalogService owns categories and brands. Edits that change a product's
// brand_name or category_name drop the affected cached representations.
type CatalogService struct {
	Cats   *repos.CategoryRepo
	Brands *repos.BrandRepo
	Prods  *repos.ProductRepo
	Cache  cache.ProductCache
}

func NewCatalogService(db repos.Set, c cache.ProductCache) *CatalogService {
	if c == nil {
		c = cache.Nop{}
	}
	return &CatalogService{Cats: db.Categories, Brands: db.Brands, Prods: db.Products, Cache: c}
}

func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	return s.Cats.List(ctx, activeOnly)
}

// CategoryTree nests categories under their parents, children sorted by
// name. A category whose parent is filtered out becomes a root.
func (s *CatalogService) CategoryTree(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	flat, err := s.Cats.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(flat))
	for _, c := range flat {
		present[c.ID] = true
	}
	byParent := map[string][]domain.Category{}
	var roots []domain.Category
	for _, c := range flat {
		if c.ParentID == nil || !present[*c.ParentID] {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}
	var attach func(cs []domain.Category) []domain.Category
	attach = func(cs []domain.Category) []domain.Category {
		sort.Slice(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
		for i := range cs {
			cs[i].Children = attach(byParent[cs[i].ID])
		}
		return cs
	}
	return attach(roots), nil
}

// Category loads one category with its direct children. With activeOnly an
// inactive category is not found and inactive children are left out.
func (s *CatalogService) Category(ctx context.Context, id string, activeOnly bool) (domain.Category, error) {
	c, err := s.Cats.Get(ctx, id)
	if err != nil {
		return c, err
	}
	if activeOnly && !c.IsActive {
		return domain.Category{}, domain.ErrNotFound
	}
	c.Children, err = s.Cats.Children(ctx, id, activeOnly)
	return c, err
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *domain.Category) error {
	if err := s.checkParent(ctx, "", c.ParentID); err != nil {
		return err
	}
	return s.Cats.Create(ctx, c)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, c *domain.Category) error {
	if err := s.checkParent(ctx, c.ID, c.ParentID); err != nil {
		return err
	}
	if err := s.Cats.Update(ctx, c); err != nil {
		return err
	}
	s.invalidate(ctx, domain.ProductFilter{CategoryID: c.ID})
	return nil
}

// checkParent rejects unknown parents and parents that would close a loop.
func (s *CatalogService) checkParent(ctx context.Context, id string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return domain.NewFieldError("parent", "A category cannot be its own parent.")
	}
	if _, err := s.Cats.Get(ctx, *parentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewFieldError("parent", "Select a valid choice. That choice is not one of the available choices.")
		}
		return err
	}
	if id == "" {
		return nil
	}
	ancestors, err := s.Cats.Ancestors(ctx, *parentID)
	if err != nil {
		return err
	}
	for _, a := range ancestors {
		if a.ID == id {
			return domain.NewFieldError("parent", "A category cannot be moved under its own descendant.")
		}
	}
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	ids, err := s.Prods.IDs(ctx, domain.ProductFilter{CategoryID: id})
	if err != nil {
		return err
	}
	if err := s.Cats.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, ids...)
	return nil
}

func (s *CatalogService) ListBrands(ctx context.Context, activeOnly bool) ([]domain.Brand, error) {
	return s.Brands.List(ctx, activeOnly)
}

func (s *CatalogService) Brand(ctx context.Context, id string) (domain.Brand, error) {
	return s.Brands.Get(ctx, id)
}

func (s *CatalogService) CreateBrand(ctx context.Context, b *domain.Brand) error {
	return s.Brands.Create(ctx, b)
}

func (s *CatalogService) UpdateBrand(ctx context.Context, b *domain.Brand) error {
	if err := s.Brands.Update(ctx, b); err != nil {
		return err
	}
	s.invalidate(ctx, domain.ProductFilter{BrandID: b.ID})
	return nil
}

// DeleteBrand removes the brand and, by cascade, its products.
func (s *CatalogService) DeleteBrand(ctx context.Context, id string) error {
	ids, err := s.Prods.IDs(ctx, domain.ProductFilter{BrandID: id})
	if err != nil {
		return err
	}
	if err := s.Brands.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, ids...)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, f domain.ProductFilter) {
	ids, err := s.Prods.IDs(ctx, f)
	if err != nil {
		s.Cache.InvalidateAll(ctx)
		return
	}
	s.Cache.Invalidate(ctx, ids...)
}
