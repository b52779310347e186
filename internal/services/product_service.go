package services

import (
	"context"
	"encoding/json"
	"errors"

	"shopcatalog/internal/cache"
	"shopcatalog/internal/domain"
	"shopcatalog/internal/repos"
	"shopcatalog/internal/serializers"
)

// ProductService assembles product details and their cached representation.
type ProductService struct {
	Prods  *repos.ProductRepo
	Brands *repos.BrandRepo
	Cats   *repos.CategoryRepo
	Types  *repos.ProductTypeRepo
	PAVs   *repos.ProductAttributeRepo
	Images *repos.ImageRepo
	Cache  cache.ProductCache
}

func NewProductService(db repos.Set, c cache.ProductCache) *ProductService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ProductService{
		Prods: db.Products, Brands: db.Brands, Cats: db.Categories, Types: db.ProductTypes,
		PAVs: db.ProductAttributes, Images: db.Images, Cache: c,
	}
}

func (s *ProductService) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	return s.Prods.List(ctx, f)
}

func (s *ProductService) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *ProductService) ListByBrand(ctx context.Context, brandID string) ([]domain.Product, error) {
	return s.Prods.ListByBrand(ctx, brandID)
}

// Detail loads the product with brand, category, type, images and values.
func (s *ProductService) Detail(ctx context.Context, id string) (domain.ProductDetail, error) {
	var d domain.ProductDetail
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return d, err
	}
	d.Product = p
	if d.Brand, err = s.Brands.Get(ctx, p.BrandID); err != nil {
		return d, err
	}
	if p.CategoryID != nil {
		c, err := s.Cats.Get(ctx, *p.CategoryID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return d, err
		}
		if err == nil {
			d.Category = &c
		}
	}
	if d.ProductType, err = s.Types.Get(ctx, p.ProductTypeID); err != nil {
		return d, err
	}
	if d.Images, err = s.Images.ListForProduct(ctx, id); err != nil {
		return d, err
	}
	d.AttributeValues, err = s.PAVs.ListForProduct(ctx, id)
	return d, err
}

// Representation returns the product's JSON representation, read through
// the cache. The stamp taken on the miss keeps a writer's invalidation from
// being overwritten by bytes built before it.
func (s *ProductService) Representation(ctx context.Context, id string) ([]byte, error) {
	b, stamp, ok := s.Cache.Get(ctx, id)
	if ok {
		return b, nil
	}
	d, err := s.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err = json.Marshal(serializers.FromDetail(d))
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, id, stamp, b)
	return b, nil
}

func (s *ProductService) Create(ctx context.Context, p *domain.Product) error {
	return s.Prods.Create(ctx, p)
}

func (s *ProductService) Update(ctx context.Context, p *domain.Product) error {
	if err := s.Prods.Update(ctx, p); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, p.ID)
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.Prods.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, id)
	return nil
}

func (s *ProductService) AttributeValues(ctx context.Context, productID string) ([]domain.AttributeValue, error) {
	return s.PAVs.ListForProduct(ctx, productID)
}

func (s *ProductService) AssignAttributeValue(ctx context.Context, productID, valueID string) (domain.ProductAttributeValue, error) {
	pav, err := s.PAVs.Assign(ctx, productID, valueID)
	if err != nil {
		return pav, err
	}
	s.Cache.Invalidate(ctx, productID)
	return pav, nil
}

func (s *ProductService) RemoveAttributeValue(ctx context.Context, productID, valueID string) error {
	if err := s.PAVs.Remove(ctx, productID, valueID); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, productID)
	return nil
}

func (s *ProductService) ListImages(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	return s.Images.ListForProduct(ctx, productID)
}

func (s *ProductService) Image(ctx context.Context, productID, id string) (domain.ProductImage, error) {
	return s.Images.Get(ctx, productID, id)
}

// SaveImage inserts or updates img. With assignOrder the image goes after
// the product's last image.
func (s *ProductService) SaveImage(ctx context.Context, img *domain.ProductImage, assignOrder bool) error {
	if err := s.Images.Save(ctx, img, assignOrder); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, img.ProductID)
	return nil
}

func (s *ProductService) DeleteImage(ctx context.Context, productID, id string) error {
	if err := s.Images.Delete(ctx, productID, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, productID)
	return nil
}
