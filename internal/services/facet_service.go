package services

import (
	"context"

	"shopcatalog/internal/cache"
	"shopcatalog/internal/domain"
	"shopcatalog/internal/repos"
)

// FacetService manages attributes, their values and product types.
type FacetService struct {
	Attrs *repos.AttributeRepo
	Types *repos.ProductTypeRepo
	PAVs  *repos.ProductAttributeRepo
	Prods *repos.ProductRepo
	Cache cache.ProductCache
}

func NewFacetService(db repos.Set, c cache.ProductCache) *FacetService {
	if c == nil {
		c = cache.Nop{}
	}
	return &FacetService{Attrs: db.Attributes, Types: db.ProductTypes, PAVs: db.ProductAttributes, Prods: db.Products, Cache: c}
}

func (s *FacetService) ListAttributes(ctx context.Context) ([]domain.Attribute, error) {
	return s.Attrs.List(ctx)
}

// Attribute returns the attribute with its values.
func (s *FacetService) Attribute(ctx context.Context, id string) (domain.Attribute, []domain.AttributeValue, error) {
	a, err := s.Attrs.Get(ctx, id)
	if err != nil {
		return a, nil, err
	}
	vals, err := s.Attrs.ListValues(ctx, id)
	return a, vals, err
}

func (s *FacetService) CreateAttribute(ctx context.Context, a *domain.Attribute) error {
	return s.Attrs.Create(ctx, a)
}

// UpdateAttribute renames an attribute. The name is a key of every holding
// product's specification, so those representations are dropped.
func (s *FacetService) UpdateAttribute(ctx context.Context, a *domain.Attribute) error {
	if err := s.Attrs.Update(ctx, a); err != nil {
		return err
	}
	ids, err := s.PAVs.ProductIDsForAttribute(ctx, a.ID)
	if err != nil {
		s.Cache.InvalidateAll(ctx)
		return nil
	}
	s.Cache.Invalidate(ctx, ids...)
	return nil
}

func (s *FacetService) DeleteAttribute(ctx context.Context, id string) error {
	ids, err := s.PAVs.ProductIDsForAttribute(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Attrs.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Invalidate(ctx, ids...)
	return nil
}

func (s *FacetService) ListValues(ctx context.Context) ([]domain.AttributeValue, error) {
	return s.Attrs.AllValues(ctx)
}

func (s *FacetService) Value(ctx context.Context, id string) (domain.AttributeValue, error) {
	return s.Attrs.GetValue(ctx, id)
}

func (s *FacetService) CreateValue(ctx context.Context, v *domain.AttributeValue) error {
	if _, err := s.Attrs.Get(ctx, v.AttributeID); err != nil {
		return err
	}
	if err := s.Attrs.CreateValue(ctx, v); err != nil {
		return err
	}
	created, err := s.Attrs.GetValue(ctx, v.ID)
	if err == nil {
		*v = created
	}
	return err
}

func (s *FacetService) UpdateValue(ctx context.Context, v *domain.AttributeValue) error {
	if err := s.Attrs.UpdateValue(ctx, v); err != nil {
		return err
	}
	updated, err := s.Attrs.GetValue(ctx, v.ID)
	if err != nil {
		return err
	}
	*v = updated
	s.Cache.InvalidateAll(ctx)
	return nil
}

func (s *FacetService) DeleteValue(ctx context.Context, id string) error {
	if err := s.Attrs.DeleteValue(ctx, id); err != nil {
		return err
	}
	// which products held the value is gone with the rows
	s.Cache.InvalidateAll(ctx)
	return nil
}

func (s *FacetService) ListProductTypes(ctx context.Context) ([]domain.ProductType, error) {
	return s.Types.List(ctx)
}

func (s *FacetService) ProductType(ctx context.Context, id string) (domain.ProductType, error) {
	return s.Types.Get(ctx, id)
}

func (s *FacetService) CreateProductType(ctx context.Context, pt *domain.ProductType) error {
	return s.Types.Create(ctx, pt)
}

// UpdateProductType renames a type and drops the representations of the
// products using it.
func (s *FacetService) UpdateProductType(ctx context.Context, pt *domain.ProductType) error {
	if err := s.Types.Update(ctx, pt); err != nil {
		return err
	}
	ids, err := s.Prods.IDs(ctx, domain.ProductFilter{ProductTypeID: pt.ID})
	if err != nil {
		s.Cache.InvalidateAll(ctx)
		return nil
	}
	s.Cache.Invalidate(ctx, ids...)
	return nil
}

func (s *FacetService) DeleteProductType(ctx context.Context, id string) error {
	return s.Types.Delete(ctx, id)
}

func (s *FacetService) AddTypeAttribute(ctx context.Context, productTypeID, attributeID string) (domain.ProductTypeAttribute, error) {
	if _, err := s.Types.Get(ctx, productTypeID); err != nil {
		return domain.ProductTypeAttribute{}, err
	}
	return s.Types.AddAttribute(ctx, productTypeID, attributeID)
}

func (s *FacetService) RemoveTypeAttribute(ctx context.Context, productTypeID, attributeID string) error {
	return s.Types.RemoveAttribute(ctx, productTypeID, attributeID)
}
