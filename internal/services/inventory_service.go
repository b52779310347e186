package services

import (
	"context"

	"shopcatalog/internal/domain"
	"shopcatalog/internal/repos"
)

const lowStockBelow = 5

type InventoryService struct {
	Prods *repos.ProductRepo
}

func NewInventoryService(prods *repos.ProductRepo) *InventoryService {
	return &InventoryService{Prods: prods}
}

// CheckAvailability converts stock_qty to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
// Digital products are always in stock.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	return s.availability(ctx, productID, false)
}

// PublicAvailability hides inactive products behind ErrNotFound.
func (s *InventoryService) PublicAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	return s.availability(ctx, productID, true)
}

func (s *InventoryService) availability(ctx context.Context, productID string, activeOnly bool) (domain.Availability, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}
	if activeOnly && !p.IsActive {
		return domain.Availability{}, domain.ErrNotFound
	}
	return Availability(p), nil
}

func Availability(p domain.Product) domain.Availability {
	if p.IsDigital {
		return domain.Availability{Status: domain.InStock, Qty: p.StockQty}
	}
	status := domain.OutOfStock
	switch {
	case p.StockQty >= lowStockBelow:
		status = domain.InStock
	case p.StockQty > 0:
		status = domain.LowStock
	}
	return domain.Availability{Status: status, Qty: p.StockQty}
}
