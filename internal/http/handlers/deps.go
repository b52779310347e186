package handlers

import (
	"github.com/jmoiron/sqlx"

	"shopcatalog/internal/admin"
	"shopcatalog/internal/cache"
	"shopcatalog/internal/config"
	"shopcatalog/internal/repos"
	"shopcatalog/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	BrandHandler     *BrandHandler
	FacetHandler     *FacetHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SearchHandler    *SearchHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, c cache.ProductCache) *Deps {
	if c == nil {
		c = cache.Nop{}
	}
	set := repos.NewSet(db)

	authSvc := services.NewAuthService(set.Users)
	catalogSvc := services.NewCatalogService(set, c)
	facetSvc := services.NewFacetService(set, c)
	productSvc := services.NewProductService(set, c)
	invSvc := services.NewInventoryService(set.Products)

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		BrandHandler:     &BrandHandler{Catalog: catalogSvc},
		FacetHandler:     &FacetHandler{Facets: facetSvc},
		ProductHandler:   &ProductHandler{Products: productSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		SearchHandler:    &SearchHandler{Products: productSvc},
		AdminHandler: &AdminHandler{
			Site:     admin.NewSite(catalogSvc, facetSvc, productSvc),
			Products: productSvc,
			Facets:   facetSvc,
		},
	}
}
