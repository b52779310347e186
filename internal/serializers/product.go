package serializers

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shopcatalog/internal/domain"
	"shopcatalog/internal/validate"
)

type ImageRepresentation struct {
	ID              string `json:"id"`
	AlternativeText string `json:"alternative_text"`
	URL             string `json:"url"`
	Order           int    `json:"order"`
}

// ProductRepresentation is the public shape of a product. Attribute values
// are flattened into Specification as attribute name -> value.
type ProductRepresentation struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	BrandName     string                `json:"brand_name"`
	CategoryName  *string               `json:"category_name"`
	ProductType   string                `json:"product_type"`
	Price         string                `json:"price"`
	SKU           string                `json:"sku"`
	StockQty      int                   `json:"stock_qty"`
	IsDigital     bool                  `json:"is_digital"`
	IsActive      bool                  `json:"is_active"`
	CreatedAt     time.Time             `json:"created_at"`
	ProductImage  []ImageRepresentation `json:"product_image"`
	Specification map[string]string     `json:"specification"`
}

func FromDetail(d domain.ProductDetail) ProductRepresentation {
	out := ProductRepresentation{
		ID:            d.ID,
		Name:          d.Name,
		Description:   d.Description,
		BrandName:     d.Brand.Name,
		ProductType:   d.ProductType.Name,
		Price:         d.Price.StringFixed(2),
		SKU:           d.SKU,
		StockQty:      d.StockQty,
		IsDigital:     d.IsDigital,
		IsActive:      d.IsActive,
		CreatedAt:     d.CreatedAt,
		ProductImage:  make([]ImageRepresentation, 0, len(d.Images)),
		Specification: make(map[string]string, len(d.AttributeValues)),
	}
	if d.Category != nil {
		name := d.Category.Name
		out.CategoryName = &name
	}
	for _, img := range d.Images {
		out.ProductImage = append(out.ProductImage, FromImage(img))
	}
	for _, v := range d.AttributeValues {
		out.Specification[v.AttributeName] = v.Value
	}
	return out
}

func FromImage(img domain.ProductImage) ImageRepresentation {
	return ImageRepresentation{ID: img.ID, AlternativeText: img.AlternativeText, URL: img.URL, Order: img.Order}
}

// ProductSummary is the list-view shape.
type ProductSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	SKU      string `json:"sku"`
	StockQty int    `json:"stock_qty"`
	IsActive bool   `json:"is_active"`
}

func FromProduct(p domain.Product) ProductSummary {
	return ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price.StringFixed(2), SKU: p.SKU, StockQty: p.StockQty, IsActive: p.IsActive}
}

const (
	MsgPriceNotPositive = "Price must be greater than zero"
	MsgStockNegative    = "Stock quantity cannot be negative"
)

// ProductInput is the write shape for products.
type ProductInput struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Description   string          `json:"description"`
	IsDigital     bool            `json:"is_digital"`
	BrandID       string          `json:"brand_id" validate:"required"`
	CategoryID    *string         `json:"category_id"`
	ProductTypeID string          `json:"product_type_id" validate:"required"`
	IsActive      *bool           `json:"is_active"`
	Price         decimal.Decimal `json:"price"`
	SKU           string          `json:"sku" validate:"required,max=100"`
	StockQty      int             `json:"stock_qty"`
}

// Validate rejects bad input. Price and stock bounds live here only; storage
// accepts whatever it is given.
func (in *ProductInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	if in.CategoryID != nil && strings.TrimSpace(*in.CategoryID) == "" {
		in.CategoryID = nil
	}

	v := &domain.ValidationError{}
	if err := validate.Struct(in); err != nil {
		fv, ok := domain.AsValidation(err)
		if !ok {
			return err
		}
		v = fv
	}
	if !in.Price.IsPositive() {
		v.Add("price", MsgPriceNotPositive)
	} else if in.Price.Exponent() < -2 || in.Price.Abs().GreaterThanOrEqual(decimal.New(1, 8)) {
		v.Add("price", "Ensure that there are no more than 10 digits in total, with 2 decimal places.")
	}
	if in.StockQty < 0 {
		v.Add("stock_qty", MsgStockNegative)
	}
	return v.Err()
}

// Apply copies the input onto p, leaving identity and creation time alone.
func (in ProductInput) Apply(p *domain.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.IsDigital = in.IsDigital
	p.BrandID = in.BrandID
	p.CategoryID = in.CategoryID
	p.ProductTypeID = in.ProductTypeID
	p.IsActive = in.IsActive == nil || *in.IsActive
	p.Price = in.Price.Round(2)
	p.SKU = in.SKU
	p.StockQty = in.StockQty
}

// ImageInput adds or edits a product image. A nil Order places the image
// after the product's last one.
type ImageInput struct {
	AlternativeText string `json:"alternative_text" form:"alternative_text" validate:"required,max=100"`
	URL             string `json:"url" form:"url" validate:"required,url"`
	Order           *int   `json:"order" form:"order" validate:"omitempty,gte=0"`
}

func (in *ImageInput) Validate() error {
	in.AlternativeText = strings.TrimSpace(in.AlternativeText)
	in.URL = strings.TrimSpace(in.URL)
	return validate.Struct(in)
}

type AttributeValueAssignInput struct {
	AttributeValueID string `json:"attribute_value_id" form:"attribute_value_id" validate:"required"`
}

func (in *AttributeValueAssignInput) Validate() error {
	in.AttributeValueID = strings.TrimSpace(in.AttributeValueID)
	return validate.Struct(in)
}
