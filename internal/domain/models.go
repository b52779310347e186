package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	ParentID  *string    `db:"parent_id"`
	IsActive  bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	Children  []Category `db:"-"`
}

type Brand struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	IsActive bool   `db:"is_active"`
}

type Attribute struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

type AttributeValue struct {
	ID            string `db:"id"`
	Value         string `db:"attribute_value"`
	AttributeID   string `db:"attribute_id"`
	AttributeName string `db:"attribute_name"` // joined
}

func (v AttributeValue) String() string { return fmt.Sprintf("%s-%s", v.AttributeName, v.Value) }

type ProductType struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Attributes []Attribute `db:"-"`
}

type ProductTypeAttribute struct {
	ID            string `db:"id"`
	ProductTypeID string `db:"product_type_id"`
	AttributeID   string `db:"attribute_id"`
}

type Product struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	IsDigital     bool            `db:"is_digital"`
	BrandID       string          `db:"brand_id"`
	CategoryID    *string         `db:"category_id"`
	ProductTypeID string          `db:"product_type_id"`
	IsActive      bool            `db:"is_active"`
	CreatedAt     time.Time       `db:"created_at"`
	Price         decimal.Decimal `db:"price"`
	SKU           string          `db:"sku"`
	StockQty      int             `db:"stock_qty"`
}

// ProductAttributeValue links a product to one value. AttributeID is the
// value's attribute, stored so storage can enforce one value per attribute.
type ProductAttributeValue struct {
	ID               string `db:"id"`
	ProductID        string `db:"product_id"`
	AttributeValueID string `db:"attribute_value_id"`
	AttributeID      string `db:"attribute_id"`
}

type ProductImage struct {
	ID              string `db:"id"`
	ProductID       string `db:"product_id"`
	AlternativeText string `db:"alternative_text"`
	URL             string `db:"url"`
	Order           int    `db:"sort_order"`
}

func (i ProductImage) String() string { return strconv.Itoa(i.Order) }

// ProductDetail is a product with everything its representation needs.
type ProductDetail struct {
	Product
	Brand           Brand
	Category        *Category
	ProductType     ProductType
	Images          []ProductImage
	AttributeValues []AttributeValue
}

// ProductFilter narrows product listings. Empty fields are ignored.
type ProductFilter struct {
	Q             string // case-insensitive name or sku substring
	ActiveOnly    bool
	CategoryID    string
	BrandID       string
	ProductTypeID string
	Limit         int
	Offset        int
}

const (
	InStock    = "IN_STOCK"
	LowStock   = "LOW_STOCK"
	OutOfStock = "OUT_OF_STOCK"
)

type Availability struct {
	Status string `json:"status"`
	Qty    int    `json:"qty"`
}
