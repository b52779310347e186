package serializers

import (
	"strings"
	"time"

	"shopcatalog/internal/domain"
	"shopcatalog/internal/validate"
)

type CategoryRepresentation struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	ParentID  *string                  `json:"parent"`
	IsActive  bool                     `json:"is_active"`
	CreatedAt time.Time                `json:"created_at"`
	Children  []CategoryRepresentation `json:"children,omitempty"`
}

func FromCategory(c domain.Category) CategoryRepresentation {
	out := CategoryRepresentation{ID: c.ID, Name: c.Name, ParentID: c.ParentID, IsActive: c.IsActive, CreatedAt: c.CreatedAt}
	for _, ch := range c.Children {
		out.Children = append(out.Children, FromCategory(ch))
	}
	return out
}

func FromCategories(cs []domain.Category) []CategoryRepresentation {
	out := make([]CategoryRepresentation, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromCategory(c))
	}
	return out
}

type CategoryInput struct {
	Name     string  `json:"name" form:"name" validate:"required,max=100"`
	ParentID *string `json:"parent" form:"parent"`
	IsActive *bool   `json:"is_active" form:"is_active"`
}

func (in *CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.ParentID != nil && strings.TrimSpace(*in.ParentID) == "" {
		in.ParentID = nil
	}
	return validate.Struct(in)
}

func (in CategoryInput) Apply(c *domain.Category) {
	c.Name = in.Name
	c.ParentID = in.ParentID
	c.IsActive = in.IsActive == nil || *in.IsActive
}

type BrandRepresentation struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func FromBrand(b domain.Brand) BrandRepresentation {
	return BrandRepresentation{ID: b.ID, Name: b.Name, IsActive: b.IsActive}
}

type BrandInput struct {
	Name     string `json:"name" form:"name" validate:"required,max=100"`
	IsActive *bool  `json:"is_active" form:"is_active"`
}

func (in *BrandInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	return validate.Struct(in)
}

func (in BrandInput) Apply(b *domain.Brand) {
	b.Name = in.Name
	b.IsActive = in.IsActive == nil || *in.IsActive
}

type AttributeValueRepresentation struct {
	ID            string `json:"id"`
	Value         string `json:"attribute_value"`
	AttributeID   string `json:"attribute"`
	AttributeName string `json:"attribute_name,omitempty"`
}

func FromAttributeValue(v domain.AttributeValue) AttributeValueRepresentation {
	return AttributeValueRepresentation{ID: v.ID, Value: v.Value, AttributeID: v.AttributeID, AttributeName: v.AttributeName}
}

type AttributeRepresentation struct {
	ID          string                         `json:"id"`
	Name        string                         `json:"name"`
	Description string                         `json:"description"`
	Values      []AttributeValueRepresentation `json:"values"`
}

func FromAttribute(a domain.Attribute, values []domain.AttributeValue) AttributeRepresentation {
	out := AttributeRepresentation{ID: a.ID, Name: a.Name, Description: a.Description,
		Values: make([]AttributeValueRepresentation, 0, len(values))}
	for _, v := range values {
		out.Values = append(out.Values, FromAttributeValue(v))
	}
	return out
}

type AttributeInput struct {
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Description string `json:"description" form:"description"`
}

func (in *AttributeInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	return validate.Struct(in)
}

type AttributeValueInput struct {
	Value string `json:"attribute_value" form:"attribute_value" validate:"required,max=100"`
}

func (in *AttributeValueInput) Validate() error {
	in.Value = strings.TrimSpace(in.Value)
	return validate.Struct(in)
}

type ProductTypeRepresentation struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Attributes []AttributeRepresentation `json:"attributes"`
}

func FromProductType(pt domain.ProductType) ProductTypeRepresentation {
	out := ProductTypeRepresentation{ID: pt.ID, Name: pt.Name, Attributes: make([]AttributeRepresentation, 0, len(pt.Attributes))}
	for _, a := range pt.Attributes {
		out.Attributes = append(out.Attributes, FromAttribute(a, nil))
	}
	return out
}

type ProductTypeInput struct {
	Name string `json:"name" form:"name" validate:"required,max=100"`
}

func (in *ProductTypeInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	return validate.Struct(in)
}

type ProductTypeAttributeInput struct {
	AttributeID string `json:"attribute_id" form:"attribute_id" validate:"required"`
}

func (in *ProductTypeAttributeInput) Validate() error {
	in.AttributeID = strings.TrimSpace(in.AttributeID)
	return validate.Struct(in)
}
