package repos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopcatalog/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, name, description, is_digital, brand_id, category_id, product_type_id,
    is_active, created_at, price, sku, stock_qty`

func (r *ProductRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	where := []string{}
	args := []any{}
	if f.Q != "" {
		where = append(where, `(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)`)
		like := "%" + strings.ToLower(f.Q) + "%"
		args = append(args, like, like)
	}
	if f.ActiveOnly {
		where = append(where, `is_active = ?`)
		args = append(args, true)
	}
	if f.CategoryID != "" {
		where = append(where, `category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.BrandID != "" {
		where = append(where, `brand_id = ?`)
		args = append(args, f.BrandID)
	}
	if f.ProductTypeID != "" {
		where = append(where, `product_type_id = ?`)
		args = append(args, f.ProductTypeID)
	}

	q := `SELECT ` + productCols + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY created_at DESC, name`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id)
	return p, notFound(err)
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO products(`+productCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Name, p.Description, p.IsDigital, p.BrandID, p.CategoryID, p.ProductTypeID,
		p.IsActive, p.CreatedAt, p.Price, p.SKU, p.StockQty)
	return productWriteErr(err)
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET
		  name = ?, description = ?, is_digital = ?, brand_id = ?, category_id = ?,
		  product_type_id = ?, is_active = ?, price = ?, sku = ?, stock_qty = ?
		WHERE id = ?`),
		p.Name, p.Description, p.IsDigital, p.BrandID, p.CategoryID,
		p.ProductTypeID, p.IsActive, p.Price, p.SKU, p.StockQty, p.ID)
	if err != nil {
		return productWriteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the product with its images and attribute assignments.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByBrand backs the brand admin's product inline.
func (r *ProductRepo) ListByBrand(ctx context.Context, brandID string) ([]domain.Product, error) {
	return r.List(ctx, domain.ProductFilter{BrandID: brandID})
}

// IDs returns the ids of products matching f, used for cache invalidation.
func (r *ProductRepo) IDs(ctx context.Context, f domain.ProductFilter) ([]string, error) {
	ps, err := r.List(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids, nil
}

func productWriteErr(err error) error {
	if err != nil && IsForeignKeyViolation(err) {
		// The driver does not say which reference failed.
		return domain.NewNonFieldError("Select a valid brand, category and product type.")
	}
	return err
}
