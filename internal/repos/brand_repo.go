package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopcatalog/internal/domain"
)

type BrandRepo struct{ db *sqlx.DB }

func NewBrandRepo(db *sqlx.DB) *BrandRepo { return &BrandRepo{db: db} }

func (r *BrandRepo) List(ctx context.Context, activeOnly bool) ([]domain.Brand, error) {
	var out []domain.Brand
	if activeOnly {
		err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT id, name, is_active FROM brands WHERE is_active = ? ORDER BY name`), true)
		return out, err
	}
	err := r.db.SelectContext(ctx, &out, `SELECT id, name, is_active FROM brands ORDER BY name`)
	return out, err
}

func (r *BrandRepo) Get(ctx context.Context, id string) (domain.Brand, error) {
	var b domain.Brand
	err := r.db.GetContext(ctx, &b, r.db.Rebind(`SELECT id, name, is_active FROM brands WHERE id = ?`), id)
	return b, notFound(err)
}

func (r *BrandRepo) Create(ctx context.Context, b *domain.Brand) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO brands(id, name, is_active) VALUES (?, ?, ?)`),
		b.ID, b.Name, b.IsActive)
	return err
}

func (r *BrandRepo) Update(ctx context.Context, b *domain.Brand) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE brands SET name = ?, is_active = ? WHERE id = ?`),
		b.Name, b.IsActive, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the brand; its products go with it.
func (r *BrandRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM brands WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
