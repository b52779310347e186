package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopcatalog/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id, name, parent_id, is_active, created_at`

// List returns categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	q := `SELECT ` + categoryCols + ` FROM categories`
	if activeOnly {
		q += ` WHERE is_active = ?`
	}
	q += ` ORDER BY name`
	var out []domain.Category
	var err error
	if activeOnly {
		err = r.db.SelectContext(ctx, &out, r.db.Rebind(q), true)
	} else {
		err = r.db.SelectContext(ctx, &out, q)
	}
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, r.db.Rebind(`SELECT `+categoryCols+` FROM categories WHERE id = ?`), id)
	return c, notFound(err)
}

// Children lists the direct children of parentID, optionally only the
// active ones.
func (r *CategoryRepo) Children(ctx context.Context, parentID string, activeOnly bool) ([]domain.Category, error) {
	q := `SELECT ` + categoryCols + ` FROM categories WHERE parent_id = ?`
	args := []any{parentID}
	if activeOnly {
		q += ` AND is_active = ?`
		args = append(args, true)
	}
	q += ` ORDER BY name`
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...)
	return out, err
}

// Ancestors walks parent links from id up to the root, nearest first.
func (r *CategoryRepo) Ancestors(ctx context.Context, id string) ([]domain.Category, error) {
	var out []domain.Category
	seen := map[string]bool{id: true}
	cur, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for cur.ParentID != nil {
		if seen[*cur.ParentID] {
			return nil, fmt.Errorf("category %s: parent cycle", id)
		}
		seen[*cur.ParentID] = true
		if cur, err = r.Get(ctx, *cur.ParentID); err != nil {
			return nil, err
		}
		out = append(out, cur)
	}
	return out, nil
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO categories(id, name, parent_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.ParentID, c.IsActive, c.CreatedAt)
	return categoryWriteErr(err)
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE categories SET name = ?, parent_id = ?, is_active = ?
		WHERE id = ?`),
		c.Name, c.ParentID, c.IsActive, c.ID)
	if err != nil {
		return categoryWriteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a leaf category. Categories with children are protected.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		hasChildren, err := exists(ctx, tx, `SELECT COUNT(*) FROM categories WHERE parent_id = ?`, id)
		if err != nil {
			return err
		}
		if hasChildren {
			return fmt.Errorf("category %s has child categories: %w", id, domain.ErrProtected)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id = ?`), id)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return fmt.Errorf("category %s: %w", id, domain.ErrProtected)
			}
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func categoryWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return domain.NewFieldError("name", "category with this name already exists.")
	case IsForeignKeyViolation(err):
		return domain.NewFieldError("parent", "Select a valid choice. That choice is not one of the available choices.")
	}
	return err
}
