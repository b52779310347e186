package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopcatalog/internal/domain"
)

type ProductTypeRepo struct{ db *sqlx.DB }

func NewProductTypeRepo(db *sqlx.DB) *ProductTypeRepo { return &ProductTypeRepo{db: db} }

func (r *ProductTypeRepo) List(ctx context.Context) ([]domain.ProductType, error) {
	var out []domain.ProductType
	err := r.db.SelectContext(ctx, &out, `SELECT id, name FROM product_types ORDER BY name`)
	return out, err
}

// Get returns the product type with its attributes.
func (r *ProductTypeRepo) Get(ctx context.Context, id string) (domain.ProductType, error) {
	var pt domain.ProductType
	if err := r.db.GetContext(ctx, &pt, r.db.Rebind(`SELECT id, name FROM product_types WHERE id = ?`), id); err != nil {
		return pt, notFound(err)
	}
	err := r.db.SelectContext(ctx, &pt.Attributes, r.db.Rebind(`
		SELECT a.id, a.name, a.description
		FROM product_type_attributes pta
		JOIN attributes a ON a.id = pta.attribute_id
		WHERE pta.product_type_id = ?
		ORDER BY a.name`), id)
	return pt, err
}

func (r *ProductTypeRepo) Create(ctx context.Context, pt *domain.ProductType) error {
	if pt.ID == "" {
		pt.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO product_types(id, name) VALUES (?, ?)`), pt.ID, pt.Name)
	return err
}

func (r *ProductTypeRepo) Update(ctx context.Context, pt *domain.ProductType) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE product_types SET name = ? WHERE id = ?`), pt.Name, pt.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete is blocked while products still use the type.
func (r *ProductTypeRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		used, err := exists(ctx, tx, `SELECT COUNT(*) FROM products WHERE product_type_id = ?`, id)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("product type %s is used by products: %w", id, domain.ErrProtected)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM product_types WHERE id = ?`), id)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return fmt.Errorf("product type %s: %w", id, domain.ErrProtected)
			}
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *ProductTypeRepo) AddAttribute(ctx context.Context, productTypeID, attributeID string) (domain.ProductTypeAttribute, error) {
	link := domain.ProductTypeAttribute{ID: uuid.NewString(), ProductTypeID: productTypeID, AttributeID: attributeID}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO product_type_attributes(id, product_type_id, attribute_id) VALUES (?, ?, ?)`),
		link.ID, link.ProductTypeID, link.AttributeID)
	switch {
	case err == nil:
		return link, nil
	case IsUniqueViolation(err):
		return link, domain.NewNonFieldError("Product type attribute with this Product type and Attribute already exists.")
	case IsForeignKeyViolation(err):
		return link, domain.NewFieldError("attribute", "Select a valid choice. That choice is not one of the available choices.")
	}
	return link, err
}

func (r *ProductTypeRepo) RemoveAttribute(ctx context.Context, productTypeID, attributeID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM product_type_attributes WHERE product_type_id = ? AND attribute_id = ?`),
		productTypeID, attributeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
