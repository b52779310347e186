package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopcatalog/internal/domain"
)

const msgDuplicateAttribute = "Duplicate attribute exists"

type ProductAttributeRepo struct{ db *sqlx.DB }

func NewProductAttributeRepo(db *sqlx.DB) *ProductAttributeRepo {
	return &ProductAttributeRepo{db: db}
}

// Assign attaches an attribute value to a product. Re-assigning the same
// value is a no-op; assigning a second value of an attribute the product
// already carries is rejected.
func (r *ProductAttributeRepo) Assign(ctx context.Context, productID, attributeValueID string) (domain.ProductAttributeValue, error) {
	pav := domain.ProductAttributeValue{ProductID: productID, AttributeValueID: attributeValueID}
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := sqlx.GetContext(ctx, tx, &pav.AttributeID,
			tx.Rebind(`SELECT attribute_id FROM attribute_values WHERE id = ?`), attributeValueID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NewFieldError("attribute_value", "Select a valid choice. That choice is not one of the available choices.")
			}
			return err
		}
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM products WHERE id = ?`, productID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}

		var existing []domain.ProductAttributeValue
		if err := sqlx.SelectContext(ctx, tx, &existing, tx.Rebind(`
			SELECT id, product_id, attribute_value_id, attribute_id
			FROM product_attribute_values
			WHERE product_id = ?`), productID); err != nil {
			return err
		}
		for _, e := range existing {
			if e.AttributeValueID == attributeValueID {
				pav = e
				return nil
			}
		}
		for _, e := range existing {
			if e.AttributeID == pav.AttributeID {
				return domain.NewNonFieldError(msgDuplicateAttribute)
			}
		}

		pav.ID = uuid.NewString()
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO product_attribute_values(id, attribute_value_id, product_id, attribute_id)
			VALUES (?, ?, ?, ?)`), pav.ID, pav.AttributeValueID, pav.ProductID, pav.AttributeID)
		if IsUniqueViolation(err) {
			return domain.NewNonFieldError(msgDuplicateAttribute)
		}
		return err
	})
	return pav, err
}

func (r *ProductAttributeRepo) Remove(ctx context.Context, productID, attributeValueID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM product_attribute_values WHERE product_id = ? AND attribute_value_id = ?`),
		productID, attributeValueID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListForProduct returns the product's values ordered by attribute name.
func (r *ProductAttributeRepo) ListForProduct(ctx context.Context, productID string) ([]domain.AttributeValue, error) {
	var out []domain.AttributeValue
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT v.id, v.attribute_value, v.attribute_id, a.name AS attribute_name
		FROM product_attribute_values pav
		JOIN attribute_values v ON v.id = pav.attribute_value_id
		JOIN attributes a ON a.id = v.attribute_id
		WHERE pav.product_id = ?
		ORDER BY a.name`), productID)
	return out, err
}

// ProductIDsForAttribute lists products carrying any value of the attribute.
func (r *ProductAttributeRepo) ProductIDsForAttribute(ctx context.Context, attributeID string) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT DISTINCT product_id FROM product_attribute_values WHERE attribute_id = ?`), attributeID)
	return out, err
}
