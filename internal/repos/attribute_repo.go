package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopcatalog/internal/domain"
)

type AttributeRepo struct{ db *sqlx.DB }

func NewAttributeRepo(db *sqlx.DB) *AttributeRepo { return &AttributeRepo{db: db} }

const attributeValueSelect = `
	SELECT v.id, v.attribute_value, v.attribute_id, a.name AS attribute_name
	FROM attribute_values v
	JOIN attributes a ON a.id = v.attribute_id`

func (r *AttributeRepo) List(ctx context.Context) ([]domain.Attribute, error) {
	var out []domain.Attribute
	err := r.db.SelectContext(ctx, &out, `SELECT id, name, description FROM attributes ORDER BY name`)
	return out, err
}

func (r *AttributeRepo) Get(ctx context.Context, id string) (domain.Attribute, error) {
	var a domain.Attribute
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT id, name, description FROM attributes WHERE id = ?`), id)
	return a, notFound(err)
}

func (r *AttributeRepo) Create(ctx context.Context, a *domain.Attribute) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO attributes(id, name, description) VALUES (?, ?, ?)`),
		a.ID, a.Name, a.Description)
	return err
}

func (r *AttributeRepo) Update(ctx context.Context, a *domain.Attribute) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE attributes SET name = ?, description = ? WHERE id = ?`),
		a.Name, a.Description, a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the attribute with its values, product assignments and
// product type links.
func (r *AttributeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM attributes WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AttributeRepo) AllValues(ctx context.Context) ([]domain.AttributeValue, error) {
	var out []domain.AttributeValue
	err := r.db.SelectContext(ctx, &out, attributeValueSelect+` ORDER BY a.name, v.attribute_value`)
	return out, err
}

func (r *AttributeRepo) ListValues(ctx context.Context, attributeID string) ([]domain.AttributeValue, error) {
	var out []domain.AttributeValue
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(attributeValueSelect+`
		WHERE v.attribute_id = ?
		ORDER BY v.attribute_value`), attributeID)
	return out, err
}

func (r *AttributeRepo) GetValue(ctx context.Context, id string) (domain.AttributeValue, error) {
	var v domain.AttributeValue
	err := r.db.GetContext(ctx, &v, r.db.Rebind(attributeValueSelect+` WHERE v.id = ?`), id)
	return v, notFound(err)
}

func (r *AttributeRepo) CreateValue(ctx context.Context, v *domain.AttributeValue) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO attribute_values(id, attribute_value, attribute_id) VALUES (?, ?, ?)`),
		v.ID, v.Value, v.AttributeID)
	if IsForeignKeyViolation(err) {
		return domain.NewFieldError("attribute", "Select a valid choice. That choice is not one of the available choices.")
	}
	return err
}

// UpdateValue renames a value. Its attribute is fixed once created, so
// assignments keep their one-value-per-attribute guarantee.
func (r *AttributeRepo) UpdateValue(ctx context.Context, v *domain.AttributeValue) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE attribute_values SET attribute_value = ? WHERE id = ?`),
		v.Value, v.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AttributeRepo) DeleteValue(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM attribute_values WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
