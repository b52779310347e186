package repos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopcatalog/internal/domain"
)

const msgDuplicateOrder = "Duplicate order value."

type ImageRepo struct{ db *sqlx.DB }

func NewImageRepo(db *sqlx.DB) *ImageRepo { return &ImageRepo{db: db} }

const imageCols = `id, product_id, alternative_text, url, sort_order`

// Save inserts img, or updates it when img.ID is set. With assignOrder the
// image is placed after its last sibling. Any other image of the same product
// holding the same order rejects the save.
func (r *ImageRepo) Save(ctx context.Context, img *domain.ProductImage, assignOrder bool) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM products WHERE id = ?`, img.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}

		var siblings []domain.ProductImage
		if err := sqlx.SelectContext(ctx, tx, &siblings, tx.Rebind(`
			SELECT `+imageCols+` FROM product_images WHERE product_id = ?`), img.ProductID); err != nil {
			return err
		}

		if assignOrder {
			next := 1
			for _, s := range siblings {
				if s.ID != img.ID && s.Order >= next {
					next = s.Order + 1
				}
			}
			img.Order = next
		}
		for _, s := range siblings {
			if s.ID != img.ID && s.Order == img.Order {
				return domain.NewNonFieldError(msgDuplicateOrder)
			}
		}

		if img.ID == "" {
			img.ID = uuid.NewString()
			_, err = tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO product_images(`+imageCols+`) VALUES (?, ?, ?, ?, ?)`),
				img.ID, img.ProductID, img.AlternativeText, img.URL, img.Order)
		} else {
			var res sql.Result
			res, err = tx.ExecContext(ctx, tx.Rebind(`
				UPDATE product_images SET alternative_text = ?, url = ?, sort_order = ?
				WHERE id = ? AND product_id = ?`),
				img.AlternativeText, img.URL, img.Order, img.ID, img.ProductID)
			if err == nil {
				if n, _ := res.RowsAffected(); n == 0 {
					return domain.ErrNotFound
				}
			}
		}
		if IsUniqueViolation(err) {
			return domain.NewNonFieldError(msgDuplicateOrder)
		}
		return err
	})
}

func (r *ImageRepo) Get(ctx context.Context, productID, id string) (domain.ProductImage, error) {
	var img domain.ProductImage
	err := r.db.GetContext(ctx, &img, r.db.Rebind(`
		SELECT `+imageCols+` FROM product_images WHERE id = ? AND product_id = ?`), id, productID)
	return img, notFound(err)
}

func (r *ImageRepo) ListForProduct(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	var out []domain.ProductImage
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+imageCols+` FROM product_images
		WHERE product_id = ?
		ORDER BY sort_order`), productID)
	return out, err
}

func (r *ImageRepo) Delete(ctx context.Context, productID, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM product_images WHERE id = ? AND product_id = ?`), id, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
