package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"shopcatalog/internal/domain"
	applog "shopcatalog/internal/log"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "Passw0rd!"

// SeedUsers ensures one ADMIN and one USER exist (idempotent).
func SeedUsers(ctx context.Context, db *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	users := []domain.User{
		{ID: "u-admin", Username: "admin", Email: "admin@shopcatalog.test", FirstName: "Site", LastName: "Admin", Role: domain.RoleAdmin},
		{ID: "u-alice", Username: "alice", Email: "alice@shopcatalog.test", FirstName: "Alice", LastName: "Liddell", Role: domain.RoleUser},
	}
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, u := range users {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO users(`+userCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT DO NOTHING`),
				u.ID, u.Username, u.Email, u.FirstName, u.LastName, string(hash), u.Role); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedDemo inserts a small demo catalog when there are no categories yet.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	ok, err := exists(ctx, db, `SELECT COUNT(*) FROM categories`)
	if err != nil || ok {
		return err
	}
	applog.L().Info("seed.demo")

	cats := NewCategoryRepo(db)
	brands := NewBrandRepo(db)
	attrs := NewAttributeRepo(db)
	types := NewProductTypeRepo(db)
	prods := NewProductRepo(db)
	pavs := NewProductAttributeRepo(db)
	imgs := NewImageRepo(db)

	var (
		electronics = domain.Category{Name: "Electronics", IsActive: true}
		clothing    = domain.Category{Name: "Clothing", IsActive: true}
	)
	for _, c := range []*domain.Category{&electronics, &clothing} {
		if err := cats.Create(ctx, c); err != nil {
			return err
		}
	}
	phones := domain.Category{Name: "Phones", ParentID: &electronics.ID, IsActive: true}
	shirts := domain.Category{Name: "Shirts", ParentID: &clothing.ID, IsActive: true}
	for _, c := range []*domain.Category{&phones, &shirts} {
		if err := cats.Create(ctx, c); err != nil {
			return err
		}
	}

	acme := domain.Brand{Name: "Acme", IsActive: true}
	globex := domain.Brand{Name: "Globex", IsActive: true}
	for _, b := range []*domain.Brand{&acme, &globex} {
		if err := brands.Create(ctx, b); err != nil {
			return err
		}
	}

	values := map[string]map[string]*domain.AttributeValue{}
	attrIDs := map[string]string{}
	for name, vals := range map[string][]string{
		"Color":   {"Red", "Blue"},
		"Size":    {"S", "M", "L"},
		"Storage": {"64GB", "128GB"},
	} {
		a := domain.Attribute{Name: name}
		if err := attrs.Create(ctx, &a); err != nil {
			return err
		}
		attrIDs[name] = a.ID
		values[name] = map[string]*domain.AttributeValue{}
		for _, v := range vals {
			av := &domain.AttributeValue{Value: v, AttributeID: a.ID, AttributeName: name}
			if err := attrs.CreateValue(ctx, av); err != nil {
				return err
			}
			values[name][v] = av
		}
	}

	tee := domain.ProductType{Name: "T-Shirt"}
	phone := domain.ProductType{Name: "Phone"}
	for pt, names := range map[*domain.ProductType][]string{&tee: {"Color", "Size"}, &phone: {"Color", "Storage"}} {
		if err := types.Create(ctx, pt); err != nil {
			return err
		}
		for _, n := range names {
			if _, err := types.AddAttribute(ctx, pt.ID, attrIDs[n]); err != nil {
				return err
			}
		}
	}

	type demo struct {
		p      domain.Product
		values []*domain.AttributeValue
		images []string
	}
	for _, d := range []demo{
		{
			p: domain.Product{Name: "Classic Tee", Description: "Heavyweight cotton tee.", BrandID: acme.ID,
				CategoryID: &shirts.ID, ProductTypeID: tee.ID, IsActive: true,
				Price: decimal.RequireFromString("19.99"), SKU: "TEE-001", StockQty: 40},
			values: []*domain.AttributeValue{values["Color"]["Red"], values["Size"]["M"]},
			images: []string{"https://cdn.shopcatalog.test/tee-front.jpg", "https://cdn.shopcatalog.test/tee-back.jpg"},
		},
		{
			p: domain.Product{Name: "Pocket Phone", Description: "Small phone, big battery.", BrandID: globex.ID,
				CategoryID: &phones.ID, ProductTypeID: phone.ID, IsActive: true,
				Price: decimal.RequireFromString("499.00"), SKU: "PHN-001", StockQty: 10},
			values: []*domain.AttributeValue{values["Color"]["Blue"], values["Storage"]["128GB"]},
			images: []string{"https://cdn.shopcatalog.test/phone.jpg"},
		},
	} {
		if err := prods.Create(ctx, &d.p); err != nil {
			return err
		}
		for _, v := range d.values {
			if _, err := pavs.Assign(ctx, d.p.ID, v.ID); err != nil {
				return err
			}
		}
		for _, u := range d.images {
			img := domain.ProductImage{ProductID: d.p.ID, AlternativeText: d.p.Name, URL: u}
			if err := imgs.Save(ctx, &img, true); err != nil {
				return err
			}
		}
	}
	return nil
}
