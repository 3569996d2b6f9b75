package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id, handle, title, COALESCE(description, ''), options, images, created_at`

const variantColumns = `id, product_id, title, sku, options, price_cents, compare_at_price_cents, available, inventory_quantity, image_id, image_src`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("product repo: list rows", zap.Error(err))
		return nil, err
	}
	if err := r.attachVariants(ctx, result); err != nil {
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE handle = $1`, handle)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("product repo: get not found", zap.String("handle", handle))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get", zap.String("handle", handle), zap.Error(err))
		return nil, err
	}
	products := []domain.Product{p}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (r *postgresRepo) GetVariant(ctx context.Context, id int64) (*domain.Variant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+variantColumns+` FROM variants WHERE id = $1`, id)
	v, err := scanVariant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("product repo: get variant", zap.Int64("variant_id", id), zap.Error(err))
		return nil, err
	}
	return &v, nil
}

// Upsert writes the product keyed by handle and its variants keyed by
// position. Variants beyond the new list are removed.
func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res := product
	res.Options = nonNil(product.Options)
	res.Images = nonNil(product.Images)
	err = tx.QueryRow(ctx, `
INSERT INTO products (handle, title, description, options, images)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)
ON CONFLICT (handle) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    options = EXCLUDED.options,
    images = EXCLUDED.images
RETURNING id, created_at
`, res.Handle, res.Title, res.Description, res.Options, res.Images).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("product repo: upsert", zap.String("handle", product.Handle), zap.Error(err))
		return nil, err
	}

	res.Variants = make([]domain.Variant, len(product.Variants))
	for i, v := range product.Variants {
		v.ProductID = res.ID
		v.Options = nonNil(v.Options)
		if v.Title == "" {
			v.Title = variantTitle(v.Options)
		}
		var imageID *int64
		var imageSrc *string
		if v.FeaturedImage != nil {
			imageID, imageSrc = &v.FeaturedImage.ID, &v.FeaturedImage.Src
		}
		err := tx.QueryRow(ctx, `
INSERT INTO variants (product_id, position, title, sku, options, price_cents, compare_at_price_cents, available, inventory_quantity, image_id, image_src)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (product_id, position) DO UPDATE SET
    title = EXCLUDED.title,
    sku = EXCLUDED.sku,
    options = EXCLUDED.options,
    price_cents = EXCLUDED.price_cents,
    compare_at_price_cents = EXCLUDED.compare_at_price_cents,
    available = EXCLUDED.available,
    inventory_quantity = EXCLUDED.inventory_quantity,
    image_id = EXCLUDED.image_id,
    image_src = EXCLUDED.image_src
RETURNING id
`, res.ID, i+1, v.Title, v.SKU, v.Options, v.Price, v.CompareAtPrice, v.Available, v.InventoryQuantity, imageID, imageSrc).Scan(&v.ID)
		if err != nil {
			return nil, fmt.Errorf("product repo: upsert variant %d of %s: %w", i+1, product.Handle, err)
		}
		res.Variants[i] = v
	}

	if _, err := tx.Exec(ctx, `DELETE FROM variants WHERE product_id = $1 AND position > $2`, res.ID, len(product.Variants)); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("product repo: upserted",
		zap.String("handle", res.Handle),
		zap.Int64("id", res.ID),
		zap.Int("variants", len(res.Variants)))
	return &res, nil
}

func (r *postgresRepo) attachVariants(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	byID := make(map[int64]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = i
	}
	rows, err := r.pool.Query(ctx, `
SELECT `+variantColumns+`
FROM variants
WHERE product_id = ANY($1)
ORDER BY product_id, position
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return err
		}
		i := byID[v.ProductID]
		products[i].Variants = append(products[i].Variants, v)
	}
	return rows.Err()
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Handle, &p.Title, &p.Description, &p.Options, &p.Images, &p.CreatedAt)
	return p, err
}

func scanVariant(row pgx.Row) (domain.Variant, error) {
	var (
		v        domain.Variant
		imageID  *int64
		imageSrc *string
	)
	err := row.Scan(&v.ID, &v.ProductID, &v.Title, &v.SKU, &v.Options, &v.Price, &v.CompareAtPrice, &v.Available, &v.InventoryQuantity, &imageID, &imageSrc)
	if err != nil {
		return v, err
	}
	if imageSrc != nil {
		v.FeaturedImage = &domain.Image{Src: *imageSrc}
		if imageID != nil {
			v.FeaturedImage.ID = *imageID
		}
	}
	return v, nil
}

func variantTitle(options []string) string {
	if len(options) == 0 {
		return "Default Title"
	}
	title := options[0]
	for _, o := range options[1:] {
		title += " / " + o
	}
	return title
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
