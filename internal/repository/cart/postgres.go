package cart

import (
	"context"
	"errors"

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

// Create inserts an empty cart for token. An existing cart is returned as is.
func (r *postgresRepo) Create(ctx context.Context, token, currency string) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (token, currency)
VALUES ($1, $2)
ON CONFLICT (token) DO NOTHING
`
	if _, err := r.pool.Exec(ctx, q, token, currency); err != nil {
		r.logger.Error("cart repo: create", zap.String("token", token), zap.Error(err))
		return nil, err
	}
	return r.Get(ctx, token)
}

func (r *postgresRepo) Get(ctx context.Context, token string) (*domain.Cart, error) {
	const cartQuery = `
SELECT id, token, note, currency, created_at, updated_at
FROM carts
WHERE token = $1
`
	var (
		cart   domain.Cart
		cartID int64
	)
	err := r.pool.QueryRow(ctx, cartQuery, token).Scan(&cartID, &cart.Token, &cart.Note, &cart.Currency, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT l.key, l.variant_id, v.product_id, p.handle, p.title, v.title, l.quantity, v.price_cents, l.properties,
       COALESCE(v.image_src, p.images->>0, ''), l.created_at
FROM cart_lines l
JOIN variants v ON v.id = l.variant_id
JOIN products p ON p.id = v.product_id
WHERE l.cart_id = $1
ORDER BY l.id ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.LineItem{}
	for rows.Next() {
		var (
			line         domain.LineItem
			productTitle string
			variantTitle string
		)
		if err := rows.Scan(
			&line.Key,
			&line.VariantID,
			&line.ProductID,
			&line.Handle,
			&productTitle,
			&variantTitle,
			&line.Quantity,
			&line.Price,
			&line.Properties,
			&line.Image,
			&line.AddedAt,
		); err != nil {
			return nil, err
		}
		line.ID = line.VariantID
		line.Title = lineTitle(productTitle, variantTitle)
		cart.Items = append(cart.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cart.Recount()
	return &cart, nil
}

// AddLine inserts a line or adds to the quantity of the line with the same key.
func (r *postgresRepo) AddLine(ctx context.Context, token string, in AddLineInput) error {
	return r.inTx(ctx, token, func(tx pgx.Tx, cartID int64) error {
		return upsertLine(ctx, tx, cartID, in)
	})
}

// SetQuantity sets a line's quantity. Zero deletes the line.
func (r *postgresRepo) SetQuantity(ctx context.Context, token, key string, quantity int) error {
	return r.inTx(ctx, token, func(tx pgx.Tx, cartID int64) error {
		if quantity <= 0 {
			cmd, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND key = $2`, cartID, key)
			if err != nil {
				return err
			}
			if cmd.RowsAffected() == 0 {
				return domain.ErrNotFound
			}
			return nil
		}
		cmd, err := tx.Exec(ctx, `UPDATE cart_lines SET quantity = $1 WHERE cart_id = $2 AND key = $3`, quantity, cartID, key)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// ReplaceLine removes oldKey and adds in, atomically.
func (r *postgresRepo) ReplaceLine(ctx context.Context, token, oldKey string, in AddLineInput) error {
	return r.inTx(ctx, token, func(tx pgx.Tx, cartID int64) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND key = $2`, cartID, oldKey)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if in.Quantity <= 0 {
			return nil
		}
		return upsertLine(ctx, tx, cartID, in)
	})
}

func (r *postgresRepo) UpdateNote(ctx context.Context, token, note string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE carts SET note = $1, updated_at = now() WHERE token = $2`, note, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) inTx(ctx context.Context, token string, fn func(tx pgx.Tx, cartID int64) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var cartID int64
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE token = $1 FOR UPDATE`, token).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if err := fn(tx, cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("cart repo: commit", zap.String("token", token), zap.Error(err))
		return err
	}
	return nil
}

func upsertLine(ctx context.Context, tx pgx.Tx, cartID int64, in AddLineInput) error {
	props := in.Properties
	if props == nil {
		props = map[string]string{}
	}
	_, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, key, variant_id, quantity, properties)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (cart_id, key) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity
`, cartID, in.Key, in.VariantID, in.Quantity, props)
	return err
}

func lineTitle(productTitle, variantTitle string) string {
	if variantTitle == "" || variantTitle == "Default Title" {
		return productTitle
	}
	return productTitle + " - " + variantTitle
}
