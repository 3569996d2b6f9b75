package product

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByHandle(ctx context.Context, handle string) (*domain.Product, error)
	GetVariant(ctx context.Context, id int64) (*domain.Variant, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
