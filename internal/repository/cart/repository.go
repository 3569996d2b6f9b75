package cart

import (
	"context"

	"storefront/internal/domain"
)

// AddLineInput describes a line keyed by variant and properties.
type AddLineInput struct {
	Key        string
	VariantID  int64
	Quantity   int
	Properties map[string]string
}

type Repository interface {
	Create(ctx context.Context, token, currency string) (*domain.Cart, error)
	Get(ctx context.Context, token string) (*domain.Cart, error)
	AddLine(ctx context.Context, token string, in AddLineInput) error
	SetQuantity(ctx context.Context, token, key string, quantity int) error
	ReplaceLine(ctx context.Context, token, oldKey string, in AddLineInput) error
	UpdateNote(ctx context.Context, token, note string) error
}
