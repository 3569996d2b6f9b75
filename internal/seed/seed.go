package seed

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"

	"storefront/internal/domain"
)

// ProductWriter persists seeded products.
type ProductWriter interface {
	Save(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type variantSeed struct {
	Options   []string
	SKU       string
	Price     int64
	CompareAt int64
	Stock     int
	Image     string
}

type productSeed struct {
	Title       string
	Description string
	Options     []string
	Variants    []variantSeed
}

var products = []productSeed{
	{
		Title:       "Demo T-Shirt",
		Description: "Soft cotton tee for demo purposes",
		Options:     []string{"Color", "Size"},
		Variants: []variantSeed{
			{Options: []string{"Red", "S"}, SKU: "TEE-RED-S", Price: 1999, CompareAt: 2499, Stock: 10, Image: "https://cdn.example.com/products/tee-red.jpg"},
			{Options: []string{"Red", "M"}, SKU: "TEE-RED-M", Price: 1999, CompareAt: 2499, Stock: 0, Image: "https://cdn.example.com/products/tee-red.jpg"},
			{Options: []string{"Blue", "S"}, SKU: "TEE-BLUE-S", Price: 1999, Stock: 4, Image: "https://cdn.example.com/products/tee-blue.jpg"},
			{Options: []string{"Blue", "M"}, SKU: "TEE-BLUE-M", Price: 2199, Stock: 2, Image: "https://cdn.example.com/products/tee-blue.jpg"},
		},
	},
	{
		Title:       "Demo Mug",
		Description: "Ceramic mug with demo logo",
		Variants: []variantSeed{
			{SKU: "MUG", Price: 1299, Stock: -1},
		},
	},
	{
		Title:       "House Coffee",
		Description: "Whole bean coffee, one-time or on subscription",
		Options:     []string{"Purchase"},
		Variants: []variantSeed{
			{Options: []string{"One-time"}, SKU: "COFFEE", Price: 1600, Stock: -1},
			{Options: []string{"Subscription"}, SKU: "COFFEE-SUB", Price: 1440, CompareAt: 1600, Stock: -1},
		},
	},
}

// Apply upserts the demo catalog. It is idempotent since products are keyed by handle.
func Apply(ctx context.Context, w ProductWriter) error {
	for _, p := range products {
		if _, err := w.Save(ctx, p.product()); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Title, err)
		}
	}
	return nil
}

// Products returns the demo catalog.
func Products() []domain.Product {
	out := make([]domain.Product, len(products))
	for i, p := range products {
		out[i] = p.product()
	}
	return out
}

// product converts a seed; a negative Stock means untracked inventory.
func (p productSeed) product() domain.Product {
	dp := domain.Product{
		Handle:      slug.Make(p.Title),
		Title:       p.Title,
		Description: p.Description,
		Options:     p.Options,
	}
	for _, v := range p.Variants {
		variant := domain.Variant{
			Options:   v.Options,
			SKU:       v.SKU,
			Price:     v.Price,
			Available: v.Stock != 0,
		}
		if v.Stock > 0 {
			variant.InventoryQuantity = v.Stock
		}
		if v.CompareAt > 0 {
			cmp := v.CompareAt
			variant.CompareAtPrice = &cmp
		}
		if v.Image != "" {
			variant.FeaturedImage = &domain.Image{Src: v.Image}
			if !contains(dp.Images, v.Image) {
				dp.Images = append(dp.Images, v.Image)
			}
		}
		dp.Variants = append(dp.Variants, variant)
	}
	return dp
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
