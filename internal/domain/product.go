package domain

import (
	"encoding/json"
	"time"
)

// Product is a catalog entity as exposed by the storefront product endpoint.
// It is treated as immutable for the lifetime of a page view.
type Product struct {
	ID          int64     `json:"id" validate:"required"`
	Handle      string    `json:"handle" validate:"required"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Options     []string  `json:"options"`
	Variants    []Variant `json:"variants" validate:"required,min=1,dive"`
	Images      []string  `json:"images,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Variant is one purchasable combination of a product's option values.
type Variant struct {
	ID                int64    `json:"id" validate:"required"`
	ProductID         int64    `json:"product_id,omitempty"`
	Title             string   `json:"title"`
	SKU               string   `json:"sku,omitempty"`
	Options           []string `json:"options"`
	Price             int64    `json:"price" validate:"gte=0"`
	CompareAtPrice    *int64   `json:"compare_at_price"`
	Available         bool     `json:"available"`
	InventoryQuantity int      `json:"inventory_quantity"`
	FeaturedImage     *Image   `json:"featured_image"`
}

// Image references a product image by id and source URL.
type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type variantJSON Variant

type variantWire struct {
	variantJSON
	Option1 *string `json:"option1"`
	Option2 *string `json:"option2"`
	Option3 *string `json:"option3"`
}

// MarshalJSON writes both the options array and the positional option1..3
// fields the storefront contract uses.
func (v Variant) MarshalJSON() ([]byte, error) {
	w := variantWire{variantJSON: variantJSON(v)}
	if w.Options == nil {
		w.Options = []string{}
	}
	slots := []**string{&w.Option1, &w.Option2, &w.Option3}
	for i := range slots {
		if i < len(v.Options) {
			val := v.Options[i]
			*slots[i] = &val
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts either an options array or option1..3 fields.
func (v *Variant) UnmarshalJSON(data []byte) error {
	var w variantWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*v = Variant(w.variantJSON)
	if len(v.Options) == 0 {
		for _, opt := range []*string{w.Option1, w.Option2, w.Option3} {
			if opt == nil {
				break
			}
			v.Options = append(v.Options, *opt)
		}
	}
	return nil
}

// Option returns the value at position idx, or "" when the variant has fewer options.
func (v Variant) Option(idx int) (string, bool) {
	if idx < 0 || idx >= len(v.Options) {
		return "", false
	}
	return v.Options[idx], true
}

// FeaturedImageSrc returns the featured image source or "".
func (v Variant) FeaturedImageSrc() string {
	if v.FeaturedImage == nil {
		return ""
	}
	return v.FeaturedImage.Src
}

// VariantByID returns the variant with the given id.
func (p Product) VariantByID(id int64) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}
