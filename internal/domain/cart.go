package domain

import "time"

// Cart is the storefront cart snapshot returned by every cart endpoint.
type Cart struct {
	Token      string     `json:"token"`
	Note       string     `json:"note"`
	Currency   string     `json:"currency"`
	ItemCount  int        `json:"item_count"`
	TotalPrice int64      `json:"total_price"`
	Items      []LineItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// LineItem is one cart line. ID carries the variant id, matching the
// storefront contract where lines are addressable by variant id or key.
type LineItem struct {
	ID         int64             `json:"id"`
	Key        string            `json:"key"`
	VariantID  int64             `json:"variant_id"`
	ProductID  int64             `json:"product_id"`
	Handle     string            `json:"handle"`
	Title      string            `json:"title"`
	Quantity   int               `json:"quantity"`
	Price      int64             `json:"price"`
	LinePrice  int64             `json:"line_price"`
	Properties map[string]string `json:"properties"`
	Image      string            `json:"image,omitempty"`
	AddedAt    time.Time         `json:"-"`
}

// Line returns the 1-based line, if present.
func (c Cart) Line(n int) (*LineItem, bool) {
	if n < 1 || n > len(c.Items) {
		return nil, false
	}
	return &c.Items[n-1], true
}

// LineByVariant returns the first line for the variant id or line key.
func (c Cart) LineByVariant(id string) (*LineItem, int, bool) {
	for i := range c.Items {
		if c.Items[i].Key == id || FormatID(c.Items[i].VariantID) == id {
			return &c.Items[i], i + 1, true
		}
	}
	return nil, 0, false
}

// Recount recomputes item count and total price from the lines.
func (c *Cart) Recount() {
	count := 0
	var total int64
	for i := range c.Items {
		c.Items[i].LinePrice = c.Items[i].Price * int64(c.Items[i].Quantity)
		count += c.Items[i].Quantity
		total += c.Items[i].LinePrice
	}
	c.ItemCount = count
	c.TotalPrice = total
}
