package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/variant"
)

// productTerminal hosts a product form whose option controls are set from
// flags. It records what the section renders and prints it once at the end.
type productTerminal struct {
	id      string
	payload []byte
	inputs  []variant.Input

	productURL *url.URL

	enabled   bool
	label     string
	price     string
	compareAt string
	image     string
	variantID int64
	url       string
}

func newProductTerminal(product *domain.Product) (*productTerminal, error) {
	payload, err := json.Marshal(product)
	if err != nil {
		return nil, fmt.Errorf("encode product %s: %w", product.Handle, err)
	}
	return &productTerminal{id: "product-" + product.Handle, payload: payload}, nil
}

func (t *productTerminal) ID() string { return t.id }
func (t *productTerminal) Type() string { return "product" }
func (t *productTerminal) Payload() []byte { return t.payload }
func (t *productTerminal) Inputs() []variant.Input { return t.inputs }

func (t *productTerminal) SetAddToCart(enabled bool, label string) {
	t.enabled = enabled
	t.label = label
}

func (t *productTerminal) SetPrice(price, compareAt string) {
	t.price = price
	t.compareAt = compareAt
}

func (t *productTerminal) SetImage(src string) { t.image = src }

func (t *productTerminal) SetVariantID(id int64) { t.variantID = id }

func (t *productTerminal) ReplaceVariant(id int64) {
	if t.productURL == nil {
		return
	}
	t.url = variant.VariantURL(t.productURL.Scheme, t.productURL.Host, t.productURL.Path, id)
}

func (t *productTerminal) print(w io.Writer, current *domain.Variant) {
	if current != nil {
		fmt.Fprintf(w, "Variant:  %d (%s)\n", current.ID, current.Title)
	} else {
		fmt.Fprintln(w, "Variant:  none")
	}
	if t.price != "" {
		if t.compareAt != "" {
			fmt.Fprintf(w, "Price:    %s (was %s)\n", t.price, t.compareAt)
		} else {
			fmt.Fprintf(w, "Price:    %s\n", t.price)
		}
	}
	if t.image != "" {
		fmt.Fprintf(w, "Image:    %s\n", t.image)
	}
	state := "disabled"
	if t.enabled {
		state = "enabled"
	}
	fmt.Fprintf(w, "Button:   %s (%s)\n", t.label, state)
	if t.url != "" {
		fmt.Fprintf(w, "URL:      %s\n", t.url)
	}
}

// cartTerminal hosts the cart form. Responses may land on any goroutine
// while concurrent edits are in flight.
type cartTerminal struct {
	emptyText string
	client    *http.Client

	mu        sync.Mutex
	updating  bool
	subtotal  string
	itemCount string
	empty     bool
	progress  string
	reached   bool
	navigated []string
	navErr    error
}

func (t *cartTerminal) ID() string { return "cart" }
func (t *cartTerminal) Type() string { return "cart" }
func (t *cartTerminal) Payload() []byte { return nil }

func (t *cartTerminal) SetUpdating(updating bool) {
	t.mu.Lock()
	t.updating = updating
	t.mu.Unlock()
}

func (t *cartTerminal) SetSubtotal(formatted string) {
	t.mu.Lock()
	t.subtotal = formatted
	t.mu.Unlock()
}

func (t *cartTerminal) SetItemCount(text string) {
	t.mu.Lock()
	t.itemCount = text
	t.mu.Unlock()
}

func (t *cartTerminal) ShowEmptyState() {
	t.mu.Lock()
	t.empty = true
	t.mu.Unlock()
}

func (t *cartTerminal) ShowForm() {
	t.mu.Lock()
	t.empty = false
	t.mu.Unlock()
}

func (t *cartTerminal) SetFreeShippingProgress(percent string, reached bool) {
	t.mu.Lock()
	t.progress = percent
	t.reached = reached
	t.mu.Unlock()
}

// Navigate follows the script-free change link with the shared session.
func (t *cartTerminal) Navigate(target string) {
	t.mu.Lock()
	t.navigated = append(t.navigated, target)
	t.mu.Unlock()
	if t.client == nil {
		return
	}
	resp, err := t.client.Get(target)
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			err = fmt.Errorf("navigate %s: %s", target, resp.Status)
		}
	}
	if err != nil {
		t.mu.Lock()
		t.navErr = err
		t.mu.Unlock()
	}
}

func (t *cartTerminal) navigationError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.navErr
}

func (t *cartTerminal) print(w io.Writer, cart *domain.Cart, format func(int64) string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cart == nil || len(cart.Items) == 0 {
		fmt.Fprintln(w, t.emptyText)
		return
	}
	for i, item := range cart.Items {
		line := fmt.Sprintf("%2d. %s x%d  %s", i+1, item.Title, item.Quantity, format(item.LinePrice))
		if len(item.Properties) > 0 {
			props := make([]string, 0, len(item.Properties))
			for k, v := range item.Properties {
				props = append(props, k+": "+v)
			}
			sort.Strings(props)
			line += "  [" + strings.Join(props, ", ") + "]"
		}
		fmt.Fprintf(w, "%s  (id %s)\n", line, item.Key)
	}
	fmt.Fprintf(w, "Items:    %s\n", t.itemCount)
	fmt.Fprintf(w, "Subtotal: %s\n", t.subtotal)
	if t.progress != "" {
		if t.reached {
			fmt.Fprintln(w, "Shipping: free shipping unlocked")
		} else {
			fmt.Fprintf(w, "Shipping: %s%% of the way to free shipping\n", t.progress)
		}
	}
	if cart.Note != "" {
		fmt.Fprintf(w, "Note:     %s\n", cart.Note)
	}
}
