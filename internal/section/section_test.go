package section

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cartclient"
	"storefront/internal/domain"
	"storefront/internal/variant"
)

const productJSON = `{
  "id": 1,
  "handle": "tee",
  "title": "Tee",
  "options": ["Color", "Size"],
  "variants": [
    {"id": 11, "option1": "Red", "option2": "S", "price": 1000, "compare_at_price": 1500, "available": true,
     "featured_image": {"id": 1, "src": "https://cdn.example.com/red.jpg"}},
    {"id": 12, "option1": "Red", "option2": "M", "price": 1000, "available": false},
    {"id": 13, "option1": "Blue", "option2": "S", "price": 1200, "compare_at_price": 1200, "available": true,
     "featured_image": {"id": 2, "src": "https://cdn.example.com/blue.jpg"}}
  ]
}`

type basicContainer struct {
	id, kind string
	payload  []byte
}

func (c *basicContainer) ID() string      { return c.id }
func (c *basicContainer) Type() string    { return c.kind }
func (c *basicContainer) Payload() []byte { return c.payload }

type productContainer struct {
	basicContainer
	inputs []variant.Input

	enabled   bool
	label     string
	price     string
	compareAt string
	image     string
	master    int64
}

func newProductContainer(id string, payload string, values ...string) *productContainer {
	c := &productContainer{basicContainer: basicContainer{id: id, kind: "product", payload: []byte(payload)}}
	c.choose(values...)
	return c
}

func (c *productContainer) choose(values ...string) {
	c.inputs = c.inputs[:0]
	for i, v := range values {
		c.inputs = append(c.inputs, variant.Input{Index: i, Value: v, Kind: variant.InputSelect})
	}
}

func (c *productContainer) Inputs() []variant.Input { return c.inputs }
func (c *productContainer) SetAddToCart(enabled bool, label string) {
	c.enabled, c.label = enabled, label
}
func (c *productContainer) SetPrice(price, compareAt string) { c.price, c.compareAt = price, compareAt }
func (c *productContainer) SetImage(src string) { c.image = src }
func (c *productContainer) SetVariantID(id int64) { c.master = id }

type closer struct {
	mu     sync.Mutex
	closed int
}

func (c *closer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func TestRegistryIsolatesConstructionFailures(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("panics", func(context.Context, Container) (Instance, error) { panic("boom") })
	r.Register("fails", func(context.Context, Container) (Instance, error) { return nil, errors.New("bad") })
	r.Register("product", NewProductConstructor(ProductOptions{}))

	err := r.LoadAll(context.Background(), []Container{
		&basicContainer{id: "a", kind: "panics"},
		&basicContainer{id: "b", kind: "fails"},
		newProductContainer("c", productJSON, "Red", "S"),
		newProductContainer("d", `{"id": 2, "handle": "broken", "variants": []}`),
		&basicContainer{id: "e", kind: "missing"},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "constructor panic: boom")
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Equal(t, []string{"c"}, r.Mounted())
}

func TestRegistryReloadReplacesInstance(t *testing.T) {
	r := NewRegistry(nil)
	var made []*closer
	r.Register("x", func(context.Context, Container) (Instance, error) {
		c := &closer{}
		made = append(made, c)
		return c, nil
	})
	c := &basicContainer{id: "a", kind: "x"}

	require.NoError(t, r.Load(context.Background(), c))
	require.NoError(t, r.Load(context.Background(), c))
	require.Len(t, made, 2)
	assert.Equal(t, 1, made[0].closed)
	assert.Equal(t, 0, made[1].closed)

	require.NoError(t, r.Unload("a"))
	assert.Equal(t, 1, made[1].closed)
	assert.ErrorIs(t, r.Unload("a"), ErrNotMounted)
	assert.ErrorIs(t, r.Select("a"), ErrNotMounted)
}

func TestProductSectionInitialState(t *testing.T) {
	c := newProductContainer("p", productJSON, "Red", "S")
	s, err := NewProductSection(c, ProductOptions{ImageSize: "600x"})
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, c.enabled)
	assert.Equal(t, "Add to cart", c.label)
	assert.Equal(t, "$10.00", c.price)
	assert.Equal(t, "$15.00", c.compareAt)
	assert.Equal(t, "//cdn.example.com/red_600x.jpg", c.image)
}

func TestProductSectionFollowsSelection(t *testing.T) {
	c := newProductContainer("p", productJSON, "Red", "S")
	s, err := NewProductSection(c, ProductOptions{Labels: Labels{SoldOut: "Gone"}})
	require.NoError(t, err)
	defer s.Close()

	c.choose("Red", "M")
	s.OnOptionChange()
	assert.False(t, c.enabled)
	assert.Equal(t, "Gone", c.label)
	assert.Equal(t, int64(12), c.master)

	c.choose("Green", "S")
	s.OnOptionChange()
	assert.False(t, c.enabled)
	assert.Equal(t, "Unavailable", c.label)

	c.choose("Blue", "S")
	s.OnOptionChange()
	assert.True(t, c.enabled)
	assert.Equal(t, "$12.00", c.price)
	assert.Empty(t, c.compareAt, "compare-at equal to price is hidden")
	assert.Equal(t, "https://cdn.example.com/blue.jpg", c.image)
}

func TestProductSectionDetachesOnUnload(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("product", NewProductConstructor(ProductOptions{}))
	c := newProductContainer("p", productJSON, "Red", "S")

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Load(context.Background(), c))
		inst, ok := r.Instance("p")
		require.True(t, ok)
		ps := inst.(*ProductSection)
		assert.Equal(t, 3, ps.Notifier().ListenerCount())

		require.NoError(t, r.Unload("p"))
		assert.Zero(t, ps.Notifier().ListenerCount())

		c.label = ""
		c.choose("Blue", "S")
		ps.OnOptionChange()
		assert.Empty(t, c.label, "unloaded section must not render")
		c.choose("Red", "S")
	}
	assert.Empty(t, r.Mounted())
}

func TestProductSectionRejectsMalformedPayload(t *testing.T) {
	for name, payload := range map[string]string{
		"empty":       ``,
		"syntax":      `{"id": `,
		"no handle":   `{"id": 1, "variants": [{"id": 2, "price": 1}]}`,
		"no variants": `{"id": 1, "handle": "x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewProductSection(newProductContainer("p", payload), ProductOptions{})
			require.ErrorIs(t, err, domain.ErrInvalidProduct)
		})
	}
}

type cartContainer struct {
	basicContainer
	count string
}

func (c *cartContainer) SetUpdating(bool) {}
func (c *cartContainer) SetSubtotal(string) {}
func (c *cartContainer) SetItemCount(s string) { c.count = s }
func (c *cartContainer) ShowEmptyState() {}

type stubCartAPI struct{}

func (stubCartAPI) AddItem(context.Context, url.Values) (*domain.Cart, error) {
	return &domain.Cart{ItemCount: 1}, nil
}
func (stubCartAPI) ChangeLine(context.Context, cartclient.ChangeRequest) (*domain.Cart, error) {
	return &domain.Cart{ItemCount: 2}, nil
}
func (stubCartAPI) GetCart(context.Context) (*domain.Cart, error) {
	return &domain.Cart{ItemCount: 7}, nil
}
func (stubCartAPI) UpdateNote(context.Context, string) (*domain.Cart, error) {
	return &domain.Cart{}, nil
}
func (stubCartAPI) ChangeURL(int, int) string { return "" }

func TestCartSection(t *testing.T) {
	r := NewRegistry(nil)
	r.Register("cart", NewCartConstructor(CartOptions{API: stubCartAPI{}}))
	c := &cartContainer{basicContainer: basicContainer{id: "cart", kind: "cart"}}

	require.NoError(t, r.Load(context.Background(), c))
	inst, ok := r.Instance("cart")
	require.True(t, ok)
	_, err := inst.(*CartSection).Sync().Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "07", c.count)

	err = r.Load(context.Background(), &basicContainer{id: "bare", kind: "cart"})
	require.Error(t, err)
	require.NoError(t, r.Close())
	assert.Empty(t, r.Mounted())
}
