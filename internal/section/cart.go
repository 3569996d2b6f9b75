package section

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/cartview"
	"storefront/internal/money"
)

// CartContainer is a container hosting the cart form.
type CartContainer interface {
	Container
	cartview.Display
}

// CartOptions configures cart sections.
type CartOptions struct {
	API                   cartview.CartAPI
	Money                 *money.Formatter
	FreeShippingThreshold int64
	OnError               func(op string, err error)
	Logger                *zap.Logger
}

// CartSection renders cart snapshots into its container. Containers may
// implement cartview.Navigator for the script-free removal path.
type CartSection struct {
	sync *cartview.Sync
}

// NewCartConstructor returns a Constructor for cart sections.
func NewCartConstructor(opts CartOptions) Constructor {
	return func(_ context.Context, c Container) (Instance, error) {
		return NewCartSection(c, opts)
	}
}

func NewCartSection(c Container, opts CartOptions) (*CartSection, error) {
	cc, ok := c.(CartContainer)
	if !ok {
		return nil, fmt.Errorf("container %s does not host a cart", c.ID())
	}
	vopts := cartview.Options{
		API:                   opts.API,
		Display:               cc,
		Money:                 opts.Money,
		FreeShippingThreshold: opts.FreeShippingThreshold,
		Logger:                opts.Logger,
		OnError:               opts.OnError,
	}
	if nav, ok := c.(cartview.Navigator); ok {
		vopts.Navigator = nav
	}
	s, err := cartview.New(vopts)
	if err != nil {
		return nil, err
	}
	return &CartSection{sync: s}, nil
}

// Sync returns the section's cart synchronizer.
func (s *CartSection) Sync() *cartview.Sync {
	return s.sync
}

// Close is a no-op; the synchronizer holds no listeners on the container.
func (s *CartSection) Close() error {
	return nil
}
