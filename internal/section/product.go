package section

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/money"
	"storefront/internal/variant"
)

// ProductView is the product form UI a ProductSection drives.
type ProductView interface {
	SetAddToCart(enabled bool, label string)
	// SetPrice shows price; an empty compareAt hides the compare-at price.
	SetPrice(price, compareAt string)
	SetImage(src string)
}

// ProductContainer is a container hosting a product form.
type ProductContainer interface {
	Container
	variant.OptionSource
	ProductView
}

// Labels are the add-to-cart button texts.
type Labels struct {
	AddToCart   string
	SoldOut     string
	Unavailable string
}

// DefaultLabels are used for empty Labels fields.
var DefaultLabels = Labels{
	AddToCart:   "Add to cart",
	SoldOut:     "Sold out",
	Unavailable: "Unavailable",
}

// ProductOptions configures product sections.
type ProductOptions struct {
	Money              *money.Formatter
	Labels             Labels
	ImageSize          string
	EnableHistoryState bool
	Validate           *validator.Validate
	Logger             *zap.Logger
}

// ProductSection wires a product form's option controls to its price, image
// and add-to-cart state.
type ProductSection struct {
	container   ProductContainer
	product     domain.Product
	notifier    *variant.Notifier
	money       *money.Formatter
	labels      Labels
	imageSize   string
	unsubscribe []func()
}

// NewProductConstructor returns a Constructor for product sections.
// Containers must implement ProductContainer and may implement
// variant.MasterSelector and variant.History.
func NewProductConstructor(opts ProductOptions) Constructor {
	if opts.Validate == nil {
		opts.Validate = validator.New()
	}
	return func(_ context.Context, c Container) (Instance, error) {
		return NewProductSection(c, opts)
	}
}

// NewProductSection decodes and validates the container's product payload
// and attaches to its option controls.
func NewProductSection(c Container, opts ProductOptions) (*ProductSection, error) {
	pc, ok := c.(ProductContainer)
	if !ok {
		return nil, fmt.Errorf("container %s does not host a product form", c.ID())
	}
	if opts.Validate == nil {
		opts.Validate = validator.New()
	}
	if opts.Money == nil {
		opts.Money = &money.Formatter{Template: money.DefaultTemplate}
	}
	product, err := decodeProduct(c.Payload(), opts.Validate)
	if err != nil {
		return nil, err
	}

	nopts := variant.Options{
		Product:            product,
		Source:             pc,
		EnableHistoryState: opts.EnableHistoryState,
		Logger:             opts.Logger,
	}
	if m, ok := c.(variant.MasterSelector); ok {
		nopts.MasterSelector = m
	}
	if h, ok := c.(variant.History); ok {
		nopts.History = h
	}
	notifier, err := variant.NewNotifier(nopts)
	if err != nil {
		return nil, err
	}

	s := &ProductSection{
		container: pc,
		product:   product,
		notifier:  notifier,
		money:     opts.Money,
		labels:    withDefaults(opts.Labels),
		imageSize: opts.ImageSize,
	}
	s.unsubscribe = []func(){
		notifier.Subscribe(variant.SelectionChanged, func(ev variant.Event) { s.renderAddToCart(ev.Variant) }),
		notifier.Subscribe(variant.PriceChanged, func(ev variant.Event) { s.renderPrice(ev.Variant) }),
		notifier.Subscribe(variant.ImageChanged, func(ev variant.Event) { s.renderImage(ev.Variant) }),
	}

	current := notifier.Current()
	s.renderAddToCart(current)
	if current != nil {
		s.renderPrice(current)
		s.renderImage(current)
	}
	return s, nil
}

// OnOptionChange is called by the host when any option control changes.
func (s *ProductSection) OnOptionChange() {
	s.notifier.OnOptionChange()
}

// Notifier exposes the section's variant notifier.
func (s *ProductSection) Notifier() *variant.Notifier {
	return s.notifier
}

// Product returns the decoded product.
func (s *ProductSection) Product() domain.Product {
	return s.product
}

// Close detaches all listeners.
func (s *ProductSection) Close() error {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
	s.notifier.Close()
	return nil
}

func (s *ProductSection) renderAddToCart(v *domain.Variant) {
	switch {
	case v == nil:
		s.container.SetAddToCart(false, s.labels.Unavailable)
	case !v.Available:
		s.container.SetAddToCart(false, s.labels.SoldOut)
	default:
		s.container.SetAddToCart(true, s.labels.AddToCart)
	}
}

func (s *ProductSection) renderPrice(v *domain.Variant) {
	compareAt := ""
	if v.CompareAtPrice != nil && *v.CompareAtPrice > v.Price {
		compareAt = s.money.Format(*v.CompareAtPrice)
	}
	s.container.SetPrice(s.money.Format(v.Price), compareAt)
}

func (s *ProductSection) renderImage(v *domain.Variant) {
	src := v.FeaturedImageSrc()
	if src == "" {
		return
	}
	s.container.SetImage(variant.SizedImageURL(src, s.imageSize))
}

func decodeProduct(payload []byte, validate *validator.Validate) (domain.Product, error) {
	var product domain.Product
	if len(payload) == 0 {
		return product, fmt.Errorf("%w: empty payload", domain.ErrInvalidProduct)
	}
	if err := json.Unmarshal(payload, &product); err != nil {
		return product, fmt.Errorf("%w: %v", domain.ErrInvalidProduct, err)
	}
	if err := validate.Struct(product); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return product, fmt.Errorf("%w: %s failed %s", domain.ErrInvalidProduct, verrs[0].Namespace(), verrs[0].Tag())
		}
		return product, fmt.Errorf("%w: %v", domain.ErrInvalidProduct, err)
	}
	return product, nil
}

func withDefaults(l Labels) Labels {
	if l.AddToCart == "" {
		l.AddToCart = DefaultLabels.AddToCart
	}
	if l.SoldOut == "" {
		l.SoldOut = DefaultLabels.SoldOut
	}
	if l.Unavailable == "" {
		l.Unavailable = DefaultLabels.Unavailable
	}
	return l
}
