package variant

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// EventKind identifies a notifier event.
type EventKind int

const (
	// SelectionChanged fires on every option change, with a nil Variant when
	// the selection resolves to nothing.
	SelectionChanged EventKind = iota
	// PriceChanged fires when price or compare-at price differs from the previous variant.
	PriceChanged
	// ImageChanged fires when the new variant's featured image differs from the previous one.
	ImageChanged
)

func (k EventKind) String() string {
	switch k {
	case SelectionChanged:
		return "selectionChanged"
	case PriceChanged:
		return "priceChanged"
	case ImageChanged:
		return "imageChanged"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners.
type Event struct {
	Kind     EventKind
	Variant  *domain.Variant
	Previous *domain.Variant
}

// Listener receives notifier events synchronously.
type Listener func(Event)

// OptionSource reports the current state of a product form's option controls.
type OptionSource interface {
	Inputs() []Input
}

// MasterSelector is the hidden id field used as a fallback submission path.
type MasterSelector interface {
	SetVariantID(id int64)
}

// History replaces the addressable URL without navigating.
type History interface {
	ReplaceVariant(id int64)
}

// Options configures a Notifier.
type Options struct {
	Product            domain.Product
	Source             OptionSource
	MasterSelector     MasterSelector
	History            History
	EnableHistoryState bool
	Logger             *zap.Logger
}

var errNoSource = errors.New("variant: option source required")

// Notifier owns the current variant of one product form.
type Notifier struct {
	product domain.Product
	source  OptionSource
	master  MasterSelector
	history History
	useHist bool
	logger  *zap.Logger

	mu          sync.RWMutex
	current     *domain.Variant
	listeners   map[EventKind][]subscription
	nextID      int
	closed      bool
	dispatching bool
	pending     bool
}

type subscription struct {
	id int
	fn Listener
}

// NewNotifier resolves the initial variant eagerly from the source.
func NewNotifier(opts Options) (*Notifier, error) {
	if opts.Source == nil {
		return nil, errNoSource
	}
	if len(opts.Product.Variants) == 0 {
		return nil, domain.ErrInvalidProduct
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{
		product:   opts.Product,
		source:    opts.Source,
		master:    opts.MasterSelector,
		history:   opts.History,
		useHist:   opts.EnableHistoryState,
		logger:    logger,
		listeners: make(map[EventKind][]subscription),
	}
	n.current = Resolve(n.product, SelectionFromInputs(n.source.Inputs()))
	return n, nil
}

// Current returns the current variant, or nil when unresolved.
func (n *Notifier) Current() *domain.Variant {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Subscribe registers fn for kind and returns a function removing it.
func (n *Notifier) Subscribe(kind EventKind, fn Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return func() {}
	}
	n.nextID++
	id := n.nextID
	n.listeners[kind] = append(n.listeners[kind], subscription{id: id, fn: fn})
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		subs := n.listeners[kind]
		for i, s := range subs {
			if s.id == id {
				n.listeners[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// OnOptionChange handles a change event from any tracked option control.
// Changes are processed one at a time. A call made while another is being
// dispatched, including one made from inside a listener, is folded into a
// follow-up pass that re-reads the option controls, and returns at once.
func (n *Notifier) OnOptionChange() {
	n.mu.Lock()
	if n.dispatching {
		n.pending = true
		n.mu.Unlock()
		return
	}
	n.dispatching = true
	n.mu.Unlock()

	for {
		n.change()

		n.mu.Lock()
		if !n.pending || n.closed {
			n.dispatching = false
			n.pending = false
			n.mu.Unlock()
			return
		}
		n.pending = false
		n.mu.Unlock()
	}
}

// change runs one selection pass: master selector, image, price, current
// variant, then history.
func (n *Notifier) change() {
	n.mu.RLock()
	closed := n.closed
	previous := n.current
	n.mu.RUnlock()
	if closed {
		return
	}

	next := Resolve(n.product, SelectionFromInputs(n.source.Inputs()))
	n.emit(Event{Kind: SelectionChanged, Variant: next, Previous: previous})
	if next == nil {
		n.logger.Debug("selection unresolved", zap.Int64("product_id", n.product.ID))
		return
	}

	if n.master != nil {
		n.master.SetVariantID(next.ID)
	}
	if imageChanged(previous, next) {
		n.emit(Event{Kind: ImageChanged, Variant: next, Previous: previous})
	}
	if priceChanged(previous, next) {
		n.emit(Event{Kind: PriceChanged, Variant: next, Previous: previous})
	}

	n.mu.Lock()
	n.current = next
	n.mu.Unlock()

	if n.useHist && n.history != nil {
		n.history.ReplaceVariant(next.ID)
	}
	n.logger.Debug("variant selected",
		zap.Int64("product_id", n.product.ID),
		zap.Int64("variant_id", next.ID))
}

// Close detaches every listener. Later change events are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.listeners = make(map[EventKind][]subscription)
}

// ListenerCount reports attached listeners across all kinds.
func (n *Notifier) ListenerCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	total := 0
	for _, subs := range n.listeners {
		total += len(subs)
	}
	return total
}

func (n *Notifier) emit(ev Event) {
	n.mu.RLock()
	subs := append([]subscription(nil), n.listeners[ev.Kind]...)
	n.mu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}

// imageChanged treats a missing previous variant as always different.
func imageChanged(prev, next *domain.Variant) bool {
	if next.FeaturedImage == nil {
		return false
	}
	if prev == nil || prev.FeaturedImage == nil {
		return true
	}
	return prev.FeaturedImage.Src != next.FeaturedImage.Src
}

// priceChanged treats a missing previous variant as always different.
func priceChanged(prev, next *domain.Variant) bool {
	if prev == nil {
		return true
	}
	if prev.Price != next.Price {
		return true
	}
	switch {
	case prev.CompareAtPrice == nil && next.CompareAtPrice == nil:
		return false
	case prev.CompareAtPrice == nil || next.CompareAtPrice == nil:
		return true
	default:
		return *prev.CompareAtPrice != *next.CompareAtPrice
	}
}
