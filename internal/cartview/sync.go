// Package cartview reconciles cart responses into displayed state and orders
// overlapping cart mutations so the newest issued request always wins.
package cartview

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"storefront/internal/cartclient"
	"storefront/internal/domain"
	"storefront/internal/money"
)

// CartAPI is the subset of the cart client used by Sync.
type CartAPI interface {
	AddItem(ctx context.Context, form url.Values) (*domain.Cart, error)
	ChangeLine(ctx context.Context, req cartclient.ChangeRequest) (*domain.Cart, error)
	GetCart(ctx context.Context) (*domain.Cart, error)
	UpdateNote(ctx context.Context, note string) (*domain.Cart, error)
	ChangeURL(line, quantity int) string
}

// Display is the cart UI the snapshot is rendered into.
type Display interface {
	SetUpdating(updating bool)
	SetSubtotal(formatted string)
	SetItemCount(text string)
	ShowEmptyState()
}

// ProgressDisplay is implemented by displays with a free-shipping bar.
type ProgressDisplay interface {
	SetFreeShippingProgress(percent string, reached bool)
}

// FormDisplay is implemented by displays that can bring the cart form back
// after the empty state was shown.
type FormDisplay interface {
	ShowForm()
}

// Navigator performs full-page navigation for the script-free removal path.
type Navigator interface {
	Navigate(url string)
}

// Options configures a Sync.
type Options struct {
	API                   CartAPI
	Display               Display
	Money                 *money.Formatter
	Navigator             Navigator
	FreeShippingThreshold int64
	Logger                *zap.Logger
	// OnError is called for every failed mutation. It defaults to logging.
	OnError func(op string, err error)
}

// Sync applies cart snapshots to a Display. Every request is stamped with a
// sequence number when issued; a response older than the last applied one
// is discarded.
type Sync struct {
	api       CartAPI
	display   Display
	money     *money.Formatter
	navigator Navigator
	threshold int64
	logger    *zap.Logger
	onError   func(op string, err error)

	issued atomic.Uint64

	mu       sync.Mutex
	applied  uint64
	snapshot *domain.Cart
	empty    bool
}

var errNoAPI = errors.New("cartview: cart api required")

// New builds a Sync.
func New(opts Options) (*Sync, error) {
	if opts.API == nil {
		return nil, errNoAPI
	}
	if opts.Display == nil {
		return nil, errors.New("cartview: display required")
	}
	formatter := opts.Money
	if formatter == nil {
		formatter = &money.Formatter{Template: money.DefaultTemplate}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sync{
		api:       opts.API,
		display:   opts.Display,
		money:     formatter,
		navigator: opts.Navigator,
		threshold: opts.FreeShippingThreshold,
		logger:    logger,
		onError:   opts.OnError,
	}
	if s.onError == nil {
		s.onError = func(op string, err error) {
			logger.Warn("cart mutation failed", zap.String("op", op), zap.Error(err))
		}
	}
	return s, nil
}

// Snapshot returns the last applied cart, or nil before the first response.
func (s *Sync) Snapshot() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Mutate issues fn and reconciles its response. All cart operations go
// through here. The returned bool reports whether the response was applied.
// A failing fn may still return the last cart the server confirmed; that cart
// is reconciled under the same sequence number before the error is reported.
func (s *Sync) Mutate(ctx context.Context, op string, fn func(ctx context.Context) (*domain.Cart, error)) (*domain.Cart, bool, error) {
	seq := s.issued.Add(1)
	s.display.SetUpdating(true)

	cart, err := fn(ctx)
	if err != nil {
		applied := false
		if cart != nil {
			applied = s.apply(op, seq, cart)
		} else {
			s.settle(seq)
		}
		s.onError(op, err)
		return cart, applied, err
	}
	return cart, s.apply(op, seq, cart), nil
}

// Refresh fetches the cart and renders it.
func (s *Sync) Refresh(ctx context.Context) (*domain.Cart, error) {
	cart, _, err := s.Mutate(ctx, "get", s.api.GetCart)
	return cart, err
}

// Add submits a product form.
func (s *Sync) Add(ctx context.Context, req cartclient.AddRequest) (*domain.Cart, error) {
	cart, _, err := s.Mutate(ctx, "add", func(ctx context.Context) (*domain.Cart, error) {
		return s.api.AddItem(ctx, req.Form())
	})
	return cart, err
}

// ChangeQuantity handles the quantity input of a 1-based cart line. A typed
// zero removes the line through navigation when a Navigator is configured.
func (s *Sync) ChangeQuantity(ctx context.Context, line, qty int) (*domain.Cart, error) {
	if qty < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if qty == 0 && s.navigator != nil {
		s.navigator.Navigate(s.api.ChangeURL(line, 0))
		return nil, nil
	}
	cart, _, err := s.Mutate(ctx, "change", func(ctx context.Context) (*domain.Cart, error) {
		return s.api.ChangeLine(ctx, cartclient.ChangeRequest{Line: line, Quantity: qty})
	})
	return cart, err
}

// Step moves a line's quantity by one within the stepper bounds and submits it.
// A blocked increment issues no request.
func (s *Sync) Step(ctx context.Context, id string, current int, stepper Stepper, up bool) (int, *domain.Cart, error) {
	next := stepper.Decrement(current)
	if up {
		var ok bool
		next, ok = stepper.Increment(current)
		if !ok {
			return current, nil, nil
		}
	}
	cart, _, err := s.Mutate(ctx, "change", func(ctx context.Context) (*domain.Cart, error) {
		return s.api.ChangeLine(ctx, cartclient.ChangeRequest{ID: id, Quantity: next})
	})
	return next, cart, err
}

// RemoveLine sets the line for id to zero.
func (s *Sync) RemoveLine(ctx context.Context, id string) (*domain.Cart, error) {
	cart, _, err := s.Mutate(ctx, "remove", func(ctx context.Context) (*domain.Cart, error) {
		return s.api.ChangeLine(ctx, cartclient.ChangeRequest{ID: id, Quantity: 0})
	})
	return cart, err
}

// SwapLine removes the line for removeID and adds req in its place, as one
// sequenced mutation. It backs subscription-frequency and in-cart variant changes.
// When the add fails after the remove succeeded, the post-remove cart is
// rendered and returned along with the error.
func (s *Sync) SwapLine(ctx context.Context, removeID string, req cartclient.AddRequest) (*domain.Cart, error) {
	cart, _, err := s.Mutate(ctx, "swap", func(ctx context.Context) (*domain.Cart, error) {
		removed, err := s.api.ChangeLine(ctx, cartclient.ChangeRequest{ID: removeID, Quantity: 0})
		if err != nil {
			return nil, err
		}
		added, err := s.api.AddItem(ctx, req.Form())
		if err != nil {
			return removed, err
		}
		return added, nil
	})
	return cart, err
}

// ChangeSubscription swaps a line to the subscription variant with the given
// delivery interval in days.
func (s *Sync) ChangeSubscription(ctx context.Context, removeID string, subscriptionID int64, qty, frequencyDays int) (*domain.Cart, error) {
	return s.SwapLine(ctx, removeID, cartclient.AddRequest{
		ID:       subscriptionID,
		Quantity: qty,
		Properties: map[string]string{
			"shipping_interval_frequency": strconv.Itoa(frequencyDays),
			"shipping_interval_unit_type": "day",
		},
	})
}

// UpdateNote replaces the cart note.
func (s *Sync) UpdateNote(ctx context.Context, note string) (*domain.Cart, error) {
	cart, _, err := s.Mutate(ctx, "note", func(ctx context.Context) (*domain.Cart, error) {
		return s.api.UpdateNote(ctx, note)
	})
	return cart, err
}

func (s *Sync) apply(op string, seq uint64, cart *domain.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		s.logger.Debug("discarding stale cart response",
			zap.String("op", op),
			zap.Uint64("seq", seq),
			zap.Uint64("applied", s.applied))
		return false
	}
	s.applied = seq
	s.snapshot = cart
	s.render(cart)
	if seq == s.issued.Load() {
		s.display.SetUpdating(false)
	}
	return true
}

// settle clears the updating state after a failure when no newer request is in flight.
func (s *Sync) settle(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.issued.Load() {
		s.display.SetUpdating(false)
	}
}

func (s *Sync) render(cart *domain.Cart) {
	if cart.ItemCount == 0 {
		if !s.empty {
			s.display.ShowEmptyState()
			s.empty = true
		}
	} else {
		if s.empty {
			if fd, ok := s.display.(FormDisplay); ok {
				fd.ShowForm()
			}
			s.empty = false
		}
		s.display.SetSubtotal(s.money.Format(cart.TotalPrice))
	}
	s.display.SetItemCount(FormatItemCount(cart.ItemCount))
	if pd, ok := s.display.(ProgressDisplay); ok && s.threshold > 0 {
		pd.SetFreeShippingProgress(FreeShippingProgress(cart.TotalPrice, s.threshold))
	}
}
