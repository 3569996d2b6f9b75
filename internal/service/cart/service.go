package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// ErrMissingLine is returned when a change names neither a line nor an id.
var ErrMissingLine = errors.New("line or id required")

var lineNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:storefront:cart-line"))

// Error carries the shopper-facing description of a rejected mutation.
type Error struct {
	Err         error
	Description string
}

func (e *Error) Error() string { return e.Description }

func (e *Error) Unwrap() error { return e.Err }

type Service struct {
	repo     cartRepo
	variants variantReader
	currency string
	logger   *zap.Logger
}

type cartRepo interface {
	Create(ctx context.Context, token, currency string) (*domain.Cart, error)
	Get(ctx context.Context, token string) (*domain.Cart, error)
	AddLine(ctx context.Context, token string, in cartrepo.AddLineInput) error
	SetQuantity(ctx context.Context, token, key string, quantity int) error
	ReplaceLine(ctx context.Context, token, oldKey string, in cartrepo.AddLineInput) error
	UpdateNote(ctx context.Context, token, note string) error
}

type variantReader interface {
	GetVariant(ctx context.Context, id int64) (*domain.Variant, error)
}

func New(repo cartRepo, variants variantReader, currency string, logger *zap.Logger) *Service {
	if currency == "" {
		currency = "USD"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, variants: variants, currency: currency, logger: logger}
}

type AddInput struct {
	VariantID  int64
	Quantity   int
	Properties map[string]string
}

// ChangeInput addresses a line by 1-based Line or by ID (variant id or line
// key). A nil Quantity keeps the current quantity.
type ChangeInput struct {
	Line       int
	ID         string
	Quantity   *int
	Properties map[string]string
}

// Get returns the cart for token. A token without a cart yields an empty cart.
func (s *Service) Get(ctx context.Context, token string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Cart{Token: token, Currency: s.currency, Items: []domain.LineItem{}}, nil
	}
	return cart, err
}

// Add adds quantity of a variant, merging with an existing line that has the
// same properties. It returns the resulting line.
func (s *Service) Add(ctx context.Context, token string, in AddInput) (*domain.LineItem, error) {
	if in.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	variant, err := s.variant(ctx, in.VariantID)
	if err != nil {
		return nil, err
	}
	props := normalizeProperties(in.Properties)
	key := LineKey(variant.ID, props)

	cart, err := s.repo.Create(ctx, token, s.currency)
	if err != nil {
		return nil, err
	}
	existing := 0
	if line, _, ok := cart.LineByVariant(key); ok {
		existing = line.Quantity
	}
	if err := checkStock(variant, existing+in.Quantity); err != nil {
		return nil, err
	}

	if err := s.repo.AddLine(ctx, token, cartrepo.AddLineInput{
		Key:        key,
		VariantID:  variant.ID,
		Quantity:   in.Quantity,
		Properties: props,
	}); err != nil {
		return nil, err
	}
	s.logger.Debug("cart line added",
		zap.String("token", token),
		zap.String("key", key),
		zap.Int("quantity", in.Quantity))

	cart, err = s.repo.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	line, _, ok := cart.LineByVariant(key)
	if !ok {
		return nil, fmt.Errorf("cart line %s missing after add", key)
	}
	return line, nil
}

// Change sets a line's quantity or properties. Quantity zero removes the line.
func (s *Service) Change(ctx context.Context, token string, in ChangeInput) (*domain.Cart, error) {
	if in.Quantity != nil && *in.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	line, err := findLine(cart, in)
	if err != nil {
		return nil, err
	}

	qty := line.Quantity
	if in.Quantity != nil {
		qty = *in.Quantity
	}

	switch {
	case in.Properties != nil && qty > 0:
		variant, err := s.variant(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		if err := checkStock(variant, qty); err != nil {
			return nil, err
		}
		props := normalizeProperties(in.Properties)
		err = s.repo.ReplaceLine(ctx, token, line.Key, cartrepo.AddLineInput{
			Key:        LineKey(line.VariantID, props),
			VariantID:  line.VariantID,
			Quantity:   qty,
			Properties: props,
		})
		if err != nil {
			return nil, err
		}
	case qty != line.Quantity:
		if qty > 0 {
			variant, err := s.variant(ctx, line.VariantID)
			if err != nil {
				return nil, err
			}
			if err := checkStock(variant, qty); err != nil {
				return nil, err
			}
		}
		if err := s.repo.SetQuantity(ctx, token, line.Key, qty); err != nil {
			return nil, err
		}
	}
	s.logger.Debug("cart line changed",
		zap.String("token", token),
		zap.String("key", line.Key),
		zap.Int("quantity", qty))
	return s.Get(ctx, token)
}

// UpdateNote replaces the cart note, creating the cart if needed.
func (s *Service) UpdateNote(ctx context.Context, token, note string) (*domain.Cart, error) {
	if _, err := s.repo.Create(ctx, token, s.currency); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateNote(ctx, token, note); err != nil {
		return nil, err
	}
	return s.Get(ctx, token)
}

// LineKey identifies a line by variant and properties: "<variant>:<hash>".
func LineKey(variantID int64, props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(props[k])
		b.WriteByte('\n')
	}
	sum := uuid.NewSHA1(lineNamespace, []byte(b.String()))
	return fmt.Sprintf("%d:%s", variantID, strings.ReplaceAll(sum.String(), "-", ""))
}

func (s *Service) variant(ctx context.Context, id int64) (*domain.Variant, error) {
	if id <= 0 {
		return nil, &Error{Err: domain.ErrNotFound, Description: "Cannot find variant"}
	}
	v, err := s.variants.GetVariant(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &Error{Err: domain.ErrNotFound, Description: "Cannot find variant"}
		}
		return nil, err
	}
	return v, nil
}

func findLine(cart *domain.Cart, in ChangeInput) (*domain.LineItem, error) {
	switch {
	case in.Line > 0:
		line, ok := cart.Line(in.Line)
		if !ok {
			return nil, &Error{Err: domain.ErrLineOutOfRange, Description: fmt.Sprintf("Line %d does not exist in the cart", in.Line)}
		}
		return line, nil
	case in.ID != "":
		line, _, ok := cart.LineByVariant(in.ID)
		if !ok {
			return nil, &Error{Err: domain.ErrNotFound, Description: fmt.Sprintf("No line item with id %s in the cart", in.ID)}
		}
		return line, nil
	default:
		return nil, ErrMissingLine
	}
}

func checkStock(v *domain.Variant, quantity int) error {
	if !v.Available {
		return &Error{Err: domain.ErrVariantUnavailable, Description: fmt.Sprintf("The product '%s' is already sold out.", v.Title)}
	}
	if v.InventoryQuantity > 0 && quantity > v.InventoryQuantity {
		return &Error{Err: domain.ErrVariantUnavailable, Description: fmt.Sprintf("You can't add more %s to the cart.", v.Title)}
	}
	return nil
}

func normalizeProperties(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = strings.TrimSpace(k)
		if k == "" || strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	return out
}
