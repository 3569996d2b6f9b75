package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo     productrepo.Repository
	validate *validator.Validate
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	return s.repo.GetByHandle(ctx, strings.ToLower(strings.TrimSpace(handle)))
}

// Save validates and upserts a product. An empty handle is derived from the title.
func (s *Service) Save(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(p.Handle) == "" {
		p.Handle = Handle(p.Title)
	} else {
		p.Handle = Handle(p.Handle)
	}
	if p.Handle == "" {
		return nil, fmt.Errorf("%w: title or handle required", domain.ErrInvalidProduct)
	}
	if err := checkOptions(p); err != nil {
		return nil, err
	}
	// Ids are assigned on write.
	except := []string{"ID"}
	for i := range p.Variants {
		except = append(except, fmt.Sprintf("Variants[%d].ID", i))
	}
	if err := s.validate.StructExcept(p, except...); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s failed %s", domain.ErrInvalidProduct, verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidProduct, err)
	}
	return s.repo.Upsert(ctx, p)
}

// Handle slugifies a title or handle the way storefront URLs expect.
func Handle(s string) string {
	return slug.Make(s)
}

// checkOptions enforces positional option values and unique option tuples.
func checkOptions(p domain.Product) error {
	seen := make(map[string]int, len(p.Variants))
	for i, v := range p.Variants {
		if len(v.Options) != len(p.Options) {
			return fmt.Errorf("%w: variant %d has %d option values for %d options", domain.ErrInvalidProduct, i+1, len(v.Options), len(p.Options))
		}
		tuple := strings.Join(v.Options, "\x00")
		if prev, ok := seen[tuple]; ok {
			return fmt.Errorf("%w: variants %d and %d share options %q", domain.ErrInvalidProduct, prev, i+1, strings.Join(v.Options, " / "))
		}
		seen[tuple] = i + 1
	}
	return nil
}
