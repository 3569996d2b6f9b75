package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/money"
	"storefront/internal/section"
	"storefront/internal/variant"
)

var variantOptions []string

var variantCmd = &cobra.Command{
	Use:   "variant",
	Short: "Product variant selection",
}

var variantResolveCmd = &cobra.Command{
	Use:   "resolve <handle>",
	Short: "Resolve option values to a variant and show what the product form would render",
	Example: `  storefront variant resolve classic-tee --option Color=Red --option Size=M
  storefront variant resolve classic-tee --option 1=Blue`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		product, err := s.client.GetProduct(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		inputs, err := parseOptionFlags(product, variantOptions)
		if err != nil {
			return err
		}

		formatter, err := money.NewFormatter(theme.MoneyFormat)
		if err != nil {
			return err
		}
		container, err := newProductTerminal(product)
		if err != nil {
			return err
		}
		container.productURL = &url.URL{
			Scheme: s.base.Scheme,
			Host:   s.base.Host,
			Path:   strings.TrimRight(s.base.Path, "/") + "/products/" + product.Handle,
		}

		registry := section.NewRegistry(logger)
		defer registry.Close()
		registry.Register("product", section.NewProductConstructor(section.ProductOptions{
			Money: formatter,
			Labels: section.Labels{
				AddToCart:   theme.Strings.AddToCart,
				SoldOut:     theme.Strings.SoldOut,
				Unavailable: theme.Strings.Unavailable,
			},
			ImageSize:          theme.ProductImageSize,
			EnableHistoryState: theme.EnableHistoryState,
			Logger:             logger,
		}))
		if err := registry.Load(cmd.Context(), container); err != nil {
			return err
		}
		inst, ok := registry.Instance(container.ID())
		if !ok {
			return fmt.Errorf("product section %s did not mount", container.ID())
		}
		ps := inst.(*section.ProductSection)

		container.inputs = inputs
		ps.OnOptionChange()
		logger.Debug("variant resolved",
			zap.String("handle", product.Handle),
			zap.Int64("variant_id", container.variantID))

		container.print(cmd.OutOrStdout(), ps.Notifier().Current())
		return nil
	},
}

func init() {
	variantResolveCmd.Flags().StringArrayVarP(&variantOptions, "option", "o", nil, "Option value as name=value or position=value (repeatable)")
}

// parseOptionFlags maps name=value or position=value pairs onto select
// inputs. Positions are 1-based like option1..option3.
func parseOptionFlags(product *domain.Product, raw []string) ([]variant.Input, error) {
	inputs := make([]variant.Input, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("option %q: expected name=value", kv)
		}
		idx, err := optionIndex(product, strings.TrimSpace(key))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, variant.Input{Index: idx, Value: value, Kind: variant.InputSelect})
	}
	return inputs, nil
}

func optionIndex(product *domain.Product, key string) (int, error) {
	if n, err := strconv.Atoi(key); err == nil {
		if n < 1 || n > len(product.Options) {
			return 0, fmt.Errorf("option position %d out of range 1..%d", n, len(product.Options))
		}
		return n - 1, nil
	}
	for i, name := range product.Options {
		if strings.EqualFold(name, key) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("product %s has no option %q", product.Handle, key)
}
