package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/cartclient"
	"storefront/internal/cartview"
	"storefront/internal/domain"
	"storefront/internal/money"
	"storefront/internal/section"
)

var (
	cartQuantity   int
	cartProperties []string
	cartLine       int
	cartLineID     string
	cartFrequency  int
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Inspect and edit the session cart",
}

var cartGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(ctx context.Context, sync *cartview.Sync, client *cartclient.Client) error {
			_, err := sync.Refresh(ctx)
			return err
		})
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <variant-id>...",
	Short: "Add one or more variants; several ids are added concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseVariantIDs(args)
		if err != nil {
			return err
		}
		props, err := parseProperties(cartProperties)
		if err != nil {
			return err
		}
		return withCart(cmd, func(ctx context.Context, sync *cartview.Sync, client *cartclient.Client) error {
			// The session cookie must exist before the adds fan out, or
			// each request would open its own cart.
			if _, err := sync.Refresh(ctx); err != nil {
				return err
			}
			g, gctx := errgroup.WithContext(ctx)
			for _, id := range ids {
				req := cartclient.AddRequest{ID: id, Quantity: cartQuantity, Properties: props}
				g.Go(func() error {
					_, err := sync.Add(gctx, req)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			_, err := sync.Refresh(ctx)
			return err
		})
	},
}

var cartChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Set a line's quantity by --line or --id; zero removes it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cartQuantity < 0 {
			return errors.New("quantity must not be negative")
		}
		if (cartLine > 0) == (cartLineID != "") {
			return errors.New("exactly one of --line or --id is required")
		}
		return withCart(cmd, func(ctx context.Context, sync *cartview.Sync, client *cartclient.Client) error {
			if cartLineID != "" {
				_, _, err := sync.Mutate(ctx, "change", func(ctx context.Context) (*domain.Cart, error) {
					return client.ChangeLine(ctx, cartclient.ChangeRequest{ID: cartLineID, Quantity: cartQuantity})
				})
				return err
			}
			if _, err := sync.ChangeQuantity(ctx, cartLine, cartQuantity); err != nil {
				return err
			}
			if cartQuantity == 0 {
				// The removal went through the change link; pick up the result.
				_, err := sync.Refresh(ctx)
				return err
			}
			return nil
		})
	},
}

var cartNoteCmd = &cobra.Command{
	Use:   "note <text>",
	Short: "Set the cart note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(ctx context.Context, sync *cartview.Sync, client *cartclient.Client) error {
			_, err := sync.UpdateNote(ctx, args[0])
			return err
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <line-id>",
	Short: "Remove a line by variant id or line key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd, func(ctx context.Context, sync *cartview.Sync, client *cartclient.Client) error {
			_, err := sync.RemoveLine(ctx, args[0])
			return err
		})
	},
}

var cartSwapCmd = &cobra.Command{
	Use:   "swap <remove-line-id> <add-variant-id>",
	Short: "Replace a line with another variant, optionally as a subscription",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseVariantIDs(args[1:])
		if err != nil {
			return err
		}
		if cartFrequency < 0 {
			return errors.New("frequency must not be negative")
		}
		return withCart(cmd, func(ctx context.Context, sync *cartview.Sync, client *cartclient.Client) error {
			if cartFrequency > 0 {
				_, err := sync.ChangeSubscription(ctx, args[0], ids[0], cartQuantity, cartFrequency)
				return err
			}
			_, err := sync.SwapLine(ctx, args[0], cartclient.AddRequest{ID: ids[0], Quantity: cartQuantity})
			return err
		})
	},
}

func init() {
	cartAddCmd.Flags().IntVarP(&cartQuantity, "quantity", "q", 1, "Quantity per variant")
	cartAddCmd.Flags().StringArrayVarP(&cartProperties, "property", "p", nil, "Line item property as key=value (repeatable)")

	cartChangeCmd.Flags().IntVar(&cartLine, "line", 0, "1-based line number")
	cartChangeCmd.Flags().StringVar(&cartLineID, "id", "", "Variant id or line key")
	cartChangeCmd.Flags().IntVarP(&cartQuantity, "quantity", "q", 1, "New quantity")
	_ = cartChangeCmd.MarkFlagRequired("quantity")

	cartSwapCmd.Flags().IntVarP(&cartQuantity, "quantity", "q", 1, "Quantity of the new line")
	cartSwapCmd.Flags().IntVar(&cartFrequency, "frequency", 0, "Delivery interval in days; adds the variant as a subscription")
}

// withCart mounts a cart section on a terminal container, runs fn against
// its Sync and prints the last applied cart.
func withCart(cmd *cobra.Command, fn func(ctx context.Context, sync *cartview.Sync, client *cartclient.Client) error) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	formatter, err := money.NewFormatter(theme.MoneyFormat)
	if err != nil {
		return err
	}

	container := &cartTerminal{emptyText: theme.Strings.CartEmpty, client: s.httpClient}
	registry := section.NewRegistry(logger)
	defer registry.Close()
	registry.Register("cart", section.NewCartConstructor(section.CartOptions{
		API:                   s.client,
		Money:                 formatter,
		FreeShippingThreshold: theme.FreeShippingThreshold,
		Logger:                logger,
	}))
	if err := registry.Load(cmd.Context(), container); err != nil {
		return err
	}
	inst, ok := registry.Instance(container.ID())
	if !ok {
		return errors.New("cart section did not mount")
	}
	sync := inst.(*section.CartSection).Sync()

	runErr := fn(cmd.Context(), sync, s.client)
	if err := container.navigationError(); err != nil && runErr == nil {
		runErr = err
	}
	if err := s.saveToken(); err != nil {
		logger.Warn("could not persist cart token", zap.Error(err))
	}
	if runErr != nil {
		return runErr
	}
	container.print(cmd.OutOrStdout(), sync.Snapshot(), formatter.Format)
	return nil
}

func parseVariantIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid variant id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseProperties(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	props := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("property %q: expected key=value", kv)
		}
		props[strings.TrimSpace(key)] = value
	}
	return props, nil
}
