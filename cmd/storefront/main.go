package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/logging"
)

var (
	// Global flags
	verbose   bool
	baseURL   string
	tokenFile string
	timeout   time.Duration

	cfg    config.Config
	theme  config.Theme
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Drive a storefront's variant and cart flows from the terminal",
	Long: `storefront talks to a storefront's AJAX cart API the way a theme does:
it resolves option selections to variants, formats prices with the shop's
money format and keeps a cart in sync across overlapping edits.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dotenvErr := config.LoadDotEnv()
		cfg = config.FromEnv()
		if baseURL == "" {
			baseURL = cfg.StorefrontURL
		}
		if timeout <= 0 {
			timeout = cfg.HTTPClientTimeout
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New(level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if dotenvErr != nil {
			logger.Warn("could not load .env file", zap.Error(dotenvErr))
		}

		theme, err = config.LoadTheme(cfg.ThemeSettingsPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Storefront base URL (default: STOREFRONT_URL)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", defaultTokenFile(), "File holding the cart token between runs")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "HTTP timeout (default: HTTP_CLIENT_TIMEOUT_SECONDS)")

	moneyCmd.AddCommand(moneyFormatCmd)
	variantCmd.AddCommand(variantResolveCmd)
	cartCmd.AddCommand(cartGetCmd, cartAddCmd, cartChangeCmd, cartNoteCmd, cartRemoveCmd, cartSwapCmd)

	rootCmd.AddCommand(moneyCmd)
	rootCmd.AddCommand(variantCmd)
	rootCmd.AddCommand(cartCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
