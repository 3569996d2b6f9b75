package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme holds the shop settings the storefront client reads.
type Theme struct {
	MoneyFormat             string  `yaml:"money_format"`
	MoneyWithCurrencyFormat string  `yaml:"money_with_currency_format"`
	EnableHistoryState      bool    `yaml:"enable_history_state"`
	FreeShippingThreshold   int64   `yaml:"free_shipping_threshold"`
	ProductImageSize        string  `yaml:"product_image_size"`
	Strings                 Strings `yaml:"strings"`
}

// Strings are the translatable texts used by the product and cart sections.
type Strings struct {
	AddToCart   string `yaml:"add_to_cart"`
	SoldOut     string `yaml:"sold_out"`
	Unavailable string `yaml:"unavailable"`
	CartEmpty   string `yaml:"cart_empty"`
}

// DefaultTheme is used when no settings file is configured.
func DefaultTheme() Theme {
	return Theme{
		MoneyFormat:             "${{amount}}",
		MoneyWithCurrencyFormat: "${{amount}} USD",
		EnableHistoryState:      true,
		ProductImageSize:        "1024x1024",
		Strings: Strings{
			AddToCart:   "Add to cart",
			SoldOut:     "Sold out",
			Unavailable: "Unavailable",
			CartEmpty:   "Your cart is currently empty.",
		},
	}
}

// LoadTheme reads theme settings from a YAML file over the defaults.
// An empty path returns the defaults.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()
	if path == "" {
		return theme, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return theme, fmt.Errorf("read theme settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, &theme); err != nil {
		return theme, fmt.Errorf("parse theme settings %s: %w", path, err)
	}
	if theme.FreeShippingThreshold < 0 {
		return theme, fmt.Errorf("parse theme settings %s: negative free_shipping_threshold", path)
	}
	return theme, nil
}
