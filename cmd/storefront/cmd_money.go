package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/money"
)

var (
	moneyTemplate     string
	moneyWithCurrency bool
)

var moneyCmd = &cobra.Command{
	Use:   "money",
	Short: "Money formatting helpers",
}

var moneyFormatCmd = &cobra.Command{
	Use:   "format <amount>",
	Short: "Format an amount in minor units (or a decimal string) with the shop money format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tmpl := moneyTemplate
		if tmpl == "" {
			tmpl = theme.MoneyFormat
			if moneyWithCurrency {
				tmpl = theme.MoneyWithCurrencyFormat
			}
		}
		out, err := money.FormatString(args[0], tmpl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	moneyFormatCmd.Flags().StringVar(&moneyTemplate, "template", "", "Money template, e.g. ${{amount}} (default: theme money_format)")
	moneyFormatCmd.Flags().BoolVar(&moneyWithCurrency, "with-currency", false, "Use the theme money_with_currency_format")
}
