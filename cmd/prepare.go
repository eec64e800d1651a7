package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/supermart-cli/internal/dataset"
)

var prepShop string

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Convert the shop export (CSV or XLSX) into the orders CSV with DD-MM-YYYY dates",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		layout := layoutFor(c)
		shop := c.ShopFile
		if prepShop != "" {
			shop = prepShop
		}
		if !filepath.IsAbs(shop) {
			shop = filepath.Join(layout.Root, shop)
		}
		ok, err := dataset.Prepare(shop, layout.InputPath())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no shop export found at %s (or matching .xlsx)", shop)
		}
		fmt.Printf("✓ Wrote %s\n", layout.InputPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.Flags().StringVar(&prepShop, "shop", "", "shop export to convert (default from config shop_file)")
}
