package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/supermart-cli/internal/artifacts"
	"github.com/KaramelBytes/supermart-cli/internal/features"
)

// Predictions are clamped to this range, as the dashboard does.
const (
	minPrediction = 100.0
	maxPrediction = 100000.0
)

var (
	predCategory string
	predCity     string
	predRegion   string
	predProfit   float64
	predDiscount float64
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the sales of one order with the trained model",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if predDiscount < 0 || predDiscount > 1 {
			return fmt.Errorf("discount must be between 0 and 1, got %g", predDiscount)
		}
		layout := layoutFor(c)
		booster, err := artifacts.LoadModel(layout)
		if err != nil {
			return err
		}
		encoders, err := artifacts.LoadEncoders(layout)
		if err != nil {
			return err
		}
		row, err := features.EncodeWith(encoders, predCategory, predCity, predRegion, predProfit, predDiscount)
		if err != nil {
			return err
		}
		raw := booster.Predict(row)
		v := clampPrediction(raw)
		fmt.Printf("✓ Predicted sales: ₹%.2f\n", v)
		if v != raw {
			fmt.Printf("  (model output %.2f clamped to [%.0f, %.0f])\n", raw, minPrediction, maxPrediction)
		}
		return nil
	},
}

func clampPrediction(v float64) float64 {
	return math.Max(minPrediction, math.Min(maxPrediction, v))
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringVar(&predCategory, "category", "", "product category")
	predictCmd.Flags().StringVar(&predCity, "city", "", "customer city")
	predictCmd.Flags().StringVar(&predRegion, "region", "", "sales region")
	predictCmd.Flags().Float64Var(&predProfit, "profit", 0, "expected profit")
	predictCmd.Flags().Float64Var(&predDiscount, "discount", 0, "discount fraction (0-1)")
	_ = predictCmd.MarkFlagRequired("category")
	_ = predictCmd.MarkFlagRequired("city")
	_ = predictCmd.MarkFlagRequired("region")
}
