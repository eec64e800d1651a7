package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/supermart-cli/internal/pipeline"
)

var (
	runWorkers     int
	runSkipPrepare bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Prepare, clean, aggregate, train and save all artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		opts := pipeline.Options{
			Layout:   layoutFor(c),
			ShopFile: c.ShopFile,
			Train:    trainOptions(c),
			Logger:   newLogger(c),
		}
		if runSkipPrepare {
			opts.ShopFile = ""
		}
		if cmd.Flags().Changed("workers") {
			opts.Train.Workers = runWorkers
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sum, err := pipeline.Run(ctx, opts)
		if err != nil {
			return err
		}
		if sum.Prepared {
			fmt.Printf("✓ Prepared %s from %s\n", opts.Layout.Rel(sum.Input), c.ShopFile)
		}
		fmt.Printf("✓ Loaded %d orders (%d raw, %d with nulls dropped, %d duplicates dropped)\n",
			sum.Rows, sum.RawRows, sum.DroppedNull, sum.DroppedDuplicate)
		if sum.InvalidDates > 0 {
			fmt.Fprintf(os.Stderr, "⚠ %d orders have unparseable dates and are left out of monthly sales\n", sum.InvalidDates)
		}
		m := sum.Metrics
		fmt.Printf("✓ Linear baseline: R² %.4f, MSE %.2f\n", m.LRR2, m.LRMSE)
		fmt.Printf("✓ Boosted trees:   R² %.4f, MSE %.2f (cv R² %.4f)\n", m.XGBR2, m.XGBMSE, sum.BestCVR2)
		fmt.Printf("  Best params: %s\n", m.BestParams)
		fmt.Println("  Feature importance:")
		for _, fi := range sum.Importance {
			fmt.Printf("  - %-9s %.3f\n", fi.Feature, fi.Gain)
		}
		for _, f := range sum.Manifest.Files {
			fmt.Printf("✓ Wrote %s (%d bytes)\n", f.Path, f.Size)
		}
		fmt.Printf("✓ Run %s finished in %s\n", sum.RunID, sum.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "concurrent grid-search candidates (0 = number of CPUs)")
	runCmd.Flags().BoolVar(&runSkipPrepare, "skip-prepare", false, "use the existing orders CSV without converting the shop export")
}
