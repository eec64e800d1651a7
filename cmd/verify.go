package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/supermart-cli/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every file the dashboard needs exists and parses",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		report := verify.Run(layoutFor(c))
		fmt.Print(report.Markdown())
		if !report.OK() {
			return fmt.Errorf("verification failed: %d of %d checks did not pass", len(report.Failed()), len(report.Checks))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
