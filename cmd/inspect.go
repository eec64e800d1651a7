package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/supermart-cli/internal/inspect"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the shape of the orders CSV and a summary of analytics.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		s, err := inspect.Run(layoutFor(c))
		if err != nil {
			return err
		}
		fmt.Print(s.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
