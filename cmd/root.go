package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/supermart-cli/internal/artifacts"
	cfgpkg "github.com/KaramelBytes/supermart-cli/internal/config"
	"github.com/KaramelBytes/supermart-cli/internal/logging"
	"github.com/KaramelBytes/supermart-cli/internal/model"
)

var (
	// Global flags
	cfgFile  string
	flagRoot string
	debug    bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "supermart",
	Short: "Supermart sales pipeline: clean orders, build analytics, train sales models",
	Long: `supermart turns a shop export of orders into the files a sales dashboard reads:
a cleaned orders CSV, analytics.json, model_metrics.json and the trained model blobs.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.supermart/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", ".", "pipeline root holding shop export, data/ and models/")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal here; commands that need config report it through requireConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func layoutFor(c *cfgpkg.Global) artifacts.Layout {
	return artifacts.Layout{
		Root:         flagRoot,
		InputFile:    c.InputFile,
		ModelsDir:    c.ModelsDir,
		ProcessedDir: c.ProcessedDir,
	}
}

func newLogger(c *cfgpkg.Global) *slog.Logger {
	level := c.LogLevel
	if debug {
		level = "debug"
	}
	return logging.New(logging.Options{Level: level, Format: c.LogFormat})
}

func trainOptions(c *cfgpkg.Global) model.TrainOptions {
	return model.TrainOptions{
		Seed:     c.Seed,
		TestSize: c.TestSize,
		Folds:    c.CVFolds,
		Workers:  c.Workers,
		Grid:     c.Grid.Model(),
	}
}
