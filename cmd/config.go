package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/supermart-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set supermart configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("input_file: %s\n", cfg.InputFile)
		fmt.Printf("shop_file: %s\n", cfg.ShopFile)
		fmt.Printf("models_dir: %s\n", cfg.ModelsDir)
		fmt.Printf("processed_dir: %s\n", cfg.ProcessedDir)
		fmt.Printf("seed: %d\n", cfg.Seed)
		fmt.Printf("test_size: %.3f\n", cfg.TestSize)
		fmt.Printf("cv_folds: %d\n", cfg.CVFolds)
		if cfg.Workers > 0 {
			fmt.Printf("workers: %d\n", cfg.Workers)
		} else {
			fmt.Println("workers: auto")
		}
		fmt.Printf("grid.n_estimators: %v\n", cfg.Grid.NEstimators)
		fmt.Printf("grid.max_depth: %v\n", cfg.Grid.MaxDepth)
		fmt.Printf("grid.learning_rate: %v\n", cfg.Grid.LearningRate)
		fmt.Printf("grid.subsample: %v\n", cfg.Grid.Subsample)
		fmt.Printf("grid.colsample_bytree: %v\n", cfg.Grid.ColsampleByTree)
		fmt.Printf("log_level: %s\n", cfg.LogLevel)
		fmt.Printf("log_format: %s\n", cfg.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk.
Grid keys take a comma-separated list, e.g. "supermart config set grid.max_depth 3,5".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		next := *cfg
		if err := applySetting(&next, key, val); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Println("Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "input_file":
		c.InputFile = val
	case "shop_file":
		c.ShopFile = val
	case "models_dir":
		c.ModelsDir = val
	case "processed_dir":
		c.ProcessedDir = val
	case "seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for seed: %w", err)
		}
		c.Seed = i
	case "test_size":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for test_size: %w", err)
		}
		c.TestSize = f
	case "cv_folds":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for cv_folds: %w", err)
		}
		c.CVFolds = i
	case "workers":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for workers: %v", val)
		}
		c.Workers = i
	case "grid.n_estimators":
		v, err := parseInts(val)
		if err != nil {
			return fmt.Errorf("invalid list for %s: %w", key, err)
		}
		c.Grid.NEstimators = v
	case "grid.max_depth":
		v, err := parseInts(val)
		if err != nil {
			return fmt.Errorf("invalid list for %s: %w", key, err)
		}
		c.Grid.MaxDepth = v
	case "grid.learning_rate":
		v, err := parseFloats(val)
		if err != nil {
			return fmt.Errorf("invalid list for %s: %w", key, err)
		}
		c.Grid.LearningRate = v
	case "grid.subsample":
		v, err := parseFloats(val)
		if err != nil {
			return fmt.Errorf("invalid list for %s: %w", key, err)
		}
		c.Grid.Subsample = v
	case "grid.colsample_bytree":
		v, err := parseFloats(val)
		if err != nil {
			return fmt.Errorf("invalid list for %s: %w", key, err)
		}
		c.Grid.ColsampleByTree = v
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, p := range strings.Split(s, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, p := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
