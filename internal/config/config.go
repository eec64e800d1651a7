package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/supermart-cli/internal/model"
)

// Global configuration structure.
type Global struct {
	// Paths are relative to the pipeline root unless absolute.
	InputFile    string `mapstructure:"input_file" yaml:"input_file"`
	ShopFile     string `mapstructure:"shop_file" yaml:"shop_file"`
	ModelsDir    string `mapstructure:"models_dir" yaml:"models_dir"`
	ProcessedDir string `mapstructure:"processed_dir" yaml:"processed_dir"`

	// Training
	Seed     int64   `mapstructure:"seed" yaml:"seed"`
	TestSize float64 `mapstructure:"test_size" yaml:"test_size"`
	CVFolds  int     `mapstructure:"cv_folds" yaml:"cv_folds"`
	Workers  int     `mapstructure:"workers" yaml:"workers"`
	Grid     Grid    `mapstructure:"grid" yaml:"grid"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Grid lists the boosted-tree hyperparameter values searched during training.
type Grid struct {
	NEstimators     []int     `mapstructure:"n_estimators" yaml:"n_estimators"`
	MaxDepth        []int     `mapstructure:"max_depth" yaml:"max_depth"`
	LearningRate    []float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	Subsample       []float64 `mapstructure:"subsample" yaml:"subsample"`
	ColsampleByTree []float64 `mapstructure:"colsample_bytree" yaml:"colsample_bytree"`
}

// Model converts the configured grid to the trainer's search space.
func (g Grid) Model() model.Grid {
	return model.Grid{
		NEstimators:     g.NEstimators,
		MaxDepth:        g.MaxDepth,
		LearningRate:    g.LearningRate,
		Subsample:       g.Subsample,
		ColsampleByTree: g.ColsampleByTree,
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.supermart/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SUPERMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Pipeline layout
	v.SetDefault("input_file", filepath.Join("data", "new_orders.csv"))
	v.SetDefault("shop_file", "shop.csv")
	v.SetDefault("models_dir", "models")
	v.SetDefault("processed_dir", filepath.Join("data", "processed"))
	// Training defaults
	v.SetDefault("seed", 42)
	v.SetDefault("test_size", 0.2)
	v.SetDefault("cv_folds", 3)
	v.SetDefault("workers", 0)
	v.SetDefault("grid.n_estimators", []int{100, 200})
	v.SetDefault("grid.max_depth", []int{3, 5, 7})
	v.SetDefault("grid.learning_rate", []float64{0.05, 0.1, 0.2})
	v.SetDefault("grid.subsample", []float64{0.8, 1})
	v.SetDefault("grid.colsample_bytree", []float64{0.8, 1})
	// Logging
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

// Validate rejects settings the trainer cannot run with.
func (c *Global) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input_file cannot be empty")
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0,1), got %g", c.TestSize)
	}
	if c.CVFolds < 2 {
		return fmt.Errorf("cv_folds must be at least 2, got %d", c.CVFolds)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if err := c.Grid.Model().Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q", c.LogFormat)
	}
	return nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".supermart"), nil
}
