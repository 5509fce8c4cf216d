package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Model struct {
		Type         string `yaml:"type"`
		K            int    `yaml:"k"`
		MaxTreeDepth int    `yaml:"max_tree_depth"`
		Normalize    bool   `yaml:"normalize"`
		CacheSize    int    `yaml:"cache_size"`
	} `yaml:"model"`
	Split struct {
		TestRatio float64 `yaml:"test_ratio"`
		Seed      int64   `yaml:"seed"`
	} `yaml:"split"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Sweep struct {
		Ks     []int  `yaml:"ks"`
		MinK   int    `yaml:"min_k"`
		MaxK   int    `yaml:"max_k"`
		StepK  int    `yaml:"step_k"`
		Metric string `yaml:"metric"`
	} `yaml:"sweep"`
}

// Default returns the configuration used when no file is present.
// A zero seed means "pick one from the clock" at run time.
func Default() *Config {
	var cfg Config
	cfg.Model.Type = "knn"
	cfg.Model.K = 1
	cfg.Model.MaxTreeDepth = 10
	cfg.Model.CacheSize = 4096
	cfg.Split.TestRatio = 0.4
	cfg.Log.Level = "info"
	cfg.Log.MaxSizeMB = 10
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28
	cfg.Sweep.MinK = 1
	cfg.Sweep.MaxK = 15
	cfg.Sweep.StepK = 2
	cfg.Sweep.Metric = "balanced_accuracy"
	return &cfg
}

// Load reads path over the defaults, then applies SHOPINTENT_* environment overrides.
// A missing file is an error only when required is set.
func Load(path string, required bool) (*Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			// An empty file decodes to io.EOF and leaves the defaults alone.
			if err := yaml.NewDecoder(file).Decode(config); err != nil && err != io.EOF {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
			// defaults only
		default:
			return nil, err
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config) error {
	envOverride(&config.Model.Type, "SHOPINTENT_MODEL_TYPE")
	envOverride(&config.Database.Path, "SHOPINTENT_DB_PATH")
	envOverride(&config.Log.Level, "SHOPINTENT_LOG_LEVEL")
	envOverride(&config.Log.File, "SHOPINTENT_LOG_FILE")
	if err := envOverrideInt(&config.Model.K, "SHOPINTENT_K"); err != nil {
		return err
	}
	if err := envOverrideFloat(&config.Split.TestRatio, "SHOPINTENT_TEST_RATIO"); err != nil {
		return err
	}
	if v := os.Getenv("SHOPINTENT_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SHOPINTENT_SEED: %w", err)
		}
		config.Split.Seed = seed
	}
	if v := os.Getenv("SHOPINTENT_NORMALIZE"); v != "" {
		normalize, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHOPINTENT_NORMALIZE: %w", err)
		}
		config.Model.Normalize = normalize
	}
	return nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) error {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

func envOverrideFloat(dst *float64, key string) error {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = f
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Model.Type {
	case "knn", "decision_tree":
	default:
		return fmt.Errorf("model.type must be one of: knn, decision_tree")
	}
	if c.Model.K < 1 {
		return fmt.Errorf("model.k must be at least 1")
	}
	if c.Split.TestRatio <= 0 || c.Split.TestRatio >= 1 {
		return fmt.Errorf("split.test_ratio must be between 0 and 1 (exclusive)")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	validMetrics := map[string]bool{"balanced_accuracy": true, "accuracy": true, "sensitivity": true, "specificity": true}
	if !validMetrics[c.Sweep.Metric] {
		return fmt.Errorf("sweep.metric must be one of: balanced_accuracy, accuracy, sensitivity, specificity")
	}
	for _, k := range c.Sweep.Ks {
		if k < 1 {
			return fmt.Errorf("sweep.ks values must be at least 1")
		}
	}
	if len(c.Sweep.Ks) == 0 && (c.Sweep.MinK < 1 || c.Sweep.MaxK < c.Sweep.MinK || c.Sweep.StepK < 1) {
		return fmt.Errorf("sweep range requires 1 <= min_k <= max_k and step_k >= 1")
	}
	return nil
}

// SweepKs expands the sweep settings into the list of k values to try.
func (c *Config) SweepKs() []int {
	if len(c.Sweep.Ks) > 0 {
		return append([]int(nil), c.Sweep.Ks...)
	}
	var ks []int
	for k := c.Sweep.MinK; k <= c.Sweep.MaxK; k += c.Sweep.StepK {
		ks = append(ks, k)
	}
	return ks
}
