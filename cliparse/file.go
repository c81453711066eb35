// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML config file.
type fileConfig struct {
	Merge struct {
		DataDir  string `yaml:"data_dir"`
		Output   string `yaml:"output"`
		Patterns struct {
			Enrolment   string `yaml:"enrolment"`
			Biometric   string `yaml:"biometric"`
			Demographic string `yaml:"demographic"`
		} `yaml:"patterns"`
		DateLayouts []string `yaml:"date_layouts"`
		TopN        int      `yaml:"top_n"`
		MetricsFile string   `yaml:"metrics_file"`
	} `yaml:"merge"`

	Serve struct {
		Port        int           `yaml:"port"`
		MasterPath  string        `yaml:"master_path"`
		GeoSource   string        `yaml:"geo_source"`
		GeoTimeout  time.Duration `yaml:"geo_timeout"`
		GeoCacheTTL time.Duration `yaml:"geo_cache_ttl"`
		Database    struct {
			Type string `yaml:"type"`
			URL  string `yaml:"url"`
		} `yaml:"database"`
		// Pointers so an explicit 0 overrides the default
		Thresholds struct {
			HighRisk     *float64 `yaml:"high_risk"`
			MapInclusion *float64 `yaml:"map_inclusion"`
		} `yaml:"thresholds"`
		TopDistricts int `yaml:"top_districts"`
		TopSuspects  int `yaml:"top_suspects"`
	} `yaml:"serve"`
}

// loadFile reads the YAML config. An empty path yields an empty config.
func loadFile(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
