// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/aadhaar-intel/models"
	"github.com/danielhkuo/aadhaar-intel/scoring"
)

// Defaults
const (
	DefaultPort               = 3318
	DefaultMasterPath         = "master_data.csv"
	DefaultEnrolmentPattern   = "api_data_aadhar_enrolment*.csv"
	DefaultBiometricPattern   = "api_data_aadhar_biometric*.csv"
	DefaultDemographicPattern = "api_data_aadhar_demographic*.csv"
	DefaultGeoSource          = "https://raw.githubusercontent.com/workforce-data-initiative/India-Pincodes/master/India-Pincodes.csv"
	DefaultGeoTimeout         = 15 * time.Second
	DefaultGeoCacheTTL        = 24 * time.Hour
	DefaultDatabaseType       = "sqlite"
	DefaultSQLiteURL          = ":memory:"
	DefaultTopN               = 10
	DefaultTopDistricts       = 10
	DefaultTopSuspects        = 50
)

// DefaultDateLayouts are the day-month-year layouts accepted in input extracts.
var DefaultDateLayouts = []string{"02-01-2006", "2-1-2006", "02/01/2006", "2/1/2006"}

// MergeConfig configures the merge subcommand.
type MergeConfig struct {
	DataDir            string
	EnrolmentPattern   string
	BiometricPattern   string
	DemographicPattern string
	OutputPath         string
	DateLayouts        []string
	TopN               int
	MetricsFile        string
}

// Pattern returns the glob for a category.
func (c MergeConfig) Pattern(cat models.Category) string {
	switch cat {
	case models.CategoryEnrolment:
		return c.EnrolmentPattern
	case models.CategoryBiometric:
		return c.BiometricPattern
	case models.CategoryDemographic:
		return c.DemographicPattern
	}
	return ""
}

// Config configures the serve subcommand.
type Config struct {
	Port         int
	MasterPath   string
	GeoSource    string // URL or local path; "off" disables the map
	GeoTimeout   time.Duration
	GeoCacheTTL  time.Duration
	DatabaseType string // sqlite or postgres
	DatabaseURL  string
	Thresholds   scoring.Thresholds
	TopDistricts int
	TopSuspects  int
}

// ParseMergeFlags builds a MergeConfig from flags, environment, and an
// optional YAML file, in that order of precedence.
func ParseMergeFlags(args []string) (MergeConfig, error) {
	var cfg MergeConfig
	var configPath, layouts string

	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	fs.StringVar(&configPath, "c", "", "YAML config file")
	fs.StringVar(&cfg.DataDir, "dir", "", "Directory holding the input extracts")
	fs.StringVar(&cfg.EnrolmentPattern, "enrolment", "", "Glob for enrolment files")
	fs.StringVar(&cfg.BiometricPattern, "biometric", "", "Glob for biometric update files")
	fs.StringVar(&cfg.DemographicPattern, "demographic", "", "Glob for demographic update files")
	fs.StringVar(&cfg.OutputPath, "o", "", "Master table output path")
	fs.StringVar(&layouts, "date-layouts", "", "Comma-separated Go date layouts")
	fs.IntVar(&cfg.TopN, "top", 0, "Suspicious records to print after merging")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write run metrics to this Prometheus textfile")

	if err := fs.Parse(args); err != nil {
		return MergeConfig{}, err
	}

	file, err := loadFile(pick(configPath, os.Getenv("CONFIG_FILE")))
	if err != nil {
		return MergeConfig{}, err
	}
	fm := file.Merge

	cfg.DataDir = pick(cfg.DataDir, os.Getenv("DATA_DIR"), fm.DataDir, ".")
	cfg.EnrolmentPattern = pick(cfg.EnrolmentPattern, os.Getenv("ENROLMENT_PATTERN"), fm.Patterns.Enrolment, DefaultEnrolmentPattern)
	cfg.BiometricPattern = pick(cfg.BiometricPattern, os.Getenv("BIOMETRIC_PATTERN"), fm.Patterns.Biometric, DefaultBiometricPattern)
	cfg.DemographicPattern = pick(cfg.DemographicPattern, os.Getenv("DEMOGRAPHIC_PATTERN"), fm.Patterns.Demographic, DefaultDemographicPattern)
	cfg.OutputPath = pick(cfg.OutputPath, os.Getenv("OUTPUT_PATH"), fm.Output, DefaultMasterPath)
	cfg.MetricsFile = pick(cfg.MetricsFile, os.Getenv("METRICS_FILE"), fm.MetricsFile, "")

	layouts = pick(layouts, os.Getenv("DATE_LAYOUTS"), strings.Join(fm.DateLayouts, ","), "")
	if layouts != "" {
		cfg.DateLayouts = splitList(layouts)
	} else {
		cfg.DateLayouts = append([]string(nil), DefaultDateLayouts...)
	}

	if cfg.TopN == 0 {
		if cfg.TopN, err = envInt("TOP_N"); err != nil {
			return MergeConfig{}, err
		}
	}
	if cfg.TopN == 0 {
		cfg.TopN = fm.TopN
	}
	if cfg.TopN == 0 {
		cfg.TopN = DefaultTopN
	}

	return cfg, nil
}

// ParseFlags builds the serve Config from flags, environment, and an
// optional YAML file, in that order of precedence.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var configPath string
	var highRisk, mapInclusion float64

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&configPath, "c", "", "YAML config file")
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.MasterPath, "m", "", "Master table path")
	fs.StringVar(&cfg.GeoSource, "geo", "", "Pincode coordinate CSV (URL, path, or \"off\")")
	fs.DurationVar(&cfg.GeoTimeout, "geo-timeout", 0, "Coordinate fetch timeout")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Query store type (sqlite or postgres)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Query store URL")
	fs.Float64Var(&highRisk, "high-risk", 0, "Score above which a record is high risk")
	fs.Float64Var(&mapInclusion, "map-threshold", 0, "Score above which a pincode is mapped in fraud view")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	file, err := loadFile(pick(configPath, os.Getenv("CONFIG_FILE")))
	if err != nil {
		return Config{}, err
	}
	fsv := file.Serve

	if cfg.Port == 0 {
		if cfg.Port, err = envInt("PORT"); err != nil {
			return Config{}, err
		}
	}
	if cfg.Port == 0 {
		cfg.Port = fsv.Port
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	cfg.MasterPath = pick(cfg.MasterPath, os.Getenv("MASTER_PATH"), fsv.MasterPath, DefaultMasterPath)
	cfg.GeoSource = pick(cfg.GeoSource, os.Getenv("GEO_SOURCE"), fsv.GeoSource, DefaultGeoSource)

	if cfg.GeoTimeout == 0 {
		if cfg.GeoTimeout, err = envDuration("GEO_TIMEOUT"); err != nil {
			return Config{}, err
		}
	}
	if cfg.GeoTimeout == 0 {
		cfg.GeoTimeout = fsv.GeoTimeout
	}
	if cfg.GeoTimeout == 0 {
		cfg.GeoTimeout = DefaultGeoTimeout
	}
	cfg.GeoCacheTTL = fsv.GeoCacheTTL
	if cfg.GeoCacheTTL == 0 {
		cfg.GeoCacheTTL = DefaultGeoCacheTTL
	}

	cfg.DatabaseType = pick(cfg.DatabaseType, os.Getenv("DATABASE_TYPE"), fsv.Database.Type, DefaultDatabaseType)
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q (use sqlite or postgres)", cfg.DatabaseType)
	}
	cfg.DatabaseURL = pick(cfg.DatabaseURL, os.Getenv("DATABASE_URL"), fsv.Database.URL, "")
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = DefaultSQLiteURL
	}

	cfg.Thresholds = scoring.DefaultThresholds()
	if fsv.Thresholds.HighRisk != nil {
		cfg.Thresholds.HighRisk = *fsv.Thresholds.HighRisk
	}
	if fsv.Thresholds.MapInclusion != nil {
		cfg.Thresholds.MapInclusion = *fsv.Thresholds.MapInclusion
	}
	if v, ok, err := envFloat("HIGH_RISK_THRESHOLD"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Thresholds.HighRisk = v
	}
	if v, ok, err := envFloat("MAP_THRESHOLD"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.Thresholds.MapInclusion = v
	}
	if set["high-risk"] {
		cfg.Thresholds.HighRisk = highRisk
	}
	if set["map-threshold"] {
		cfg.Thresholds.MapInclusion = mapInclusion
	}

	cfg.TopDistricts = fsv.TopDistricts
	if cfg.TopDistricts == 0 {
		cfg.TopDistricts = DefaultTopDistricts
	}
	cfg.TopSuspects = fsv.TopSuspects
	if cfg.TopSuspects == 0 {
		cfg.TopSuspects = DefaultTopSuspects
	}

	return cfg, nil
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}

func envFloat(key string) (float64, bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s env variable", key)
	}
	return v, true, nil
}

func envDuration(key string) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return d, nil
}
