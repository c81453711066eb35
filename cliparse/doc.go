// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Commands

	cfg, err := cliparse.ParseMergeFlags(args) // merge
	cfg, err := cliparse.ParseFlags(args)      // serve

# Precedence

Each setting is resolved in order:

 1. command-line flag
 2. environment variable (LoadEnvFile loads .env without overriding)
 3. YAML file given by -c or CONFIG_FILE
 4. built-in default

# Merge Flags

	-dir           DATA_DIR             input directory (.)
	-enrolment     ENROLMENT_PATTERN    api_data_aadhar_enrolment*.csv
	-biometric     BIOMETRIC_PATTERN    api_data_aadhar_biometric*.csv
	-demographic   DEMOGRAPHIC_PATTERN  api_data_aadhar_demographic*.csv
	-o             OUTPUT_PATH          master_data.csv
	-date-layouts  DATE_LAYOUTS         02-01-2006,2-1-2006,...
	-top           TOP_N                10
	-metrics-file  METRICS_FILE         Prometheus textfile output

# Serve Flags

	-p              PORT                 3318
	-m              MASTER_PATH          master_data.csv
	-geo            GEO_SOURCE           URL, file path, or "off"
	-geo-timeout    GEO_TIMEOUT          15s
	-t              DATABASE_TYPE        sqlite or postgres
	-d              DATABASE_URL         :memory: for sqlite; required for postgres
	-high-risk      HIGH_RISK_THRESHOLD  50
	-map-threshold  MAP_THRESHOLD        2

# File

	merge:
	  data_dir: ./data
	  patterns:
	    enrolment: "enrol_*.csv"
	serve:
	  thresholds:
	    high_risk: 40
*/
package cliparse
