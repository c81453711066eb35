// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the aadhaar-intel command.

aadhaar-intel merges the published Aadhaar enrolment, biometric update and
demographic update extracts into one master table, scores every row for
anomalous adult biometric update activity, and serves the result to a
dashboard.

# Commands

Merge the extracts in a directory:

	aadhaar-intel merge -dir ./data -o master_data.csv

Serve the dashboard API over the persisted table:

	aadhaar-intel serve -p 3318 -m master_data.csv

serve is the default when no command is given.

# Configuration

Every setting can come from a flag, an environment variable, a .env file in
the working directory, or a YAML file passed with -c (CONFIG_FILE). Flags
win over the environment, which wins over the file. See package cliparse.

# Suspicion Score

	suspicion_score = bio_update_adult / (enrol_18_plus + 1)

The +1 keeps the score finite for pincodes with no adult enrolments, so a
"ghost" center with 100 updates and no enrolments scores 100.
*/
package main
