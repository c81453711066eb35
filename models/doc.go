// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain and response types shared by the merge
job and the dashboard API.

# Domain Types

  - Category: one of the three input families (enrolment, biometric, demographic)
  - Pincode: opaque postal code, never parsed as a number
  - Date: calendar date that keeps its source text; Valid is false for the
    invalid-date marker
  - Key: (date, state, district, pincode) join key
  - MasterRecord: one merged row with all seven counts and its score

# Response Types

  - StatesResponse, KPIResponse, MapResponse, TopDistrictsResponse,
    TrendResponse, SuspectsResponse, ReloadResponse
  - ErrorResponse: error, message

# Columns

MasterColumns is the persisted header, in order:

	date,state,district,pincode,
	enrol_0_5,enrol_5_17,enrol_18_plus,
	bio_update_child,bio_update_adult,
	demo_update_child,demo_update_adult,
	suspicion_score
*/
package models
