// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// View modes
const (
	ViewFraud     = "fraud"
	ViewEnrolment = "enrolment"
)

// StateAll selects every state.
const StateAll = "All"

// Response types

type StatesResponse struct {
	States []string `json:"states"` // "All" first, then sorted state names
}

type KPIResponse struct {
	State             string  `json:"state"`
	Records           int64   `json:"records"`
	BioUpdatesAdult   int64   `json:"bio_updates_adult"`
	EnrolmentsAdult   int64   `json:"enrolments_adult"`
	HighRiskRecords   int64   `json:"high_risk_records"`
	HighRiskThreshold float64 `json:"high_risk_threshold"`

	// Display strings ("1,234,567")
	RecordsDisplay         string `json:"records_display"`
	BioUpdatesAdultDisplay string `json:"bio_updates_adult_display"`
	EnrolmentsAdultDisplay string `json:"enrolments_adult_display"`
}

type MapPoint struct {
	Pincode        Pincode `json:"pincode"`
	State          string  `json:"state"`
	District       string  `json:"district"`
	GeoDistrict    string  `json:"geo_district"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	MaxScore       float64 `json:"suspicion_score"`
	BioUpdateAdult int64   `json:"bio_update_adult"`
}

type MapResponse struct {
	Available bool       `json:"available"`
	Message   string     `json:"message,omitempty"`
	Mode      string     `json:"mode"`
	Title     string     `json:"title,omitempty"`
	MinScore  *float64   `json:"min_score,omitempty"` // fraud view only
	Points    []MapPoint `json:"points"`
}

type DistrictScore struct {
	District string  `json:"district"`
	AvgScore float64 `json:"avg_suspicion_score"`
}

type TopDistrictsResponse struct {
	State     string          `json:"state"`
	Title     string          `json:"title"`
	Districts []DistrictScore `json:"districts"`
}

type TrendPoint struct {
	Date           string `json:"date"`
	BioUpdateAdult int64  `json:"bio_update_adult"`
	Enrol18Plus    int64  `json:"enrol_18_plus"`
}

type TrendResponse struct {
	State  string       `json:"state"`
	Title  string       `json:"title"`
	Points []TrendPoint `json:"points"`
}

type Suspect struct {
	Date           Date    `json:"date"`
	State          string  `json:"state"`
	District       string  `json:"district"`
	Pincode        Pincode `json:"pincode"`
	BioUpdateAdult int64   `json:"bio_update_adult"`
	Enrol18Plus    int64   `json:"enrol_18_plus"`
	SuspicionScore float64 `json:"suspicion_score"`
}

type SuspectsResponse struct {
	State    string    `json:"state"`
	Suspects []Suspect `json:"suspects"`
}

type ReloadResponse struct {
	Records  int       `json:"records"`
	ModTime  time.Time `json:"mod_time"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
