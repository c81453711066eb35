// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"sort"

	"github.com/danielhkuo/aadhaar-intel/models"
)

// Default thresholds. These are tuning values, not calibrated cut-offs.
const (
	DefaultHighRisk     = 50.0
	DefaultMapInclusion = 2.0
)

// Thresholds configures how scores are bucketed by the dashboard.
type Thresholds struct {
	HighRisk     float64 `yaml:"high_risk"`
	MapInclusion float64 `yaml:"map_inclusion"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{HighRisk: DefaultHighRisk, MapInclusion: DefaultMapInclusion}
}

// IsHighRisk reports whether score is above the high-risk threshold.
func (t Thresholds) IsHighRisk(score float64) bool {
	return score > t.HighRisk
}

// OnMap reports whether score is high enough to be plotted in the fraud view.
func (t Thresholds) OnMap(score float64) bool {
	return score > t.MapInclusion
}

// Score computes adult biometric updates per adult enrolment.
// The +1 keeps zero-enrolment pincodes finite while ranking them near the top.
// Negative inputs are clamped to zero.
func Score(bioUpdateAdult, enrol18Plus int64) float64 {
	if bioUpdateAdult < 0 {
		bioUpdateAdult = 0
	}
	if enrol18Plus < 0 {
		enrol18Plus = 0
	}
	return float64(bioUpdateAdult) / (float64(enrol18Plus) + 1)
}

// Apply recomputes SuspicionScore on every record in place.
func Apply(records []models.MasterRecord) {
	for i := range records {
		records[i].SuspicionScore = Score(records[i].BioUpdateAdult, records[i].Enrol18Plus)
	}
}

// Top returns up to n records ordered by descending score. Ties keep key order.
// The input slice is not modified.
func Top(records []models.MasterRecord, n int) []models.MasterRecord {
	sorted := make([]models.MasterRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SuspicionScore > sorted[j].SuspicionScore
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
