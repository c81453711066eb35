// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scoring computes the biometric-update suspicion score.

	score = bio_update_adult / (enrol_18_plus + 1)

The score is a monotonic heuristic, not a probability. It is a pure function
of two columns, so it is recomputed whenever a master table is loaded rather
than trusted from disk:

	scoring.Apply(records)

# Thresholds

Thresholds bucket scores for the dashboard:

  - HighRisk (default 50): counted in the "high risk" KPI
  - MapInclusion (default 2): plotted in the fraud map view

Both are configurable (see cliparse).
*/
package scoring
