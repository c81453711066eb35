// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/aadhaar-intel/db"
	"github.com/danielhkuo/aadhaar-intel/middleware"
	"github.com/danielhkuo/aadhaar-intel/models"
)

// GetStates handles GET /api/states
// Returns "All" followed by every state in the table, sorted.
func (h *DashboardHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	if !h.prepare(w, r) {
		return
	}
	defer h.observe("states", time.Now())

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT DISTINCT state FROM master_record ORDER BY state
	`)
	if err != nil {
		slog.Error("failed to query states", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	states := []string{models.StateAll}
	for rows.Next() {
		var state string
		if err := rows.Scan(&state); err != nil {
			slog.Error("failed to scan state", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate states", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StatesResponse{States: states})
}

// GetKPIs handles GET /api/kpis?state=
// High-risk counts records, not distinct pincodes.
func (h *DashboardHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	if !h.prepare(w, r) {
		return
	}
	defer h.observe("kpis", time.Now())

	state := stateFilter(r)
	threshold := h.cfg.Thresholds.HighRisk

	var resp models.KPIResponse
	err := h.db.QueryRowContext(r.Context(), db.Rebind(h.cfg.DatabaseType, `
		SELECT COUNT(*),
		       COALESCE(SUM(bio_update_adult), 0),
		       COALESCE(SUM(enrol_18_plus), 0),
		       COALESCE(SUM(CASE WHEN suspicion_score > ? THEN 1 ELSE 0 END), 0)
		FROM master_record
		WHERE (? = '' OR state = ?)
	`), threshold, state, state).Scan(
		&resp.Records, &resp.BioUpdatesAdult, &resp.EnrolmentsAdult, &resp.HighRiskRecords,
	)
	if err != nil {
		slog.Error("failed to compute kpis", "state", state, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp.State = stateLabel(state)
	resp.HighRiskThreshold = threshold
	resp.RecordsDisplay = humanize.Comma(resp.Records)
	resp.BioUpdatesAdultDisplay = humanize.Comma(resp.BioUpdatesAdult)
	resp.EnrolmentsAdultDisplay = humanize.Comma(resp.EnrolmentsAdult)

	middleware.JSONResponse(w, http.StatusOK, resp)
}
