// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/aadhaar-intel/db"
	"github.com/danielhkuo/aadhaar-intel/middleware"
	"github.com/danielhkuo/aadhaar-intel/models"
)

// GetTopDistricts handles GET /api/districts/top?state=
// Ranks districts by average suspicion score.
func (h *DashboardHandler) GetTopDistricts(w http.ResponseWriter, r *http.Request) {
	if !h.prepare(w, r) {
		return
	}
	defer h.observe("districts", time.Now())

	state := stateFilter(r)
	rows, err := h.db.QueryContext(r.Context(), db.Rebind(h.cfg.DatabaseType, `
		SELECT district, AVG(suspicion_score) AS avg_score
		FROM master_record
		WHERE (? = '' OR state = ?)
		GROUP BY district
		ORDER BY avg_score DESC, district
		LIMIT ?
	`), state, state, h.cfg.TopDistricts)
	if err != nil {
		slog.Error("failed to query top districts", "state", state, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	districts := []models.DistrictScore{}
	for rows.Next() {
		var d models.DistrictScore
		if err := rows.Scan(&d.District, &d.AvgScore); err != nil {
			slog.Error("failed to scan district", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate districts", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TopDistrictsResponse{
		State:     stateLabel(state),
		Title:     "Avg Suspicion Score by District",
		Districts: districts,
	})
}

// GetTrend handles GET /api/trend?state=
// Daily totals over valid dates only.
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	if !h.prepare(w, r) {
		return
	}
	defer h.observe("trend", time.Now())

	state := stateFilter(r)
	rows, err := h.db.QueryContext(r.Context(), db.Rebind(h.cfg.DatabaseType, `
		SELECT date, SUM(bio_update_adult), SUM(enrol_18_plus)
		FROM master_record
		WHERE date_valid = 1 AND (? = '' OR state = ?)
		GROUP BY date
		ORDER BY date
	`), state, state)
	if err != nil {
		slog.Error("failed to query trend", "state", state, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	points := []models.TrendPoint{}
	for rows.Next() {
		var p models.TrendPoint
		if err := rows.Scan(&p.Date, &p.BioUpdateAdult, &p.Enrol18Plus); err != nil {
			slog.Error("failed to scan trend point", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate trend", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TrendResponse{
		State:  stateLabel(state),
		Title:  "Updates vs Enrolments Timeline",
		Points: points,
	})
}
