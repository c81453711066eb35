// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/aadhaar-intel/db"
	"github.com/danielhkuo/aadhaar-intel/middleware"
	"github.com/danielhkuo/aadhaar-intel/models"
)

// Map titles
const (
	fraudMapTitle     = "High-Risk Centers (Updates exceeding Enrolments)"
	enrolmentMapTitle = "Biometric Update Volume Centers"
)

// GeoUnavailableMessage replaces the map when no coordinates could be loaded.
const GeoUnavailableMessage = "Map coordinates unavailable. Showing charts only."

// GetMap handles GET /api/map?mode=fraud|enrolment&state=
// Aggregates per pincode and joins with the coordinate reference. Fraud mode
// keeps pincodes whose max score exceeds the map threshold.
func (h *DashboardHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	mode := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = models.ViewFraud
	}
	if mode != models.ViewFraud && mode != models.ViewEnrolment {
		middleware.ErrorResponse(w, http.StatusBadRequest, "mode must be fraud or enrolment")
		return
	}

	if !h.prepare(w, r) {
		return
	}

	lookup, err := h.ensureGeo(r.Context())
	if err != nil {
		slog.Error("failed to load geo reference into store", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !lookup.Available() {
		middleware.JSONResponse(w, http.StatusOK, models.MapResponse{
			Available: false,
			Message:   GeoUnavailableMessage,
			Mode:      mode,
			Points:    []models.MapPoint{},
		})
		return
	}

	defer h.observe("map", time.Now())

	state := stateFilter(r)
	query := `
		SELECT m.pincode, MIN(m.state), MIN(m.district), g.geo_district, g.lat, g.lon,
		       MAX(m.suspicion_score) AS max_score, SUM(m.bio_update_adult) AS bio_adult
		FROM master_record m
		JOIN geo_reference g ON g.pincode = m.pincode
		WHERE (? = '' OR m.state = ?)
		GROUP BY m.pincode, g.geo_district, g.lat, g.lon
	`
	args := []any{state, state}

	resp := models.MapResponse{Available: true, Mode: mode}
	if mode == models.ViewFraud {
		minScore := h.cfg.Thresholds.MapInclusion
		query += ` HAVING MAX(m.suspicion_score) > ? ORDER BY max_score DESC, m.pincode`
		args = append(args, minScore)
		resp.Title = fraudMapTitle
		resp.MinScore = &minScore
	} else {
		query += ` ORDER BY bio_adult DESC, m.pincode`
		resp.Title = enrolmentMapTitle
	}

	rows, err := h.db.QueryContext(r.Context(), db.Rebind(h.cfg.DatabaseType, query), args...)
	if err != nil {
		slog.Error("failed to query map", "mode", mode, "state", state, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	points := []models.MapPoint{}
	for rows.Next() {
		var p models.MapPoint
		if err := rows.Scan(
			&p.Pincode, &p.State, &p.District, &p.GeoDistrict, &p.Lat, &p.Lon,
			&p.MaxScore, &p.BioUpdateAdult,
		); err != nil {
			slog.Error("failed to scan map point", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate map points", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp.Points = points
	middleware.JSONResponse(w, http.StatusOK, resp)
}
