// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/aadhaar-intel/db"
	"github.com/danielhkuo/aadhaar-intel/middleware"
	"github.com/danielhkuo/aadhaar-intel/models"
)

// MaxSuspects caps the limit query parameter.
const MaxSuspects = 1000

// GetSuspects handles GET /api/suspects?limit=&state=
// Returns the highest scoring records, the investigation list.
func (h *DashboardHandler) GetSuspects(w http.ResponseWriter, r *http.Request) {
	limit := h.cfg.TopSuspects
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxSuspects {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(MaxSuspects))
			return
		}
		limit = n
	}

	if !h.prepare(w, r) {
		return
	}
	defer h.observe("suspects", time.Now())

	state := stateFilter(r)
	rows, err := h.db.QueryContext(r.Context(), db.Rebind(h.cfg.DatabaseType, `
		SELECT date, date_valid, state, district, pincode,
		       bio_update_adult, enrol_18_plus, suspicion_score
		FROM master_record
		WHERE (? = '' OR state = ?)
		ORDER BY suspicion_score DESC, date, state, district, pincode
		LIMIT ?
	`), state, state, limit)
	if err != nil {
		slog.Error("failed to query suspects", "state", state, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	suspects := []models.Suspect{}
	for rows.Next() {
		var s models.Suspect
		var date string
		var valid int
		if err := rows.Scan(
			&date, &valid, &s.State, &s.District, &s.Pincode,
			&s.BioUpdateAdult, &s.Enrol18Plus, &s.SuspicionScore,
		); err != nil {
			slog.Error("failed to scan suspect", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if valid == 1 {
			s.Date = models.ParseDate(date, models.ISODateLayout)
		} else {
			s.Date = models.Date{Raw: date}
		}
		suspects = append(suspects, s)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate suspects", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SuspectsResponse{
		State:    stateLabel(state),
		Suspects: suspects,
	})
}
