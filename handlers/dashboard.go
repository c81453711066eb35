// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/aadhaar-intel/cliparse"
	"github.com/danielhkuo/aadhaar-intel/db"
	"github.com/danielhkuo/aadhaar-intel/geo"
	"github.com/danielhkuo/aadhaar-intel/metrics"
	"github.com/danielhkuo/aadhaar-intel/middleware"
	"github.com/danielhkuo/aadhaar-intel/models"
	"github.com/danielhkuo/aadhaar-intel/table"
)

// Reload outcomes
const (
	reloadOK     = "ok"
	reloadFailed = "failed"
)

// MissingTableMessage is returned while no master table has been merged.
const MissingTableMessage = "Master table not found. Run `aadhaar-intel merge` first."

type DashboardHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	tables  *table.Cache
	geo     *geo.Loader
	metrics *metrics.Dashboard

	// mu serializes store rebuilds
	mu         sync.Mutex
	version    string
	geoVersion time.Time
	geoLoaded  bool
}

func NewDashboardHandler(db *sql.DB, cfg cliparse.Config, tables *table.Cache, geoLoader *geo.Loader, m *metrics.Dashboard) *DashboardHandler {
	return &DashboardHandler{
		db:      db,
		cfg:     cfg,
		tables:  tables,
		geo:     geoLoader,
		metrics: m,
	}
}

// Instrument counts requests to view by response status.
func (h *DashboardHandler) Instrument(view string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		h.metrics.IncrementView(view, rec.status)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ensureFresh loads the master table into the store when the file on disk
// differs from what the store holds.
func (h *DashboardHandler) ensureFresh(ctx context.Context) (*table.Snapshot, error) {
	snap, err := h.tables.Load(h.cfg.MasterPath)
	if err != nil {
		h.metrics.IncrementReload(reloadFailed)
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if snap.Version() == h.version {
		return snap, nil
	}

	if err := db.ReplaceMasterRecords(ctx, h.db, h.cfg.DatabaseType, snap.Records); err != nil {
		h.metrics.IncrementReload(reloadFailed)
		return nil, err
	}
	h.version = snap.Version()
	h.metrics.IncrementReload(reloadOK)
	h.metrics.SetTableRecords(len(snap.Records))

	slog.Info("master table loaded",
		"path", snap.Path,
		"records", len(snap.Records),
		"mod_time", snap.ModTime,
	)
	return snap, nil
}

// ensureGeo loads the coordinate reference into the store when a new one
// arrives. The returned lookup may be unavailable.
func (h *DashboardHandler) ensureGeo(ctx context.Context) (geo.Lookup, error) {
	lookup := h.geo.Load(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.metrics.SetGeoAvailable(lookup.Available())
	if !lookup.Available() {
		return lookup, nil
	}
	if h.geoLoaded && lookup.LoadedAt.Equal(h.geoVersion) {
		return lookup, nil
	}

	if err := db.ReplaceGeoReference(ctx, h.db, h.cfg.DatabaseType, lookup); err != nil {
		return lookup, err
	}
	h.geoVersion = lookup.LoadedAt
	h.geoLoaded = true
	return lookup, nil
}

// prepare refreshes the store for a view request. On failure it writes the
// error response and returns false.
func (h *DashboardHandler) prepare(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.ensureFresh(r.Context())
	if err == nil {
		return true
	}

	if errors.Is(err, table.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, MissingTableMessage)
		return false
	}
	if errors.Is(err, table.ErrMalformed) {
		slog.Error("master table unreadable", "path", h.cfg.MasterPath, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Master table is malformed")
		return false
	}

	slog.Error("failed to load master table", "path", h.cfg.MasterPath, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	return false
}

// stateFilter returns the selected state, or "" for all states.
func stateFilter(r *http.Request) string {
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if state == models.StateAll {
		return ""
	}
	return state
}

// stateLabel is the state echoed back in responses.
func stateLabel(state string) string {
	if state == "" {
		return models.StateAll
	}
	return state
}

func (h *DashboardHandler) observe(view string, start time.Time) {
	h.metrics.ObserveQuery(view, time.Since(start))
}

// Reload handles POST /api/reload
// Drops cached table and reference state, then loads the table again.
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.tables.Invalidate(h.cfg.MasterPath)
	h.geo.Invalidate()

	h.mu.Lock()
	h.version = ""
	h.geoLoaded = false
	h.mu.Unlock()

	snap, err := h.ensureFresh(r.Context())
	if errors.Is(err, table.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, MissingTableMessage)
		return
	}
	if err != nil {
		slog.Error("reload failed", "path", h.cfg.MasterPath, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reload master table")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReloadResponse{
		Records:  len(snap.Records),
		ModTime:  snap.ModTime,
		LoadedAt: snap.LoadedAt,
	})
}
