// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/aadhaar-intel/cliparse"
	"github.com/danielhkuo/aadhaar-intel/geo"
	"github.com/danielhkuo/aadhaar-intel/handlers"
	"github.com/danielhkuo/aadhaar-intel/metrics"
	"github.com/danielhkuo/aadhaar-intel/middleware"
	"github.com/danielhkuo/aadhaar-intel/table"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	geoLoader := geo.NewLoader(cfg.GeoSource, cfg.GeoTimeout, cfg.GeoCacheTTL)
	dashboard := handlers.NewDashboardHandler(db, cfg, table.NewCache(), geoLoader, metrics.NewDashboard(reg))

	view := func(name string, h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(dashboard.Instrument(name, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Dashboard views (read-only, optional ?state=)
	mux.HandleFunc("GET /api/states", view("states", dashboard.GetStates))
	mux.HandleFunc("GET /api/kpis", view("kpis", dashboard.GetKPIs))
	mux.HandleFunc("GET /api/map", view("map", dashboard.GetMap))
	mux.HandleFunc("GET /api/districts/top", view("districts", dashboard.GetTopDistricts))
	mux.HandleFunc("GET /api/trend", view("trend", dashboard.GetTrend))
	mux.HandleFunc("GET /api/suspects", view("suspects", dashboard.GetSuspects))

	// Cache control
	mux.HandleFunc("POST /api/reload", view("reload", dashboard.Reload))

	// Metrics
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("aadhaar-intel API v1"))
	})

	return mux
}
