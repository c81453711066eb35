// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the dashboard API.

	mux := router.NewRouter(db, cfg, reg)

Endpoints:

	GET  /health
	GET  /api/states
	GET  /api/kpis?state=
	GET  /api/map?mode=fraud|enrolment&state=
	GET  /api/districts/top?state=
	GET  /api/trend?state=
	GET  /api/suspects?limit=&state=
	POST /api/reload
	GET  /metrics

Dashboard routes are wrapped with request logging and per-view metrics.
/metrics exposes everything registered with reg.
*/
package router
