// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the dashboard API handlers.

DashboardHandler serves every view from the query store. Before each view it
checks the persisted master table; when the file changed on disk the store
is rebuilt in one transaction. A missing table answers 503 with
MissingTableMessage until a merge has run.

Views accept an optional state query parameter. Empty or "All" selects
every state.

	GET  /api/states          GetStates
	GET  /api/kpis            GetKPIs
	GET  /api/map             GetMap (mode=fraud|enrolment)
	GET  /api/districts/top   GetTopDistricts
	GET  /api/trend           GetTrend
	GET  /api/suspects        GetSuspects (limit=1..1000)
	POST /api/reload          Reload

The map needs the geocoordinate reference. Without it GetMap answers 200
with available=false and the other views are unaffected.
*/
package handlers
