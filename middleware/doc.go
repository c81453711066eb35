// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("GET /api/kpis", middleware.WithLogging(handler))

Logs one line per request with method, path, query, client IP, status and
duration_ms. 5xx responses log at error level.

# CORS

	server := http.Server{Handler: middleware.CORS(mux)}

Reflects the request origin and answers preflight requests with 204.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusServiceUnavailable, "message")
*/
package middleware
