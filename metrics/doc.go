// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics defines Prometheus metrics for the merge job and the
// dashboard API. Both structs register against a caller-supplied registry
// and tolerate a nil receiver, so tests can pass nil.
//
// The merge job is a one-shot process; main writes its registry to a
// node_exporter textfile when -metrics-file is set. The dashboard exposes
// its registry on GET /metrics.
package metrics
