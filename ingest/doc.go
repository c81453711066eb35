// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ingest merges the three input CSV families into the master table.
//
// Files of each category are read concurrently; the categories are then
// full-outer-joined on (date, state, district, pincode) with missing counts
// zero-filled. A missing category or a file that cannot be parsed fails the
// run before anything is written.
package ingest
