// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package table reads and writes the persisted master table and caches
// loads by file modification time and size.
package table
