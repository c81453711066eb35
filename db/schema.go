// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/aadhaar-intel/geo"
	"github.com/danielhkuo/aadhaar-intel/models"
)

// Store types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the query store. In-memory SQLite is pinned to a single
// connection, since every new connection would see an empty database.
func Open(dbType, url string) (*sql.DB, error) {
	conn, err := sql.Open(dbType, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", dbType, err)
	}
	if dbType == TypeSQLite && strings.Contains(url, ":memory:") {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s ping failed: %w", dbType, err)
	}
	return conn, nil
}

// CreateSchema creates all tables needed for the dashboard.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Rebind rewrites ? placeholders as $1, $2, ... for postgres.
// Queries must not contain literal question marks.
func Rebind(dbType, query string) string {
	if dbType != TypePostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// ReplaceMasterRecords swaps the master_record contents for records in one
// transaction.
func ReplaceMasterRecords(ctx context.Context, db *sql.DB, dbType string, records []models.MasterRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM master_record`); err != nil {
		return fmt.Errorf("failed to clear master records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, Rebind(dbType, `
		INSERT INTO master_record (
			date, date_valid, state, district, pincode,
			enrol_0_5, enrol_5_17, enrol_18_plus,
			bio_update_child, bio_update_adult,
			demo_update_child, demo_update_adult,
			suspicion_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		valid := 0
		if r.Date.Valid {
			valid = 1
		}
		_, err := stmt.ExecContext(ctx,
			r.Date.String(), valid, r.State, r.District, string(r.Pincode),
			r.Enrol0to5, r.Enrol5to17, r.Enrol18Plus,
			r.BioUpdateChild, r.BioUpdateAdult,
			r.DemoUpdateChild, r.DemoUpdateAdult,
			r.SuspicionScore,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %v: %w", r.Key(), err)
		}
	}

	return tx.Commit()
}

// ReplaceGeoReference swaps the geo_reference contents. An unavailable
// lookup leaves the table empty.
func ReplaceGeoReference(ctx context.Context, db *sql.DB, dbType string, lookup geo.Lookup) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM geo_reference`); err != nil {
		return fmt.Errorf("failed to clear geo reference: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, Rebind(dbType, `
		INSERT INTO geo_reference (pincode, lat, lon, geo_district)
		VALUES (?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range lookup.Points() {
		if _, err := stmt.ExecContext(ctx, string(p.Pincode), p.Lat, p.Lon, p.GeoDistrict); err != nil {
			return fmt.Errorf("failed to insert pincode %s: %w", p.Pincode, err)
		}
	}

	return tx.Commit()
}

const schema = `
-- Merged per-pincode-per-day records, rebuilt from the persisted master table
CREATE TABLE IF NOT EXISTS master_record (
    date TEXT NOT NULL,
    date_valid INTEGER NOT NULL,
    state TEXT NOT NULL,
    district TEXT NOT NULL,
    pincode TEXT NOT NULL,
    enrol_0_5 BIGINT NOT NULL DEFAULT 0,
    enrol_5_17 BIGINT NOT NULL DEFAULT 0,
    enrol_18_plus BIGINT NOT NULL DEFAULT 0,
    bio_update_child BIGINT NOT NULL DEFAULT 0,
    bio_update_adult BIGINT NOT NULL DEFAULT 0,
    demo_update_child BIGINT NOT NULL DEFAULT 0,
    demo_update_adult BIGINT NOT NULL DEFAULT 0,
    suspicion_score DOUBLE PRECISION NOT NULL DEFAULT 0
);

-- Not unique: a hand-edited table may repeat a key
CREATE INDEX IF NOT EXISTS idx_master_record_key ON master_record(date, state, district, pincode);

CREATE INDEX IF NOT EXISTS idx_master_record_state ON master_record(state);
CREATE INDEX IF NOT EXISTS idx_master_record_pincode ON master_record(pincode);
CREATE INDEX IF NOT EXISTS idx_master_record_score ON master_record(suspicion_score);

-- Pincode coordinates
CREATE TABLE IF NOT EXISTS geo_reference (
    pincode TEXT PRIMARY KEY,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    geo_district TEXT NOT NULL
);
`
