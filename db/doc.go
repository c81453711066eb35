// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db manages the dashboard's query store.

The store is a disposable copy of the persisted master table, rebuilt
whenever the file changes. SQLite (modernc.org/sqlite, in memory) is the
default; PostgreSQL (lib/pq) can be used for larger tables:

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}
	err = db.ReplaceMasterRecords(ctx, conn, db.TypeSQLite, records)

Queries are written with ? placeholders and passed through Rebind.

# Tables

  - master_record: merged rows keyed by (date, state, district, pincode)
  - geo_reference: pincode coordinates for the map view

Invalid dates are stored as their raw text with date_valid = 0.
*/
package db
