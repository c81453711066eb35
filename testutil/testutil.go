// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/aadhaar-intel/cliparse"
	"github.com/danielhkuo/aadhaar-intel/db"
	"github.com/danielhkuo/aadhaar-intel/geo"
	"github.com/danielhkuo/aadhaar-intel/models"
	"github.com/danielhkuo/aadhaar-intel/scoring"
	"github.com/danielhkuo/aadhaar-intel/table"
)

// Input headers as published by the data portal
const (
	EnrolmentHeader   = "date,state,district,pincode,age_0_5,age_5_17,age_18_greater"
	BiometricHeader   = "date,state,district,pincode,bio_age_5_17,bio_age_17_"
	DemographicHeader = "date,state,district,pincode,demo_age_5_17,demo_age_17_"
)

// SetupTestDB opens an in-memory query store with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a serve configuration whose master table lives in a
// fresh temp dir and whose geo reference is disabled
func GetTestConfig(t *testing.T) cliparse.Config {
	t.Helper()

	return cliparse.Config{
		Port:         cliparse.DefaultPort,
		MasterPath:   filepath.Join(t.TempDir(), cliparse.DefaultMasterPath),
		GeoSource:    geo.SourceOff,
		GeoTimeout:   time.Second,
		GeoCacheTTL:  time.Hour,
		DatabaseType: db.TypeSQLite,
		DatabaseURL:  ":memory:",
		Thresholds:   scoring.DefaultThresholds(),
		TopDistricts: cliparse.DefaultTopDistricts,
		TopSuspects:  cliparse.DefaultTopSuspects,
	}
}

// Record builds a master record for an ISO date with its score applied
func Record(date, state, district string, pincode models.Pincode, enrol18Plus, bioAdult int64) models.MasterRecord {
	r := models.MasterRecord{
		Date:           models.ParseDate(date, models.ISODateLayout),
		State:          state,
		District:       district,
		Pincode:        pincode,
		Enrol18Plus:    enrol18Plus,
		BioUpdateAdult: bioAdult,
	}
	r.SuspicionScore = scoring.Score(r.BioUpdateAdult, r.Enrol18Plus)
	return r
}

// SampleRecords is a small master table spanning two states.
// Scores in order: 5, 99, 1, 100, 0.6, 0 (the last row has an invalid date).
func SampleRecords() []models.MasterRecord {
	return []models.MasterRecord{
		Record("2024-01-01", "KA", "Bengaluru", "560001", 10, 55),
		Record("2024-01-02", "KA", "Bengaluru", "560001", 0, 99),
		Record("2024-01-01", "KA", "Mysuru", "570001", 20, 21),
		Record("2024-01-01", "DL", "New Delhi", "110001", 0, 100),
		Record("2024-01-02", "DL", "New Delhi", "011001", 4, 3),
		{Date: models.Date{Raw: "bad-date"}, State: "DL", District: "New Delhi", Pincode: "110002"},
	}
}

// WriteMasterTable persists records at path
func WriteMasterTable(t *testing.T, path string, records []models.MasterRecord) {
	t.Helper()

	if err := table.Write(path, records); err != nil {
		t.Fatalf("Failed to write master table: %v", err)
	}
}

// WriteCSV writes header and rows as a CSV file under dir and returns its path
func WriteCSV(t *testing.T, dir, name, header string, rows ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	content := header + "\n" + strings.Join(rows, "\n")
	if len(rows) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}

	return path
}

// WriteGeoReference writes a coordinate reference CSV and returns its path
func WriteGeoReference(t *testing.T, dir string, points ...geo.Point) string {
	t.Helper()

	rows := make([]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, strings.Join([]string{
			string(p.Pincode),
			strconv.FormatFloat(p.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Lon, 'f', -1, 64),
			p.GeoDistrict,
		}, ","))
	}
	return WriteCSV(t, dir, "pincodes.csv", "pincode,Latitude,Longitude,District", rows...)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
