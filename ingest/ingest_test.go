// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/aadhaar-intel/cliparse"
	"github.com/danielhkuo/aadhaar-intel/metrics"
	"github.com/danielhkuo/aadhaar-intel/models"
	"github.com/danielhkuo/aadhaar-intel/table"
	"github.com/danielhkuo/aadhaar-intel/testutil"
)

const (
	enrolFile = "api_data_aadhar_enrolment_0_500000.csv"
	bioFile   = "api_data_aadhar_biometric_0_500000.csv"
	demoFile  = "api_data_aadhar_demographic_0_500000.csv"
)

func mergeConfig(dir string) cliparse.MergeConfig {
	return cliparse.MergeConfig{
		DataDir:            dir,
		EnrolmentPattern:   cliparse.DefaultEnrolmentPattern,
		BiometricPattern:   cliparse.DefaultBiometricPattern,
		DemographicPattern: cliparse.DefaultDemographicPattern,
		OutputPath:         filepath.Join(dir, cliparse.DefaultMasterPath),
		DateLayouts:        cliparse.DefaultDateLayouts,
		TopN:               cliparse.DefaultTopN,
	}
}

// writeInputs writes one file per category with the given data rows.
func writeInputs(t *testing.T, dir string, enrol, bio, demo []string) {
	t.Helper()
	testutil.WriteCSV(t, dir, enrolFile, testutil.EnrolmentHeader, enrol...)
	testutil.WriteCSV(t, dir, bioFile, testutil.BiometricHeader, bio...)
	testutil.WriteCSV(t, dir, demoFile, testutil.DemographicHeader, demo...)
}

func byKey(records []models.MasterRecord) map[models.Pincode]models.MasterRecord {
	out := make(map[models.Pincode]models.MasterRecord, len(records))
	for _, r := range records {
		out[r.Pincode] = r
	}
	return out
}

func TestRun_Scenarios(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir,
		[]string{
			"01-01-2024,KA,Bengaluru,560001,3,4,10",
			"01-01-2024,DL,New Delhi,110001,1,1,1",
		},
		[]string{
			"01-01-2024,KA,Bengaluru,560001,7,55",
			"01-01-2024,MH,Mumbai,400001,0,100",
		},
		[]string{
			"01-01-2024,KA,Bengaluru,560001,2,9",
		},
	)

	cfg := mergeConfig(dir)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	records, err := table.Read(cfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, records, 3, "union of keys across categories")
	assert.Equal(t, 3, report.MergedRows)

	got := byKey(records)

	blr := got["560001"]
	assert.Equal(t, "2024-01-01", blr.Date.String())
	assert.Equal(t, int64(3), blr.Enrol0to5)
	assert.Equal(t, int64(4), blr.Enrol5to17)
	assert.Equal(t, int64(10), blr.Enrol18Plus)
	assert.Equal(t, int64(7), blr.BioUpdateChild)
	assert.Equal(t, int64(55), blr.BioUpdateAdult)
	assert.Equal(t, int64(2), blr.DemoUpdateChild)
	assert.Equal(t, int64(9), blr.DemoUpdateAdult)
	assert.InDelta(t, 5.0, blr.SuspicionScore, 1e-9)

	ghost := got["400001"]
	assert.Zero(t, ghost.Enrol18Plus, "zero-filled enrolment side")
	assert.InDelta(t, 100.0, ghost.SuspicionScore, 1e-9)

	del := got["110001"]
	assert.Zero(t, del.BioUpdateAdult, "zero-filled biometric side")
	assert.Zero(t, del.DemoUpdateAdult, "zero-filled demographic side")
	assert.Zero(t, del.SuspicionScore)

	require.NotEmpty(t, report.Top)
	assert.Equal(t, models.Pincode("400001"), report.Top[0].Pincode)
}

func TestRun_PincodesAreOpaque(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir,
		[]string{
			"01-01-2024,DL,New Delhi,011001,0,0,1",
			"01-01-2024,DL,New Delhi,110001,0,0,1",
			"01-01-2024,DL,New Delhi,110002.0,0,0,1",
		},
		[]string{"01-01-2024,DL,New Delhi,011001,0,4"},
		[]string{"01-01-2024,DL,New Delhi,011001,0,0"},
	)

	cfg := mergeConfig(dir)
	_, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	records, err := table.Read(cfg.OutputPath)
	require.NoError(t, err)
	got := byKey(records)

	require.Contains(t, got, models.Pincode("011001"))
	require.Contains(t, got, models.Pincode("110001"))
	require.Contains(t, got, models.Pincode("110002"), "float artifact stripped")
	assert.Equal(t, int64(4), got["011001"].BioUpdateAdult, "leading zero pincode joins across categories")
}

func TestRun_InvalidDateRetained(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir,
		[]string{"31-02-2024,KA,Bengaluru,560001,0,0,1"},
		[]string{"31-02-2024,KA,Bengaluru,560001,0,8"},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,1"},
	)

	cfg := mergeConfig(dir)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.InvalidDates)
	assert.Equal(t, 1, report.Categories[models.CategoryEnrolment].InvalidDates)

	records, err := table.Read(cfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, records, 2)

	var invalid *models.MasterRecord
	for i := range records {
		if !records[i].Date.Valid {
			invalid = &records[i]
		}
	}
	require.NotNil(t, invalid, "row with unparsable date is kept")
	assert.Equal(t, "31-02-2024", invalid.Date.Raw)
	assert.Equal(t, int64(8), invalid.BioUpdateAdult, "invalid dates still join on their text")
	assert.InDelta(t, 4.0, invalid.SuspicionScore, 1e-9)
}

func TestRun_InvalidDateDoesNotJoinValidDate(t *testing.T) {
	dir := t.TempDir()
	// 2024-01-01 is not a day-month-year date, so it must not meet 01-01-2024
	writeInputs(t, dir,
		[]string{"2024-01-01,KA,Bengaluru,560001,0,0,10"},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,55"},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,1"},
	)

	cfg := mergeConfig(dir)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MergedRows)
	assert.Equal(t, 1, report.InvalidDates)

	records, err := table.Read(cfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, records, 2)

	valid, invalid := records[0], records[1]
	require.True(t, valid.Date.Valid)
	assert.Zero(t, valid.Enrol18Plus)
	assert.Equal(t, int64(55), valid.BioUpdateAdult)

	require.False(t, invalid.Date.Valid, "invalid marker survives the round trip")
	assert.Equal(t, "2024-01-01", invalid.Date.Raw)
	assert.Equal(t, int64(10), invalid.Enrol18Plus)
	assert.Zero(t, invalid.BioUpdateAdult)
}

func TestRun_RowsWithoutKeyAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir,
		[]string{
			"01-01-2024,KA,Bengaluru,560001,0,0,10",
			"01-01-2024,KA,Bengaluru,560002,0,0",
			"01-01-2024,KA,Bengaluru,560003,0,0,1,9",
			"01-01-2024,,Bengaluru,560004,0,0,1",
			"01-01-2024,KA,,560005,0,0,1",
			"01-01-2024,KA,Bengaluru,,0,0,1",
			",KA,Mysuru,570001,0,0,1",
		},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,55"},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,1"},
	)

	cfg := mergeConfig(dir)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	enrol := report.Categories[models.CategoryEnrolment]
	assert.Equal(t, 7, enrol.Rows)
	assert.Equal(t, 5, enrol.Skipped)
	assert.Equal(t, 5, enrol.RowIssues)
	assert.Equal(t, 1, enrol.InvalidDates, "an empty date is an invalid date, not a missing key")

	records, err := table.Read(cfg.OutputPath)
	require.NoError(t, err)
	got := byKey(records)
	require.Len(t, got, 2)
	assert.Contains(t, got, models.Pincode("560001"))
	assert.Contains(t, got, models.Pincode("570001"))
	assert.False(t, got["570001"].Date.Valid)
}

func TestRun_MissingCategory(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, enrolFile, testutil.EnrolmentHeader, "01-01-2024,KA,Bengaluru,560001,0,0,1")
	testutil.WriteCSV(t, dir, bioFile, testutil.BiometricHeader, "01-01-2024,KA,Bengaluru,560001,0,1")

	cfg := mergeConfig(dir)
	reg := prometheus.NewRegistry()
	m := metrics.NewPipeline(reg)

	_, err := Run(context.Background(), cfg, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCategory)
	assert.Contains(t, err.Error(), string(models.CategoryDemographic))

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "nothing persisted")
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Runs.WithLabelValues(metrics.RunFailed)))
}

func TestRun_MalformedFile(t *testing.T) {
	tests := []struct {
		name string
		bio  string
		rows []string
	}{
		{"bare quote", testutil.BiometricHeader, []string{`01-01-2024,K"A,Bengaluru,560001,0,1`}},
		{"missing column", "date,state,district,pincode,bio_age_5_17", []string{"01-01-2024,KA,Bengaluru,560001,0"}},
		{"empty file", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			testutil.WriteCSV(t, dir, enrolFile, testutil.EnrolmentHeader, "01-01-2024,KA,Bengaluru,560001,0,0,1")
			testutil.WriteCSV(t, dir, demoFile, testutil.DemographicHeader, "01-01-2024,KA,Bengaluru,560001,0,1")
			path := filepath.Join(dir, bioFile)
			if tt.bio == "" {
				require.NoError(t, os.WriteFile(path, nil, 0o644))
			} else {
				testutil.WriteCSV(t, dir, bioFile, tt.bio, tt.rows...)
			}

			cfg := mergeConfig(dir)
			_, err := Run(context.Background(), cfg, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedFile)
			assert.Contains(t, err.Error(), bioFile)

			_, statErr := os.Stat(cfg.OutputPath)
			assert.True(t, os.IsNotExist(statErr), "nothing persisted")
		})
	}
}

func TestRun_MalformedFileKeepsPreviousTable(t *testing.T) {
	dir := t.TempDir()
	cfg := mergeConfig(dir)
	testutil.WriteMasterTable(t, cfg.OutputPath, []models.MasterRecord{
		testutil.Record("2024-01-01", "KA", "Bengaluru", "560001", 1, 1),
	})
	before, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)

	writeInputs(t, dir,
		[]string{"01-01-2024,KA,Bengaluru,560001,0,0,1"},
		[]string{`01-01-2024,"KA,Bengaluru,560001,0,1`},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,1"},
	)

	_, err = Run(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrMalformedFile)

	after, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRun_BadCountsBecomeZero(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir,
		[]string{"01-01-2024,KA,Bengaluru,560001,abc,,12.0"},
		[]string{"01-01-2024,KA,Bengaluru,560001,-3,24"},
		[]string{"01-01-2024,KA,Bengaluru,560001,1.5,2"},
	)

	cfg := mergeConfig(dir)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Categories[models.CategoryEnrolment].RowIssues, "empty cells are zero, not issues")
	assert.Equal(t, 1, report.Categories[models.CategoryBiometric].RowIssues)
	assert.Equal(t, 1, report.Categories[models.CategoryDemographic].RowIssues)

	records, err := table.Read(cfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Zero(t, r.Enrol0to5)
	assert.Equal(t, int64(12), r.Enrol18Plus)
	assert.Zero(t, r.BioUpdateChild)
	assert.Equal(t, int64(24), r.BioUpdateAdult)
	assert.Zero(t, r.DemoUpdateChild)
	assert.InDelta(t, 24.0/13.0, r.SuspicionScore, 1e-9)
}

func TestRun_MultipleFilesAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "api_data_aadhar_enrolment_0_500000.csv", testutil.EnrolmentHeader,
		"01-01-2024,KA,Bengaluru,560001,1,1,5",
	)
	testutil.WriteCSV(t, dir, "api_data_aadhar_enrolment_500000_1000000.csv", testutil.EnrolmentHeader,
		"01-01-2024,KA,Bengaluru,560001,1,1,5",
		"02-01-2024,KA,Bengaluru,560001,0,0,2",
	)
	testutil.WriteCSV(t, dir, bioFile, testutil.BiometricHeader, "1-1-2024,KA,Bengaluru,560001,0,33")
	testutil.WriteCSV(t, dir, demoFile, testutil.DemographicHeader, "01/01/2024,KA,Bengaluru,560001,0,1")

	cfg := mergeConfig(dir)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	enrol := report.Categories[models.CategoryEnrolment]
	assert.Len(t, enrol.Files, 2)
	assert.Equal(t, 3, enrol.Rows)
	assert.Equal(t, 2, enrol.Keys)

	records, err := table.Read(cfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, records, 2, "each key appears once")

	first := records[0]
	assert.Equal(t, "2024-01-01", first.Date.String())
	assert.Equal(t, int64(10), first.Enrol18Plus, "duplicate keys are summed")
	assert.Equal(t, int64(33), first.BioUpdateAdult, "date variants join on the calendar date")
	assert.Equal(t, int64(1), first.DemoUpdateAdult)
	assert.InDelta(t, 3.0, first.SuspicionScore, 1e-9)
}

func TestRun_CanonicalHeaders(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir, nil, nil, nil)
	testutil.WriteCSV(t, dir, enrolFile,
		"\ufeffDate,State,District,Pincode,enrol_0_5,enrol_5_17,enrol_18_plus",
		"01-01-2024,KA,Bengaluru,560001,1,2,3",
	)

	cfg := mergeConfig(dir)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.MergedRows)

	records, err := table.Read(cfg.OutputPath)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].Enrol18Plus)
}

func TestRun_Metrics(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir,
		[]string{"01-01-2024,KA,Bengaluru,560001,0,0,1", "02-01-2024,KA,Bengaluru,560001,0,0,1"},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,1"},
		[]string{"bad,KA,Bengaluru,560001,0,1"},
	)

	reg := prometheus.NewRegistry()
	m := metrics.NewPipeline(reg)

	_, err := Run(context.Background(), mergeConfig(dir), m)
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.Runs.WithLabelValues(metrics.RunSucceeded)))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.InputRows.WithLabelValues(string(models.CategoryEnrolment))))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.InputFiles.WithLabelValues(string(models.CategoryDemographic))))
	assert.Equal(t, 3.0, promtest.ToFloat64(m.MergedRows))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.InvalidDates))
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir,
		[]string{"01-01-2024,KA,Bengaluru,560001,0,0,1"},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,1"},
		[]string{"01-01-2024,KA,Bengaluru,560001,0,1"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := mergeConfig(dir)
	_, err := Run(ctx, cfg, nil)
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir, nil, nil, nil)
	testutil.WriteCSV(t, dir, "api_data_aadhar_biometric_500000_1000000.csv", testutil.BiometricHeader)
	testutil.WriteCSV(t, dir, "unrelated.csv", "a,b")

	inputs, err := ResolveInputs(mergeConfig(dir))
	require.NoError(t, err)

	assert.Len(t, inputs[models.CategoryEnrolment], 1)
	assert.Equal(t, []string{
		filepath.Join(dir, "api_data_aadhar_biometric_0_500000.csv"),
		filepath.Join(dir, "api_data_aadhar_biometric_500000_1000000.csv"),
	}, inputs[models.CategoryBiometric])
	assert.Len(t, inputs[models.CategoryDemographic], 1)
}
