// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danielhkuo/aadhaar-intel/models"
	"github.com/danielhkuo/aadhaar-intel/scoring"
)

// InvalidDatePrefix marks a persisted invalid date. The prefixed text can
// never parse as ISO, so the marker survives a round trip.
const InvalidDatePrefix = "invalid:"

var (
	ErrNotFound  = errors.New("master table not found")
	ErrMalformed = errors.New("malformed master table")
)

// Write serializes records to path with the canonical header.
// The file is written next to path and renamed into place, so readers see
// either the previous table or the complete new one.
func Write(path string, records []models.MasterRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := Encode(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Encode writes records as CSV to w.
func Encode(w io.Writer, records []models.MasterRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.MasterColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(models.MasterColumns))
	for _, r := range records {
		row[0] = formatDate(r.Date)
		row[1] = r.State
		row[2] = r.District
		row[3] = string(r.Pincode)
		row[4] = strconv.FormatInt(r.Enrol0to5, 10)
		row[5] = strconv.FormatInt(r.Enrol5to17, 10)
		row[6] = strconv.FormatInt(r.Enrol18Plus, 10)
		row[7] = strconv.FormatInt(r.BioUpdateChild, 10)
		row[8] = strconv.FormatInt(r.BioUpdateAdult, 10)
		row[9] = strconv.FormatInt(r.DemoUpdateChild, 10)
		row[10] = strconv.FormatInt(r.DemoUpdateAdult, 10)
		row[11] = strconv.FormatFloat(r.SuspicionScore, 'f', -1, 64)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read loads a persisted master table. The suspicion score is recomputed
// from the count columns; any persisted score is ignored.
func Read(path string) ([]models.MasterRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Decode parses a master table from r and recomputes scores.
func Decode(r io.Reader) ([]models.MasterRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range models.MasterColumns {
		if col == models.ColSuspicionScore {
			continue
		}
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, col)
		}
	}

	var records []models.MasterRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		get := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}
		count := func(col string) (int64, error) {
			n, err := ParseCount(get(col))
			if err != nil {
				return 0, fmt.Errorf("%w: line %d column %s: %v", ErrMalformed, line, col, err)
			}
			return n, nil
		}

		rec := models.MasterRecord{
			Date:     parseDate(get(models.ColDate)),
			State:    strings.TrimSpace(get(models.ColState)),
			District: strings.TrimSpace(get(models.ColDistrict)),
			Pincode:  models.NormalizePincode(get(models.ColPincode)),
		}
		fields := []struct {
			col string
			dst *int64
		}{
			{models.ColEnrol0to5, &rec.Enrol0to5},
			{models.ColEnrol5to17, &rec.Enrol5to17},
			{models.ColEnrol18Plus, &rec.Enrol18Plus},
			{models.ColBioUpdateChild, &rec.BioUpdateChild},
			{models.ColBioUpdateAdult, &rec.BioUpdateAdult},
			{models.ColDemoUpdateChild, &rec.DemoUpdateChild},
			{models.ColDemoUpdateAdult, &rec.DemoUpdateAdult},
		}
		for _, f := range fields {
			if *f.dst, err = count(f.col); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}

	scoring.Apply(records)
	return records, nil
}

func formatDate(d models.Date) string {
	if d.Valid {
		return d.String()
	}
	return InvalidDatePrefix + d.Raw
}

// parseDate reads a persisted date. Unprefixed text that is not ISO, as left
// by a hand edit, is invalid too.
func parseDate(s string) models.Date {
	s = strings.TrimSpace(s)
	if raw, ok := strings.CutPrefix(s, InvalidDatePrefix); ok {
		return models.Date{Raw: raw}
	}
	return models.ParseDate(s, models.ISODateLayout)
}

// ParseCount accepts non-negative integers, including float-formatted
// whole numbers ("12.0"). Empty means zero.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count %q", s)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int64(f)) {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int64(f), nil
}
