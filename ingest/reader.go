// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/danielhkuo/aadhaar-intel/models"
	"github.com/danielhkuo/aadhaar-intel/table"
)

// Row issues logged per file before going quiet
const maxLoggedIssues = 5

// CategoryStats summarizes what was read for one category.
type CategoryStats struct {
	Files        []string
	Rows         int // rows read across all files
	Keys         int // distinct keys after concatenation
	RowIssues    int // unparsable count cells plus skipped rows
	Skipped      int // rows with the wrong field count or an empty key field
	InvalidDates int
}

// readCategory concatenates every file of a category into one table.
func readCategory(ctx context.Context, cat models.Category, files []string, layouts []string) (*Table, CategoryStats, error) {
	t := NewTable()
	stats := CategoryStats{Files: files}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		n, err := readFile(path, cat, layouts, t, &stats)
		if err != nil {
			return nil, stats, err
		}
		slog.Debug("read input file", "category", cat, "file", path, "rows", n)
	}

	stats.Keys = t.Len()
	return t, stats, nil
}

// readFile appends the rows of one CSV file to t. Bad dates become the
// invalid-date marker and bad counts become zero. Only rows that have no
// usable key are skipped: a field count that differs from the header, or an
// empty state, district or pincode.
func readFile(path string, cat models.Category, layouts []string, t *Table, stats *CategoryStats) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %v", ErrMalformedFile, path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return 0, fmt.Errorf("%w %s: empty file", ErrMalformedFile, path)
	}
	if err != nil {
		return 0, fmt.Errorf("%w %s: %v", ErrMalformedFile, path, err)
	}

	idx, missing := resolveColumns(cat, header)
	if missing != "" {
		return 0, fmt.Errorf("%w %s: missing column %q", ErrMalformedFile, path, missing)
	}

	cols := countColumns[cat]
	rows := 0
	logged := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("%w %s: %v", ErrMalformedFile, path, err)
		}
		rows++

		skip := func(reason string) {
			stats.RowIssues++
			stats.Skipped++
			if logged < maxLoggedIssues {
				line, _ := cr.FieldPos(0)
				slog.Warn("skipping row", "file", path, "line", line, "reason", reason)
				logged++
			}
		}

		if len(row) != len(header) {
			skip(fmt.Sprintf("%d fields, header has %d", len(row), len(header)))
			continue
		}

		rec := models.MasterRecord{
			Date:     models.ParseDate(row[idx.key[models.ColDate]], layouts...),
			State:    strings.TrimSpace(row[idx.key[models.ColState]]),
			District: strings.TrimSpace(row[idx.key[models.ColDistrict]]),
			Pincode:  models.NormalizePincode(row[idx.key[models.ColPincode]]),
		}
		if rec.State == "" || rec.District == "" || rec.Pincode == "" {
			skip("empty key field")
			continue
		}
		if !rec.Date.Valid {
			stats.InvalidDates++
		}

		for j, cc := range cols {
			n, err := table.ParseCount(row[idx.counts[j]])
			if err != nil {
				stats.RowIssues++
				if logged < maxLoggedIssues {
					line, _ := cr.FieldPos(idx.counts[j])
					slog.Warn("unparsable count, using zero",
						"file", path,
						"line", line,
						"column", cc.canonical,
						"error", err,
					)
					logged++
				}
				n = 0
			}
			*cc.field(&rec) = n
		}

		t.Add(rec)
	}

	stats.Rows += rows
	return rows, nil
}
