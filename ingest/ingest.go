// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/aadhaar-intel/cliparse"
	"github.com/danielhkuo/aadhaar-intel/metrics"
	"github.com/danielhkuo/aadhaar-intel/models"
	"github.com/danielhkuo/aadhaar-intel/scoring"
	"github.com/danielhkuo/aadhaar-intel/table"
)

var (
	ErrMissingCategory = errors.New("missing input category")
	ErrMalformedFile   = errors.New("malformed input file")
)

// Report describes one merge run.
type Report struct {
	RunID        uuid.UUID
	Categories   map[models.Category]CategoryStats
	MergedRows   int
	InvalidDates int
	OutputPath   string
	Duration     time.Duration
	Top          []models.MasterRecord
}

// Run reads the three input categories, joins them into the master table,
// scores it, and persists it to cfg.OutputPath. Nothing is written unless
// every step before the write succeeds.
func Run(ctx context.Context, cfg cliparse.MergeConfig, m *metrics.Pipeline) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:      uuid.New(),
		Categories: make(map[models.Category]CategoryStats, len(models.Categories)),
		OutputPath: cfg.OutputPath,
	}
	log := slog.With("run_id", report.RunID.String())

	records, err := merge(ctx, cfg, m, report, log)
	if err != nil {
		m.IncrementRun(metrics.RunFailed)
		return nil, err
	}

	if err := table.Write(cfg.OutputPath, records); err != nil {
		m.IncrementRun(metrics.RunFailed)
		return nil, fmt.Errorf("failed to persist master table: %w", err)
	}

	report.MergedRows = len(records)
	for _, r := range records {
		if !r.Date.Valid {
			report.InvalidDates++
		}
	}
	report.Top = scoring.Top(records, cfg.TopN)
	report.Duration = time.Since(start)

	m.IncrementRun(metrics.RunSucceeded)
	m.ObserveRunDuration(report.Duration)
	m.SetMerged(report.MergedRows, report.InvalidDates)

	log.Info("master table saved",
		"path", cfg.OutputPath,
		"rows", report.MergedRows,
		"invalid_dates", report.InvalidDates,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// merge produces the scored, key-ordered master records.
func merge(ctx context.Context, cfg cliparse.MergeConfig, m *metrics.Pipeline, report *Report, log *slog.Logger) ([]models.MasterRecord, error) {
	inputs, err := ResolveInputs(cfg)
	if err != nil {
		return nil, err
	}

	tables := make([]*Table, len(models.Categories))
	stats := make([]CategoryStats, len(models.Categories))

	// Categories are independent until the join
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range models.Categories {
		g.Go(func() error {
			t, s, err := readCategory(gctx, cat, inputs[cat], cfg.DateLayouts)
			if err != nil {
				return err
			}
			tables[i], stats[i] = t, s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, cat := range models.Categories {
		report.Categories[cat] = stats[i]
		m.ObserveCategory(string(cat), len(stats[i].Files), stats[i].Rows, stats[i].RowIssues)
		log.Info("category loaded",
			"category", cat,
			"files", len(stats[i].Files),
			"rows", stats[i].Rows,
			"keys", stats[i].Keys,
			"row_issues", stats[i].RowIssues,
			"skipped", stats[i].Skipped,
			"invalid_dates", stats[i].InvalidDates,
		)
	}

	// (enrolment ⋈ biometric) ⋈ demographic
	joined, matched := FullOuterJoin(tables[0], tables[1])
	log.Info("joined", "left", models.Categories[0], "right", models.Categories[1], "matched_keys", matched, "rows", joined.Len())
	joined, matched = FullOuterJoin(joined, tables[2])
	log.Info("joined", "right", models.Categories[2], "matched_keys", matched, "rows", joined.Len())

	records := joined.Records()
	scoring.Apply(records)
	return records, nil
}

// ResolveInputs expands each category's glob under cfg.DataDir. Every
// category is checked before any file is read.
func ResolveInputs(cfg cliparse.MergeConfig) (map[models.Category][]string, error) {
	inputs := make(map[models.Category][]string, len(models.Categories))
	for _, cat := range models.Categories {
		pattern := filepath.Join(cfg.DataDir, cfg.Pattern(cat))
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w %s: bad pattern %q: %v", ErrMissingCategory, cat, pattern, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w %s: no files match %q", ErrMissingCategory, cat, pattern)
		}
		sort.Strings(files)
		inputs[cat] = files
	}
	return inputs, nil
}
