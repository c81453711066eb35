// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"strings"

	"github.com/danielhkuo/aadhaar-intel/models"
)

// countColumn maps a raw extract column onto a canonical master column.
type countColumn struct {
	canonical string
	raw       string
	field     func(r *models.MasterRecord) *int64
}

var keyColumns = []string{models.ColDate, models.ColState, models.ColDistrict, models.ColPincode}

var countColumns = map[models.Category][]countColumn{
	models.CategoryEnrolment: {
		{models.ColEnrol0to5, "age_0_5", func(r *models.MasterRecord) *int64 { return &r.Enrol0to5 }},
		{models.ColEnrol5to17, "age_5_17", func(r *models.MasterRecord) *int64 { return &r.Enrol5to17 }},
		{models.ColEnrol18Plus, "age_18_greater", func(r *models.MasterRecord) *int64 { return &r.Enrol18Plus }},
	},
	models.CategoryBiometric: {
		{models.ColBioUpdateChild, "bio_age_5_17", func(r *models.MasterRecord) *int64 { return &r.BioUpdateChild }},
		{models.ColBioUpdateAdult, "bio_age_17_", func(r *models.MasterRecord) *int64 { return &r.BioUpdateAdult }},
	},
	models.CategoryDemographic: {
		{models.ColDemoUpdateChild, "demo_age_5_17", func(r *models.MasterRecord) *int64 { return &r.DemoUpdateChild }},
		{models.ColDemoUpdateAdult, "demo_age_17_", func(r *models.MasterRecord) *int64 { return &r.DemoUpdateAdult }},
	},
}

// columnIndex locates the key and count columns of a category in a header.
// Count columns may appear under their raw or canonical name.
type columnIndex struct {
	key    map[string]int
	counts []int // parallel to countColumns[category]
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// resolveColumns returns the column positions or the first missing column name.
func resolveColumns(cat models.Category, header []string) (columnIndex, string) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	idx := columnIndex{key: make(map[string]int, len(keyColumns))}
	for _, col := range keyColumns {
		i, ok := pos[col]
		if !ok {
			return columnIndex{}, col
		}
		idx.key[col] = i
	}

	for _, cc := range countColumns[cat] {
		i, ok := pos[cc.raw]
		if !ok {
			i, ok = pos[cc.canonical]
		}
		if !ok {
			return columnIndex{}, cc.raw
		}
		idx.counts = append(idx.counts, i)
	}
	return idx, ""
}
