// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"sort"

	"github.com/danielhkuo/aadhaar-intel/models"
)

// Table holds records keyed by (date, state, district, pincode).
// Each key appears once; adding a row for an existing key sums its counts.
type Table struct {
	rows  []models.MasterRecord
	index map[models.Key]int
}

func NewTable() *Table {
	return &Table{index: make(map[models.Key]int)}
}

// Add merges rec into the table and reports whether its key was already present.
func (t *Table) Add(rec models.MasterRecord) bool {
	k := rec.Key()
	if i, ok := t.index[k]; ok {
		t.rows[i].AddCounts(rec)
		return true
	}
	t.index[k] = len(t.rows)
	t.rows = append(t.rows, rec)
	return false
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) clone() *Table {
	out := &Table{
		rows:  make([]models.MasterRecord, len(t.rows)),
		index: make(map[models.Key]int, len(t.index)),
	}
	copy(out.rows, t.rows)
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// Records returns a copy of the rows ordered by key.
func (t *Table) Records() []models.MasterRecord {
	out := make([]models.MasterRecord, len(t.rows))
	copy(out, t.rows)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out
}

// FullOuterJoin joins left and right on the composite key. Keys from either
// side appear once in the result; count columns with no contributing row
// stay zero. Neither input is modified. The second return value is the
// number of keys found on both sides.
func FullOuterJoin(left, right *Table) (*Table, int) {
	out := left.clone()
	matched := 0
	for _, rec := range right.rows {
		if out.Add(rec) {
			matched++
		}
	}
	return out, matched
}
