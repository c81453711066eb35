// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/aadhaar-intel/models"
)

func rec(date, state string, pin models.Pincode) models.MasterRecord {
	return models.MasterRecord{
		Date:     models.ParseDate(date, models.ISODateLayout),
		State:    state,
		District: "D",
		Pincode:  pin,
	}
}

func tableOf(records ...models.MasterRecord) *Table {
	t := NewTable()
	for _, r := range records {
		t.Add(r)
	}
	return t
}

func TestTable_AddSumsDuplicates(t *testing.T) {
	a := rec("2024-01-01", "KA", "560001")
	a.Enrol18Plus = 2
	b := a
	b.Enrol18Plus = 3

	tbl := NewTable()
	assert.False(t, tbl.Add(a))
	assert.True(t, tbl.Add(b))
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, int64(5), tbl.Records()[0].Enrol18Plus)
}

func TestFullOuterJoin(t *testing.T) {
	e := rec("2024-01-01", "KA", "560001")
	e.Enrol18Plus = 10
	eOnly := rec("2024-01-01", "DL", "110001")
	eOnly.Enrol18Plus = 1

	b := rec("2024-01-01", "KA", "560001")
	b.BioUpdateAdult = 55
	bOnly := rec("2024-01-02", "MH", "400001")
	bOnly.BioUpdateAdult = 100

	left := tableOf(e, eOnly)
	right := tableOf(b, bOnly)

	joined, matched := FullOuterJoin(left, right)
	assert.Equal(t, 1, matched)
	require.Equal(t, 3, joined.Len())

	records := joined.Records()
	assert.Equal(t, models.Pincode("110001"), records[0].Pincode, "ordered by key")
	assert.Equal(t, models.Pincode("560001"), records[1].Pincode)
	assert.Equal(t, models.Pincode("400001"), records[2].Pincode)

	assert.Equal(t, int64(10), records[1].Enrol18Plus)
	assert.Equal(t, int64(55), records[1].BioUpdateAdult)
	assert.Zero(t, records[0].BioUpdateAdult)
	assert.Zero(t, records[2].Enrol18Plus)

	// Inputs untouched
	assert.Equal(t, 2, left.Len())
	assert.Zero(t, left.Records()[1].BioUpdateAdult)
}

func TestFullOuterJoin_Associative(t *testing.T) {
	e := rec("2024-01-01", "KA", "560001")
	e.Enrol0to5 = 1
	b := rec("2024-01-01", "KA", "560001")
	b.BioUpdateChild = 2
	b2 := rec("2024-01-03", "KA", "560002")
	b2.BioUpdateAdult = 7
	d := rec("2024-01-02", "KA", "560001")
	d.DemoUpdateAdult = 3

	enrol, bio, demo := tableOf(e), tableOf(b, b2), tableOf(d)

	eb, _ := FullOuterJoin(enrol, bio)
	left, _ := FullOuterJoin(eb, demo)

	bd, _ := FullOuterJoin(bio, demo)
	right, _ := FullOuterJoin(enrol, bd)

	assert.Equal(t, left.Records(), right.Records())
}

func TestFullOuterJoin_Empty(t *testing.T) {
	one := tableOf(rec("2024-01-01", "KA", "560001"))

	joined, matched := FullOuterJoin(NewTable(), one)
	assert.Zero(t, matched)
	assert.Equal(t, 1, joined.Len())

	joined, _ = FullOuterJoin(one, NewTable())
	assert.Equal(t, 1, joined.Len())
}
