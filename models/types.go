// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Input categories
type Category string

const (
	CategoryEnrolment   Category = "enrolment"
	CategoryBiometric   Category = "biometric"
	CategoryDemographic Category = "demographic"
)

// Categories lists the input categories in join order.
var Categories = []Category{CategoryEnrolment, CategoryBiometric, CategoryDemographic}

// Canonical master table columns
const (
	ColDate            = "date"
	ColState           = "state"
	ColDistrict        = "district"
	ColPincode         = "pincode"
	ColEnrol0to5       = "enrol_0_5"
	ColEnrol5to17      = "enrol_5_17"
	ColEnrol18Plus     = "enrol_18_plus"
	ColBioUpdateChild  = "bio_update_child"
	ColBioUpdateAdult  = "bio_update_adult"
	ColDemoUpdateChild = "demo_update_child"
	ColDemoUpdateAdult = "demo_update_adult"
	ColSuspicionScore  = "suspicion_score"
)

// ISODateLayout is the persisted date format.
const ISODateLayout = "2006-01-02"

// MasterColumns is the header of the persisted master table, in order.
var MasterColumns = []string{
	ColDate, ColState, ColDistrict, ColPincode,
	ColEnrol0to5, ColEnrol5to17, ColEnrol18Plus,
	ColBioUpdateChild, ColBioUpdateAdult,
	ColDemoUpdateChild, ColDemoUpdateAdult,
	ColSuspicionScore,
}

// Pincode is an opaque postal identifier. It is never parsed as a number.
type Pincode string

// NormalizePincode trims whitespace and strips a float formatting artifact
// ("560001.0" -> "560001"). Anything else is kept verbatim.
func NormalizePincode(raw string) Pincode {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" && isDigits(s[:i]) {
		s = s[:i]
	}
	return Pincode(s)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// Date is a calendar date that remembers its source text.
// Valid is false for the invalid-date marker; Raw keeps what failed to parse.
type Date struct {
	Time  time.Time
	Valid bool
	Raw   string
}

// ParseDate tries each layout in turn. A failure yields the invalid-date
// marker rather than an error.
func ParseDate(raw string, layouts ...string) Date {
	s := strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Valid: true, Raw: s}
		}
	}
	return Date{Raw: s}
}

// String returns the canonical text: ISO for valid dates, the raw text otherwise.
func (d Date) String() string {
	if d.Valid {
		return d.Time.Format(ISODateLayout)
	}
	return d.Raw
}

// MarshalJSON encodes invalid dates as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(ISODateLayout))
}

// Key is the composite join key. DateValid keeps an invalid date whose raw
// text looks like ISO apart from the calendar date it spells.
type Key struct {
	Date      string
	DateValid bool
	State     string
	District  string
	Pincode   Pincode
}

// Less orders keys by date, state, district, pincode. Valid dates sort
// before invalid ones with the same text.
func (k Key) Less(o Key) bool {
	if k.Date != o.Date {
		return k.Date < o.Date
	}
	if k.DateValid != o.DateValid {
		return k.DateValid
	}
	if k.State != o.State {
		return k.State < o.State
	}
	if k.District != o.District {
		return k.District < o.District
	}
	return k.Pincode < o.Pincode
}

// MasterRecord is one row of the merged table.
type MasterRecord struct {
	Date            Date
	State           string
	District        string
	Pincode         Pincode
	Enrol0to5       int64
	Enrol5to17      int64
	Enrol18Plus     int64
	BioUpdateChild  int64
	BioUpdateAdult  int64
	DemoUpdateChild int64
	DemoUpdateAdult int64
	SuspicionScore  float64
}

func (r MasterRecord) Key() Key {
	return Key{
		Date:      r.Date.String(),
		DateValid: r.Date.Valid,
		State:     r.State,
		District:  r.District,
		Pincode:   r.Pincode,
	}
}

// AddCounts adds o's count columns into r. Categories populate disjoint
// columns, so adding is the same as filling the missing side with zero.
func (r *MasterRecord) AddCounts(o MasterRecord) {
	r.Enrol0to5 += o.Enrol0to5
	r.Enrol5to17 += o.Enrol5to17
	r.Enrol18Plus += o.Enrol18Plus
	r.BioUpdateChild += o.BioUpdateChild
	r.BioUpdateAdult += o.BioUpdateAdult
	r.DemoUpdateChild += o.DemoUpdateChild
	r.DemoUpdateAdult += o.DemoUpdateAdult
}
