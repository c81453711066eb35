// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/aadhaar-intel/models"
)

const referenceCSV = `officename,pincode,District,StateName,Latitude,Longitude
Bengaluru GPO,560001,Bangalore,KARNATAKA,12.9716,77.5946
Another PO,560001,Bangalore,KARNATAKA,13.0,78.0
Connaught Place,110001,New Delhi,DELHI,28.6315,77.2167
No Coords,400001,Mumbai,MAHARASHTRA,NA,NA
Leading Zero,012345,Somewhere,NOWHERE,10.5,70.25
`

func TestParse(t *testing.T) {
	points, err := Parse(strings.NewReader(referenceCSV))
	require.NoError(t, err)

	assert.Len(t, points, 3)

	blr := points["560001"]
	assert.InDelta(t, 12.9716, blr.Lat, 1e-9, "first coordinate wins for repeated pincodes")
	assert.Equal(t, "Bangalore", blr.GeoDistrict)

	_, ok := points["400001"]
	assert.False(t, ok, "rows without coordinates are skipped")

	_, ok = points["012345"]
	assert.True(t, ok, "leading zero pincode kept as string")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("pincode,lat,lon\n560001,1,2\n"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("pincode,latitude,longitude,district\n560001,NA,NA,X\n"))
	assert.Error(t, err)
}

func TestLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pincodes.csv")
	require.NoError(t, os.WriteFile(path, []byte(referenceCSV), 0o644))

	lookup := NewLoader(path, time.Second, time.Hour).Load(context.Background())
	require.True(t, lookup.Available())
	assert.Equal(t, 3, lookup.Len())

	pt, ok := lookup.Get(models.Pincode("110001"))
	require.True(t, ok)
	assert.InDelta(t, 77.2167, pt.Lon, 1e-9)

	points := lookup.Points()
	require.Len(t, points, 3)
	assert.Equal(t, models.Pincode("012345"), points[0].Pincode)
}

func TestLoader_HTTPCachesSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(referenceCSV))
	}))
	defer srv.Close()

	loader := NewLoader(srv.URL, time.Second, time.Hour)
	first := loader.Load(context.Background())
	second := loader.Load(context.Background())

	require.True(t, first.Available())
	require.True(t, second.Available())
	assert.Equal(t, int32(1), hits.Load())

	loader.Invalidate()
	loader.Load(context.Background())
	assert.Equal(t, int32(2), hits.Load())
}

func TestLoader_ConcurrentColdLoadsShareOneFetch(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(referenceCSV))
	}))
	defer srv.Close()

	loader := NewLoader(srv.URL, 5*time.Second, time.Hour)

	const callers = 8
	results := make([]Lookup, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = loader.Load(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for i, lookup := range results {
		assert.True(t, lookup.Available(), "caller %d", i)
	}
}

func TestLoader_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		source string
	}{
		{"disabled", SourceOff},
		{"empty source", ""},
		{"missing file", filepath.Join(t.TempDir(), "missing.csv")},
		{"bad status", srv.URL},
		{"unreachable", "http://127.0.0.1:1/pincodes.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := NewLoader(tt.source, time.Second, time.Hour).Load(context.Background())
			assert.False(t, lookup.Available())
			assert.NotEmpty(t, lookup.Reason())
			assert.Equal(t, 0, lookup.Len())
		})
	}
}

func TestLoader_RetriesAfterFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(referenceCSV))
	}))
	defer srv.Close()

	loader := NewLoader(srv.URL, time.Second, time.Hour)
	assert.False(t, loader.Load(context.Background()).Available())

	fail.Store(false)
	assert.False(t, loader.Load(context.Background()).Available(), "failure is remembered for RetryAfter")

	loader.Invalidate()
	assert.True(t, loader.Load(context.Background()).Available())

	loader.RetryAfter = 0
	loader.Invalidate()
	fail.Store(true)
	assert.True(t, loader.Load(context.Background()).Available(), "success is cached for the TTL")
}
