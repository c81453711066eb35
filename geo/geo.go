// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package geo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/aadhaar-intel/models"
)

// SourceOff disables the reference entirely.
const SourceOff = "off"

const cacheKey = "reference"

// Point is one pincode's coordinates.
type Point struct {
	Pincode     models.Pincode
	Lat         float64
	Lon         float64
	GeoDistrict string
}

// Lookup is the optional result of loading the reference. When the
// reference could not be loaded, Available is false and Reason says why.
type Lookup struct {
	points   map[models.Pincode]Point
	reason   string
	LoadedAt time.Time
}

// Unavailable builds an empty Lookup carrying reason.
func Unavailable(reason string) Lookup {
	return Lookup{reason: reason}
}

// NewLookup wraps loaded points.
func NewLookup(points map[models.Pincode]Point) Lookup {
	return Lookup{points: points, LoadedAt: time.Now()}
}

func (l Lookup) Available() bool {
	return l.points != nil
}

func (l Lookup) Reason() string {
	return l.reason
}

func (l Lookup) Len() int {
	return len(l.points)
}

func (l Lookup) Get(p models.Pincode) (Point, bool) {
	pt, ok := l.points[p]
	return pt, ok
}

// Points returns every point ordered by pincode.
func (l Lookup) Points() []Point {
	out := make([]Point, 0, len(l.points))
	for _, p := range l.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pincode < out[j].Pincode })
	return out
}

// DefaultRetryAfter is how long a failed load is remembered.
const DefaultRetryAfter = time.Minute

// Loader fetches the pincode reference from a URL or local file and keeps
// successful loads for ttl.
type Loader struct {
	// RetryAfter is how long an unavailable result is reused before the
	// next fetch. Zero retries on every call.
	RetryAfter time.Duration

	source  string
	timeout time.Duration
	ttl     time.Duration
	client  *http.Client
	cache   *cache.Cache
	group   singleflight.Group
}

func NewLoader(source string, timeout, ttl time.Duration) *Loader {
	return &Loader{
		RetryAfter: DefaultRetryAfter,
		source:     source,
		timeout:    timeout,
		ttl:        ttl,
		client:     &http.Client{},
		cache:      cache.New(ttl, 2*ttl),
	}
}

// Load returns the reference. It never fails: any error is reported as an
// unavailable Lookup, remembered for RetryAfter. Concurrent calls on a cold
// cache share one fetch.
func (l *Loader) Load(ctx context.Context) Lookup {
	if v, ok := l.cache.Get(cacheKey); ok {
		return v.(Lookup)
	}

	if l.source == "" || l.source == SourceOff {
		return Unavailable("geocoordinate reference disabled")
	}

	v, _, _ := l.group.Do(cacheKey, func() (any, error) {
		// A caller that queued behind the previous fetch finds it cached
		if v, ok := l.cache.Get(cacheKey); ok {
			return v, nil
		}
		return l.load(ctx), nil
	})
	return v.(Lookup)
}

func (l *Loader) load(ctx context.Context) Lookup {
	points, err := l.fetch(ctx)
	if err != nil {
		slog.Warn("geocoordinate reference unavailable", "source", l.source, "error", err)
		lookup := Unavailable(fmt.Sprintf("geocoordinate reference unavailable: %v", err))
		if l.RetryAfter > 0 {
			l.cache.Set(cacheKey, lookup, l.RetryAfter)
		}
		return lookup
	}

	lookup := NewLookup(points)
	l.cache.Set(cacheKey, lookup, l.ttl)
	slog.Info("geocoordinate reference loaded", "source", l.source, "pincodes", lookup.Len())
	return lookup
}

// Invalidate forces the next Load to refetch.
func (l *Loader) Invalidate() {
	l.cache.Delete(cacheKey)
}

func (l *Loader) fetch(ctx context.Context) (map[models.Pincode]Point, error) {
	if !strings.HasPrefix(l.source, "http://") && !strings.HasPrefix(l.source, "https://") {
		f, err := os.Open(l.source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return Parse(f)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return Parse(resp.Body)
}

// Parse reads a pincode reference CSV with pincode, latitude, longitude and
// district columns (any case). Rows without usable coordinates are skipped;
// repeated pincodes keep their first coordinate.
func Parse(r io.Reader) (map[models.Pincode]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := map[string]int{"pincode": -1, "latitude": -1, "longitude": -1, "district": -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if j, ok := cols[name]; ok && j == -1 {
			cols[name] = i
		}
	}
	for name, i := range cols {
		if i == -1 {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	points := make(map[models.Pincode]Point)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		cell := func(name string) string {
			if i := cols[name]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		pin := models.NormalizePincode(cell("pincode"))
		if pin == "" {
			continue
		}
		if _, seen := points[pin]; seen {
			continue
		}
		lat, errLat := strconv.ParseFloat(cell("latitude"), 64)
		lon, errLon := strconv.ParseFloat(cell("longitude"), 64)
		if errLat != nil || errLon != nil || !finite(lat) || !finite(lon) {
			continue
		}

		points[pin] = Point{Pincode: pin, Lat: lat, Lon: lon, GeoDistrict: cell("district")}
	}

	if len(points) == 0 {
		return nil, errors.New("no usable coordinates")
	}
	return points, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
