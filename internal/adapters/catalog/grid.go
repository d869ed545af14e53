package catalog

import (
	"math"
	"sort"

	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/internal/domain/skycoord"
)

const (
	defaultBandDeg = 2.0
	degToRad       = math.Pi / 180
)

// GridIndex buckets catalog entries into declination bands subdivided
// into right-ascension cells, so a radius query touches only the cells
// the search cap can overlap. Entries are immutable after construction;
// concurrent readers need no locking.
type GridIndex struct {
	entries []model.GalaxyEntry
	bandDeg float64
	bands   []band
}

// band is one declination stripe with its RA buckets.
type band struct {
	buckets [][]int // entry positions, per RA cell
	width   float64 // RA degrees per cell
	cosMin  float64 // smallest cos(dec) inside the stripe
}

// Option applies a configuration option to the GridIndex.
type Option func(*GridIndex)

// WithBandSize sets the declination band height in degrees. Bands
// should not be smaller than the typical query radius.
func WithBandSize(deg float64) Option {
	return func(g *GridIndex) {
		if deg > 0 {
			g.bandDeg = deg
		}
	}
}

// NewFromEntries builds a GridIndex over the given entries. Slice order
// is preserved as catalog order. Entries with non-finite coordinates
// cannot be bucketed and are dropped.
func NewFromEntries(entries []model.GalaxyEntry, opts ...Option) *GridIndex {
	kept := make([]model.GalaxyEntry, 0, len(entries))
	for _, e := range entries {
		if finiteCoords(e.RA, e.Dec) {
			kept = append(kept, e)
		}
	}

	g := &GridIndex{
		entries: kept,
		bandDeg: defaultBandDeg,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.build()
	return g
}

func (g *GridIndex) build() {
	nBands := int(math.Ceil(180 / g.bandDeg))
	g.bands = make([]band, nBands)

	for i := range g.bands {
		lo := -90 + float64(i)*g.bandDeg
		hi := math.Min(lo+g.bandDeg, 90)

		// Widest circle of the stripe sets the bucket count; narrowest
		// sets how far a query radius stretches in RA.
		cosLo := math.Cos(lo * degToRad)
		cosHi := math.Cos(hi * degToRad)
		cosMax := math.Max(cosLo, cosHi)
		cosMin := math.Min(cosLo, cosHi)
		if lo < 0 && hi > 0 {
			cosMax = 1 // stripe spans the equator
		}

		n := int(360 * cosMax / g.bandDeg)
		if n < 1 {
			n = 1
		}
		g.bands[i] = band{
			buckets: make([][]int, n),
			width:   360 / float64(n),
			cosMin:  cosMin,
		}
	}

	for pos, e := range g.entries {
		bi := g.bandIndex(e.Dec)
		b := &g.bands[bi]
		ci := b.cell(e.RA)
		b.buckets[ci] = append(b.buckets[ci], pos)
	}
}

func (g *GridIndex) bandIndex(dec float64) int {
	i := int((dec + 90) / g.bandDeg)
	if i < 0 {
		i = 0
	}
	if i >= len(g.bands) {
		i = len(g.bands) - 1
	}
	return i
}

func (b *band) cell(ra float64) int {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	i := int(ra / b.width)
	if i >= len(b.buckets) {
		i = len(b.buckets) - 1
	}
	return i
}

// Within returns every entry within radiusDeg of (ra, dec), in catalog
// order.
func (g *GridIndex) Within(ra, dec, radiusDeg float64) []model.GalaxyEntry {
	if radiusDeg <= 0 || len(g.entries) == 0 {
		return nil
	}

	loBand := g.bandIndex(dec - radiusDeg)
	hiBand := g.bandIndex(dec + radiusDeg)

	var positions []int
	for bi := loBand; bi <= hiBand; bi++ {
		b := &g.bands[bi]

		// Near the poles the RA delta is unbounded; scan the stripe.
		all := b.cosMin < 1e-6 || radiusDeg >= 90
		var deltaDeg float64
		if !all {
			// Exact cap half-width at the stripe's most extreme
			// declination. radius/cos(dec) undershoots near the
			// poles and can skip the cell holding a true match.
			x := math.Sin(radiusDeg*degToRad) / b.cosMin
			if x >= 1 {
				all = true
			} else {
				deltaDeg = math.Asin(x) / degToRad
			}
		}

		if all {
			for _, bucket := range b.buckets {
				positions = append(positions, bucket...)
			}
			continue
		}

		lo := b.cell(ra - deltaDeg)
		hi := b.cell(ra + deltaDeg)
		n := len(b.buckets)
		if span := int(2*deltaDeg/b.width) + 2; span >= n {
			lo, hi = 0, n-1
		}
		for ci := lo; ; ci = (ci + 1) % n {
			positions = append(positions, b.buckets[ci]...)
			if ci == hi {
				break
			}
		}
	}

	sort.Ints(positions)

	limit := radiusDeg * degToRad
	out := make([]model.GalaxyEntry, 0, len(positions))
	for _, pos := range positions {
		e := g.entries[pos]
		if skycoord.Separation(ra, dec, e.RA, e.Dec) <= limit {
			out = append(out, e)
		}
	}
	return out
}

// Size returns the number of indexed entries.
func (g *GridIndex) Size() int { return len(g.entries) }

// Entries returns the indexed entries in catalog order. Callers must
// not mutate the slice.
func (g *GridIndex) Entries() []model.GalaxyEntry { return g.entries }

func finiteCoords(ra, dec float64) bool {
	return !math.IsNaN(ra) && !math.IsInf(ra, 0) &&
		!math.IsNaN(dec) && !math.IsInf(dec, 0)
}
