// Package crossmatch tests whether a cataloged galaxy plausibly hosts a
// candidate transient, by sky proximity and absolute brightness.
package crossmatch

import (
	"context"
	"math"

	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/internal/domain/photometry"
	"github.com/astrolab/knwatch/internal/domain/skycoord"
)

// Cross-match acceptance constants.
const (
	// defaultCoarseRadiusDeg is the generous first-pass search radius;
	// the tight test below does the real work.
	defaultCoarseRadiusDeg = 2.0

	// tightRadiusScale divided by the host's angular-diameter distance
	// (Mpc) gives the acceptance radius in radians.
	tightRadiusScale = 0.01

	// Kilonova plausibility window in absolute magnitude.
	absMagMin = -17.0
	absMagMax = -15.0
)

// Catalog is the read-only galaxy index the matcher queries.
type Catalog interface {
	Within(ra, dec, radiusDeg float64) []model.GalaxyEntry
}

// Strategy picks the host among the accepted matches. The slice is in
// catalog order and never empty.
type Strategy func(accepted []model.MatchResult) model.MatchResult

// SelectFirst keeps the first accepted entry in catalog order. This is
// the historical behavior; it is not necessarily the nearest host.
func SelectFirst(accepted []model.MatchResult) model.MatchResult {
	return accepted[0]
}

// SelectNearest keeps the accepted entry with the smallest angular
// separation.
func SelectNearest(accepted []model.MatchResult) model.MatchResult {
	best := accepted[0]
	for _, m := range accepted[1:] {
		if m.Separation < best.Separation {
			best = m
		}
	}
	return best
}

// Matcher runs the coarse-then-tight host search.
type Matcher struct {
	catalog   Catalog
	coarseDeg float64
	selection Strategy
}

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithCoarseRadius overrides the first-pass search radius in degrees.
func WithCoarseRadius(deg float64) Option {
	return func(m *Matcher) {
		if deg > 0 {
			m.coarseDeg = deg
		}
	}
}

// WithSelection overrides the host-selection strategy.
func WithSelection(s Strategy) Option {
	return func(m *Matcher) {
		if s != nil {
			m.selection = s
		}
	}
}

// New creates a Matcher over the given catalog.
func New(catalog Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		catalog:   catalog,
		coarseDeg: defaultCoarseRadiusDeg,
		selection: SelectFirst,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Match searches for a host galaxy for an alert at (ra, dec) degrees
// with the given DC apparent magnitude. It returns the selected host
// and true, or the zero result and false when no catalog entry passes
// the acceptance test.
func (m *Matcher) Match(ctx context.Context, apparentMag, ra, dec float64) (model.MatchResult, bool) {
	if math.IsNaN(apparentMag) {
		return model.MatchResult{}, false
	}

	var accepted []model.MatchResult
	for _, entry := range m.catalog.Within(ra, dec, m.coarseDeg) {
		select {
		case <-ctx.Done():
			return model.MatchResult{}, false
		default:
		}

		if entry.AngDist <= 0 {
			continue
		}

		sep := skycoord.Separation(ra, dec, entry.RA, entry.Dec)
		if sep >= tightRadiusScale/entry.AngDist {
			continue
		}

		absMag := photometry.AbsoluteMag(apparentMag, entry.LumDist)
		if !(absMag > absMagMin && absMag < absMagMax) {
			continue
		}

		accepted = append(accepted, model.MatchResult{
			Galaxy:     entry,
			AbsMag:     absMag,
			Separation: sep,
		})
	}

	if len(accepted) == 0 {
		return model.MatchResult{}, false
	}
	return m.selection(accepted), true
}
