package crossmatch_test

import (
	"context"
	"math"
	"testing"

	"github.com/astrolab/knwatch/internal/domain/crossmatch"
	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/internal/domain/skycoord"
	. "github.com/smartystreets/goconvey/convey"
)

// stubCatalog serves a fixed entry list with brute-force filtering.
type stubCatalog struct {
	entries []model.GalaxyEntry
}

func (s *stubCatalog) Within(ra, dec, radiusDeg float64) []model.GalaxyEntry {
	limit := radiusDeg * math.Pi / 180
	var out []model.GalaxyEntry
	for _, e := range s.entries {
		if skycoord.Separation(ra, dec, e.RA, e.Dec) <= limit {
			out = append(out, e)
		}
	}
	return out
}

// apparentFor returns the DC apparent magnitude that yields the wanted
// absolute magnitude at the given luminosity distance.
func apparentFor(absMag, lumDistMpc float64) float64 {
	return absMag + 25 + 5*math.Log10(lumDistMpc)
}

func TestMatch(t *testing.T) {
	Convey("Given a catalog with one plausible host", t, func() {
		ctx := context.Background()
		host := model.GalaxyEntry{
			Index: 101, Name: "NGC4993",
			RA: 197.45, Dec: -23.384,
			LumDist: 40, DistErr: 2, AngDist: 38.5, StellarMass: 10.65,
		}
		matcher := crossmatch.New(&stubCatalog{entries: []model.GalaxyEntry{host}})

		Convey("When the candidate sits on the host at a kilonova brightness", func() {
			result, ok := matcher.Match(ctx, apparentFor(-16, 40), host.RA, host.Dec)

			Convey("Then the host is accepted", func() {
				So(ok, ShouldBeTrue)
				So(result.Galaxy.Index, ShouldEqual, 101)
				So(result.AbsMag, ShouldAlmostEqual, -16, 1e-9)
				So(result.Separation, ShouldBeLessThan, 0.01/host.AngDist)
			})
		})

		Convey("When the candidate is too bright for the window", func() {
			_, ok := matcher.Match(ctx, apparentFor(-18, 40), host.RA, host.Dec)
			So(ok, ShouldBeFalse)
		})

		Convey("When the candidate is too faint for the window", func() {
			_, ok := matcher.Match(ctx, apparentFor(-14, 40), host.RA, host.Dec)
			So(ok, ShouldBeFalse)
		})

		Convey("When the absolute magnitude sits exactly on a bound", func() {
			_, ok := matcher.Match(ctx, apparentFor(-17, 40), host.RA, host.Dec)
			So(ok, ShouldBeFalse) // strict inequality
		})

		Convey("When the candidate is offset beyond the tight radius", func() {
			// 0.1 deg is ~1.7e-3 rad, well over 0.01/38.5.
			_, ok := matcher.Match(ctx, apparentFor(-16, 40), host.RA+0.1, host.Dec)
			So(ok, ShouldBeFalse)
		})

		Convey("When no catalog entry lies within the coarse radius", func() {
			_, ok := matcher.Match(ctx, apparentFor(-16, 40), 10, 60)
			So(ok, ShouldBeFalse)
		})

		Convey("When the apparent magnitude is NaN", func() {
			_, ok := matcher.Match(ctx, math.NaN(), host.RA, host.Dec)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an entry with a non-positive angular-diameter distance", t, func() {
		broken := model.GalaxyEntry{Index: 7, RA: 10, Dec: 10, LumDist: 40}
		matcher := crossmatch.New(&stubCatalog{entries: []model.GalaxyEntry{broken}})

		Convey("Then the entry never matches", func() {
			_, ok := matcher.Match(context.Background(), apparentFor(-16, 40), 10, 10)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSelectionStrategies(t *testing.T) {
	Convey("Given two accepted hosts at different separations", t, func() {
		ctx := context.Background()
		far := model.GalaxyEntry{
			Index: 1, Name: "far-but-first",
			RA: 197.458, Dec: -23.384, LumDist: 40, AngDist: 38.5,
		}
		near := model.GalaxyEntry{
			Index: 2, Name: "near-but-second",
			RA: 197.452, Dec: -23.384, LumDist: 40, AngDist: 38.5,
		}
		cat := &stubCatalog{entries: []model.GalaxyEntry{far, near}}
		alertRA, alertDec := 197.45, -23.384
		apparent := apparentFor(-16, 40)

		Convey("Then the default keeps catalog order", func() {
			result, ok := crossmatch.New(cat).Match(ctx, apparent, alertRA, alertDec)
			So(ok, ShouldBeTrue)
			So(result.Galaxy.Index, ShouldEqual, 1)
		})

		Convey("And SelectNearest keeps the closer host", func() {
			matcher := crossmatch.New(cat, crossmatch.WithSelection(crossmatch.SelectNearest))
			result, ok := matcher.Match(ctx, apparent, alertRA, alertDec)
			So(ok, ShouldBeTrue)
			So(result.Galaxy.Index, ShouldEqual, 2)
		})
	})
}
