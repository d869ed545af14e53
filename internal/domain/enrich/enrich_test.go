package enrich_test

import (
	"math"
	"testing"

	"github.com/astrolab/knwatch/internal/domain/enrich"
	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/internal/domain/photometry"
	. "github.com/smartystreets/goconvey/convey"
)

func baseBatch() *model.Batch {
	return &model.Batch{
		ObjectID:    []string{"ZTF21abcdefg"},
		RealBogus:   []float64{0.9},
		ClassStar:   []float64{0.6},
		JD:          []float64{101.4},
		JDStartHist: []float64{100.0},
		NDetHist:    []float64{3},
		CDSXMatch:   []string{"Unknown"},
		Fid:         []int{model.BandG},
		MagPSF:      []float64{18.5},
		SigmaPSF:    []float64{0.1},
		MagNR:       []float64{19.0},
		SigmaNR:     []float64{0.05},
		MagZPSci:    []float64{0},
		IsDiffPos:   []string{"t"},
		RA:          []float64{197.45},
		Dec:         []float64{-23.384},
	}
}

func TestEnrichWithoutHistory(t *testing.T) {
	Convey("Given an accepted alert without photometric history", t, func() {
		b := baseBatch()
		match := &model.MatchResult{
			Galaxy: model.GalaxyEntry{
				Index: 101, Name: "NGC4993",
				RA: 197.45, Dec: -23.384,
				LumDist: 40, DistErr: 2, AngDist: 38.5, StellarMass: 10.65,
			},
			AbsMag:     -16,
			Separation: 1e-4,
		}

		c := enrich.New().Enrich(b, 0, match, "early_kn")

		Convey("Then identity and position carry over untouched", func() {
			So(c.ObjectID, ShouldEqual, "ZTF21abcdefg")
			So(c.RuleSet, ShouldEqual, "early_kn")
			So(c.RA, ShouldEqual, 197.45)
			So(c.RAFormatted, ShouldNotBeEmpty)
			So(c.DecFormatted, ShouldStartWith, "-")
		})

		Convey("And the galactic latitude is derived", func() {
			So(math.IsNaN(c.GalacticLat), ShouldBeFalse)
			So(math.Abs(c.GalacticLat), ShouldBeLessThan, 90)
		})

		Convey("And the elapsed time comes from the candidate columns", func() {
			So(c.DaysSinceFirst, ShouldAlmostEqual, 1.4, 1e-9)
			So(math.IsNaN(c.DaysSinceLast), ShouldBeTrue)
			So(math.IsNaN(c.Rate), ShouldBeTrue)
		})

		Convey("And the apparent magnitude matches the DC correction", func() {
			want, _ := photometry.DCMag(photometry.Measurement{
				Fid: model.BandG, MagPSF: 18.5, SigmaPSF: 0.1,
				MagNR: 19.0, SigmaNR: 0.05, IsDiffPos: "t",
			})
			So(c.ApparentMag, ShouldAlmostEqual, want, 1e-12)
		})

		Convey("And the host summary is attached", func() {
			So(c.Host, ShouldNotBeNil)
			So(c.Host.Name, ShouldEqual, "NGC4993")
			So(c.AbsMag, ShouldEqual, -16.0)
			So(c.SeparationKpc, ShouldAlmostEqual, 1e-4*38.5*1000, 1e-9)
		})

		Convey("And the batch is not mutated", func() {
			So(b.MagPSF[0], ShouldEqual, 18.5)
			So(b.ObjectID[0], ShouldEqual, "ZTF21abcdefg")
		})
	})

	Convey("Given a rule set without cross-match", t, func() {
		c := enrich.New().Enrich(baseBatch(), 0, nil, "early_sn")

		Convey("Then the host fields stay empty", func() {
			So(c.Host, ShouldBeNil)
			So(math.IsNaN(c.AbsMag), ShouldBeTrue)
			So(math.IsNaN(c.SeparationKpc), ShouldBeTrue)
		})
	})
}

func TestEnrichWithHistory(t *testing.T) {
	Convey("Given an alert with a masked photometric history", t, func() {
		b := baseBatch()
		b.History = []model.History{{
			JD:        []float64{100.0, 100.5, 101.0, 101.4},
			Fid:       []int{model.BandG, model.BandG, model.BandR, model.BandG},
			MagPSF:    []float64{19.0, math.NaN(), 18.8, 18.5},
			SigmaPSF:  []float64{0.1, 0.1, 0.1, 0.1},
			MagNR:     []float64{19.0, 19.0, 19.0, 19.0},
			SigmaNR:   []float64{0.05, 0.05, 0.05, 0.05},
			MagZPSci:  []float64{0, 0, 0, 0},
			IsDiffPos: []string{"t", "t", "t", "t"},
		}}

		c := enrich.New().Enrich(b, 0, nil, "kn")

		Convey("Then the observation epoch is the last valid history epoch", func() {
			So(c.JD, ShouldEqual, 101.4)
			So(c.Band, ShouldEqual, model.BandG)
		})

		Convey("And time since last detection skips the masked epoch", func() {
			// Previous valid epoch is 101.0, not the NaN one at 100.5.
			So(c.DaysSinceLast, ShouldAlmostEqual, 0.4, 1e-9)
		})

		Convey("And the rate uses the two most recent same-band epochs", func() {
			lastMag, _ := photometry.DCMag(photometry.Measurement{
				Fid: model.BandG, MagPSF: 18.5, SigmaPSF: 0.1,
				MagNR: 19.0, SigmaNR: 0.05, IsDiffPos: "t",
			})
			prevMag, _ := photometry.DCMag(photometry.Measurement{
				Fid: model.BandG, MagPSF: 19.0, SigmaPSF: 0.1,
				MagNR: 19.0, SigmaNR: 0.05, IsDiffPos: "t",
			})
			So(c.Rate, ShouldAlmostEqual, (lastMag-prevMag)/1.4, 1e-9)
			So(c.Rate, ShouldBeLessThan, 0) // brightening
		})
	})

	Convey("Given a history where every epoch is masked", t, func() {
		b := baseBatch()
		b.History = []model.History{{
			JD:     []float64{100, 101},
			Fid:    []int{1, 1},
			MagPSF: []float64{math.NaN(), math.NaN()},
		}}

		c := enrich.New().Enrich(b, 0, nil, "kn")

		Convey("Then the photometry is NaN rather than a panic", func() {
			So(math.IsNaN(c.ApparentMag), ShouldBeTrue)
			So(math.IsNaN(c.Rate), ShouldBeTrue)
		})
	})
}
