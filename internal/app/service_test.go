package app

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/astrolab/knwatch/internal/adapters/catalog"
	"github.com/astrolab/knwatch/internal/domain/crossmatch"
	"github.com/astrolab/knwatch/internal/domain/filter"
	"github.com/astrolab/knwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type captureDispatcher struct {
	mu         sync.Mutex
	candidates []*model.Candidate
}

func (d *captureDispatcher) Notify(_ context.Context, c *model.Candidate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.candidates = append(d.candidates, c)
}

func (d *captureDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.candidates)
}

func (d *captureDispatcher) first() *model.Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.candidates) == 0 {
		return nil
	}
	return d.candidates[0]
}

// hostCatalog returns a grid index holding one NGC4993-like galaxy.
func hostCatalog() *catalog.GridIndex {
	return catalog.NewFromEntries([]model.GalaxyEntry{{
		Index: 101, Name: "NGC4993",
		RA: 197.44875, Dec: -23.38389,
		LumDist: 40, DistErr: 2, AngDist: 38.5, StellarMass: 10.65,
	}})
}

// freshAlert builds a one-alert batch passing the early kilonova chain.
// The apparent magnitude lands near absolute -16 at 40 Mpc.
func freshAlert() *model.Batch {
	return &model.Batch{
		ObjectID:    []string{"ZTF21abcdefg"},
		RealBogus:   []float64{0.9},
		ClassStar:   []float64{0.7},
		JD:          []float64{2459000.6},
		JDStartHist: []float64{2459000.5},
		NDetHist:    []float64{1},
		CDSXMatch:   []string{"Unknown"},
		Fid:         []int{model.BandG},
		MagPSF:      []float64{17.01},
		SigmaPSF:    []float64{0.1},
		MagNR:       []float64{30.0},
		SigmaNR:     []float64{0.1},
		MagZPSci:    []float64{0},
		IsDiffPos:   []string{"t"},
		RA:          []float64{197.4488},
		Dec:         []float64{-23.3839},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestProcessEarlyKilonova(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a host catalog and a dispatcher", t, func() {
		d := &captureDispatcher{}
		s := New(
			WithChain(filter.New(filter.EarlyKilonova())),
			WithMatcher(crossmatch.New(hostCatalog())),
			WithRouter(d),
			WithWorkerCount(2),
		)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop(ctx)

		Convey("When a fresh alert near the host arrives", func() {
			verdicts, err := s.Process(ctx, freshAlert())

			Convey("Then it is accepted and a report is dispatched", func() {
				So(err, ShouldBeNil)
				So(verdicts, ShouldResemble, []bool{true})

				waitFor(t, func() bool { return d.count() == 1 })
				c := d.first()
				So(c.ObjectID, ShouldEqual, "ZTF21abcdefg")
				So(c.RuleSet, ShouldEqual, "early_kn")
				So(c.Host, ShouldNotBeNil)
				So(c.Host.Name, ShouldEqual, "NGC4993")
				So(c.AbsMag, ShouldBeBetween, -17, -15)
			})
		})

		Convey("When the alert sits in an empty sky region", func() {
			b := freshAlert()
			b.RA[0] = 10.0
			b.Dec[0] = 45.0
			verdicts, err := s.Process(ctx, b)

			Convey("Then the cross-match overrides the verdict", func() {
				So(err, ShouldBeNil)
				So(verdicts, ShouldResemble, []bool{false})
				So(d.count(), ShouldEqual, 0)
			})
		})

		Convey("When the alert is too old for the early window", func() {
			b := freshAlert()
			b.JD[0] = b.JDStartHist[0] + 0.25
			verdicts, err := s.Process(ctx, b)

			So(err, ShouldBeNil)
			So(verdicts, ShouldResemble, []bool{false})
		})

		Convey("When the alert is a known solar-system object", func() {
			b := freshAlert()
			b.SSOFlag = []string{model.SSOKnown}
			verdicts, err := s.Process(ctx, b)

			So(err, ShouldBeNil)
			So(verdicts, ShouldResemble, []bool{false})
		})
	})
}

func TestProcessScoredKilonova(t *testing.T) {
	ctx := context.Background()

	// scoredAlert builds a one-alert batch passing the classifier-score
	// kilonova chain.
	scoredAlert := func() *model.Batch {
		b := freshAlert()
		b.KnScore = []float64{0.8}
		return b
	}

	Convey("Given a service on the scored kilonova chain with a catalog", t, func() {
		d := &captureDispatcher{}
		s := New(
			WithChain(filter.New(filter.ScoredKilonova())),
			WithMatcher(crossmatch.New(hostCatalog())),
			WithRouter(d),
			WithWorkerCount(1),
		)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop(ctx)

		Convey("When the alert sits near a host galaxy", func() {
			verdicts, err := s.Process(ctx, scoredAlert())

			Convey("Then it is accepted with the host on the report", func() {
				So(err, ShouldBeNil)
				So(verdicts, ShouldResemble, []bool{true})

				waitFor(t, func() bool { return d.count() == 1 })
				c := d.first()
				So(c.RuleSet, ShouldEqual, "kn")
				So(c.Host, ShouldNotBeNil)
				So(c.Host.Name, ShouldEqual, "NGC4993")
			})
		})

		Convey("When the alert sits in an empty sky region", func() {
			b := scoredAlert()
			b.RA[0] = 10.0
			b.Dec[0] = 45.0
			verdicts, err := s.Process(ctx, b)

			Convey("Then the verdict stands and the report has no host", func() {
				So(err, ShouldBeNil)
				So(verdicts, ShouldResemble, []bool{true})

				waitFor(t, func() bool { return d.count() == 1 })
				So(d.first().Host, ShouldBeNil)
			})
		})
	})

	Convey("Given a scored kilonova service without a catalog", t, func() {
		s := New(WithChain(filter.New(filter.ScoredKilonova())))
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop(ctx)

		Convey("Then the verdict does not depend on the catalog", func() {
			verdicts, err := s.Process(ctx, scoredAlert())
			So(err, ShouldBeNil)
			So(verdicts, ShouldResemble, []bool{true})
		})
	})
}

func TestProcessWithoutCrossMatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service on the early supernova chain", t, func() {
		d := &captureDispatcher{}
		s := New(
			WithChain(filter.New(filter.EarlySupernova())),
			WithRouter(d),
			WithWorkerCount(1),
		)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop(ctx)

		Convey("When a scored alert arrives far from any galaxy", func() {
			b := freshAlert()
			b.RFScore = []float64{0.8}
			b.SnnSNIa = []float64{0.9}
			verdicts, err := s.Process(ctx, b)

			Convey("Then it is accepted without a host", func() {
				So(err, ShouldBeNil)
				So(verdicts, ShouldResemble, []bool{true})

				waitFor(t, func() bool { return d.count() == 1 })
				So(d.first().Host, ShouldBeNil)
			})
		})
	})

	Convey("Given a cross-match chain but no catalog", t, func() {
		s := New(WithChain(filter.New(filter.EarlyKilonova())))
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop(ctx)

		Convey("Then every filter-passing alert is still rejected", func() {
			verdicts, err := s.Process(ctx, freshAlert())
			So(err, ShouldBeNil)
			So(verdicts, ShouldResemble, []bool{false})
		})
	})
}

func TestProcessBatchHandling(t *testing.T) {
	ctx := context.Background()

	Convey("Given a classification-only service", t, func() {
		s := New(
			WithChain(filter.New(filter.EarlyKilonova())),
			WithMatcher(crossmatch.New(hostCatalog())),
		)
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop(ctx)

		Convey("When a misaligned batch arrives", func() {
			b := freshAlert()
			b.RA = append(b.RA, 10.0)
			verdicts, err := s.Process(ctx, b)

			Convey("Then the whole batch is rejected", func() {
				So(err, ShouldNotBeNil)
				So(verdicts, ShouldBeNil)
			})
		})

		Convey("When a mixed batch arrives", func() {
			good := freshAlert()
			b := &model.Batch{
				ObjectID:    []string{good.ObjectID[0], "ZTF21bogus"},
				RealBogus:   []float64{good.RealBogus[0], 0.1},
				ClassStar:   []float64{good.ClassStar[0], 0.7},
				JD:          []float64{good.JD[0], good.JD[0]},
				JDStartHist: []float64{good.JDStartHist[0], good.JDStartHist[0]},
				NDetHist:    []float64{1, 1},
				CDSXMatch:   []string{"Unknown", "Unknown"},
				Fid:         []int{model.BandG, model.BandG},
				MagPSF:      []float64{good.MagPSF[0], 17.0},
				SigmaPSF:    []float64{0.1, 0.1},
				MagNR:       []float64{30, 30},
				SigmaNR:     []float64{0.1, 0.1},
				MagZPSci:    []float64{0, 0},
				IsDiffPos:   []string{"t", "t"},
				RA:          []float64{good.RA[0], good.RA[0]},
				Dec:         []float64{good.Dec[0], good.Dec[0]},
			}
			verdicts, err := s.Process(ctx, b)

			Convey("Then the vector is aligned with the batch", func() {
				So(err, ShouldBeNil)
				So(len(verdicts), ShouldEqual, 2)
				So(verdicts[0], ShouldBeTrue)
				So(verdicts[1], ShouldBeFalse)
			})
		})

		Convey("When the apparent magnitude is unusable", func() {
			b := freshAlert()
			b.MagPSF[0] = math.NaN()
			verdicts, err := s.Process(ctx, b)

			Convey("Then the cross-match cannot accept it", func() {
				So(err, ShouldBeNil)
				So(verdicts, ShouldResemble, []bool{false})
			})
		})
	})
}
