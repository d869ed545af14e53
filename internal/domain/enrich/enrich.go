// Package enrich derives the display and report quantities for
// final-accepted candidates. Everything here is pure computation over
// the batch and the match result; neither is mutated.
package enrich

import (
	"math"

	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/internal/domain/photometry"
	"github.com/astrolab/knwatch/internal/domain/skycoord"
)

// Enricher builds candidates from accepted alerts.
type Enricher struct{}

// New creates an Enricher.
func New() *Enricher {
	return &Enricher{}
}

// Enrich derives all report quantities for alert i. match is nil for
// rule sets that do not cross-match; the host fields stay NaN then.
func (e *Enricher) Enrich(b *model.Batch, i int, match *model.MatchResult, ruleset string) model.Candidate {
	lastJD := b.LastJD(i)

	c := model.Candidate{
		ObjectID:       b.ObjectID[i],
		RuleSet:        ruleset,
		RA:             b.RA[i],
		Dec:            b.Dec[i],
		RAFormatted:    skycoord.FormatRA(b.RA[i]),
		DecFormatted:   skycoord.FormatDec(b.Dec[i]),
		GalacticLat:    skycoord.GalacticLatitude(b.RA[i], b.Dec[i]),
		JD:             lastJD,
		DaysSinceFirst: lastJD - b.JDStartHist[i],
		DaysSinceLast:  math.NaN(),
		Rate:           math.NaN(),
		KnScore:        model.FloatAt(b.KnScore, i),
		RFScore:        model.FloatAt(b.RFScore, i),
		SnnSNIa:        model.FloatAt(b.SnnSNIa, i),
		SnnSN:          model.FloatAt(b.SnnSN, i),
		AbsMag:         math.NaN(),
		SeparationKpc:  math.NaN(),
		Field:          -1,
	}

	if i < len(b.Field) {
		c.Field = b.Field[i]
	}

	if i < len(b.History) && b.History[i].Len() > 0 {
		e.fromHistory(&c, &b.History[i])
	} else {
		c.Band = b.Fid[i]
		c.ApparentMag, c.MagErr = photometry.DCMag(photometry.Measurement{
			Fid:       b.Fid[i],
			MagPSF:    b.MagPSF[i],
			SigmaPSF:  b.SigmaPSF[i],
			MagNR:     b.MagNR[i],
			SigmaNR:   b.SigmaNR[i],
			MagZPSci:  b.MagZPSci[i],
			IsDiffPos: b.IsDiffPos[i],
		})
	}

	if match != nil {
		host := match.Galaxy
		c.Host = &host
		c.AbsMag = match.AbsMag
		c.SeparationKpc = match.Separation * host.AngDist * 1000
	}

	return c
}

// fromHistory derives the time-since-last-detection, the latest DC
// magnitude and the same-band photometric rate from the alert's own
// history. Epochs with missing photometry are masked out rather than
// propagated.
func (e *Enricher) fromHistory(c *model.Candidate, h *model.History) {
	valid := make([]int, 0, h.Len())
	for j := 0; j < h.Len(); j++ {
		if j < len(h.MagPSF) && !math.IsNaN(h.MagPSF[j]) {
			valid = append(valid, j)
		}
	}
	if len(valid) == 0 {
		c.ApparentMag = math.NaN()
		c.MagErr = math.NaN()
		return
	}

	last := valid[len(valid)-1]
	c.JD = h.JD[last]
	if len(valid) > 1 {
		c.DaysSinceLast = h.JD[last] - h.JD[valid[len(valid)-2]]
	}

	c.Band = fidAt(h, last)

	// Same-band epochs only, most recent last.
	var band []int
	for _, j := range valid {
		if fidAt(h, j) == c.Band {
			band = append(band, j)
		}
	}

	c.ApparentMag, c.MagErr = photometry.DCMag(measurementAt(h, band[len(band)-1]))

	if len(band) > 1 {
		prev := band[len(band)-2]
		prevMag, _ := photometry.DCMag(measurementAt(h, prev))
		dt := h.JD[band[len(band)-1]] - h.JD[prev]
		if dt != 0 {
			c.Rate = (c.ApparentMag - prevMag) / dt
		}
	}
}

func fidAt(h *model.History, j int) int {
	if j >= len(h.Fid) {
		return 0
	}
	return h.Fid[j]
}

func measurementAt(h *model.History, j int) photometry.Measurement {
	m := photometry.Measurement{Fid: fidAt(h, j)}
	if j < len(h.MagPSF) {
		m.MagPSF = h.MagPSF[j]
	}
	if j < len(h.SigmaPSF) {
		m.SigmaPSF = h.SigmaPSF[j]
	}
	if j < len(h.MagNR) {
		m.MagNR = h.MagNR[j]
	}
	if j < len(h.SigmaNR) {
		m.SigmaNR = h.SigmaNR[j]
	}
	if j < len(h.MagZPSci) {
		m.MagZPSci = h.MagZPSci[j]
	}
	if j < len(h.IsDiffPos) {
		m.IsDiffPos = h.IsDiffPos[j]
	}
	return m
}
