package testalerts

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/astrolab/knwatch/internal/domain/model"
)

// Planting constants. Positives land on a catalog galaxy with an
// apparent magnitude that implies a kilonova-plausible absolute
// magnitude at the host distance.
const (
	plantedAbsMag    = -16.0
	plantedMagJitter = 0.3
	plantedOffsetDeg = 1e-4
	referenceBaseJD  = 2459000.5
	fakeRefMag       = 30.0 // faint enough that the DC correction is a no-op
)

// Generate builds a synthetic batch of n alerts. Roughly positiveRate
// of them are planted on entries of the galaxy catalog so that the
// early kilonova chain accepts them; the rest are scattered rejects.
// The returned index list marks the planted alerts.
func Generate(rng *rand.Rand, n int, positiveRate float64, galaxies []model.GalaxyEntry) (*model.Batch, []int) {
	b := &model.Batch{
		ObjectID:    make([]string, n),
		RealBogus:   make([]float64, n),
		ClassStar:   make([]float64, n),
		JD:          make([]float64, n),
		JDStartHist: make([]float64, n),
		NDetHist:    make([]float64, n),
		CDSXMatch:   make([]string, n),
		Fid:         make([]int, n),
		MagPSF:      make([]float64, n),
		SigmaPSF:    make([]float64, n),
		MagNR:       make([]float64, n),
		SigmaNR:     make([]float64, n),
		MagZPSci:    make([]float64, n),
		IsDiffPos:   make([]string, n),
		RA:          make([]float64, n),
		Dec:         make([]float64, n),
	}

	var planted []int
	for i := 0; i < n; i++ {
		b.ObjectID[i] = "sim" + uuid.New().String()[:13]
		b.JDStartHist[i] = referenceBaseJD + rng.Float64()*30
		b.NDetHist[i] = 1
		b.SigmaPSF[i] = 0.05 + rng.Float64()*0.1
		b.MagNR[i] = fakeRefMag
		b.SigmaNR[i] = 0.1
		b.IsDiffPos[i] = "t"
		b.Fid[i] = model.BandG + rng.Intn(2)

		if len(galaxies) > 0 && rng.Float64() < positiveRate {
			plantPositive(rng, b, i, galaxies[rng.Intn(len(galaxies))])
			planted = append(planted, i)
			continue
		}
		plantNegative(rng, b, i)
	}
	return b, planted
}

// plantPositive writes a fresh, well-scored alert sitting on top of a
// catalog galaxy.
func plantPositive(rng *rand.Rand, b *model.Batch, i int, g model.GalaxyEntry) {
	b.RealBogus[i] = 0.8 + rng.Float64()*0.2
	b.ClassStar[i] = 0.6 + rng.Float64()*0.4
	b.JD[i] = b.JDStartHist[i] + 0.05 + rng.Float64()*0.15
	b.CDSXMatch[i] = "Unknown"
	b.RA[i] = wrapRA(g.RA + symmetric(rng)*plantedOffsetDeg)
	b.Dec[i] = g.Dec + symmetric(rng)*plantedOffsetDeg
	b.MagPSF[i] = plantedAbsMag + 25 + 5*math.Log10(g.LumDist) +
		symmetric(rng)*plantedMagJitter
}

// plantNegative writes an alert that fails at least one predicate.
func plantNegative(rng *rand.Rand, b *model.Batch, i int) {
	b.RA[i] = rng.Float64() * 360
	b.Dec[i] = symmetric(rng) * 90
	b.MagPSF[i] = 17 + rng.Float64()*4
	b.JD[i] = b.JDStartHist[i] + 0.1

	switch rng.Intn(3) {
	case 0: // bogus detection
		b.RealBogus[i] = rng.Float64() * 0.5
		b.ClassStar[i] = 0.7
		b.CDSXMatch[i] = "Unknown"
	case 1: // star-like counterpart
		b.RealBogus[i] = 0.9
		b.ClassStar[i] = 0.7
		b.CDSXMatch[i] = "Star"
	default: // stale detection
		b.RealBogus[i] = 0.9
		b.ClassStar[i] = 0.7
		b.CDSXMatch[i] = "Unknown"
		b.JD[i] = b.JDStartHist[i] + 1 + rng.Float64()*10
	}
}

// symmetric returns a uniform draw in [-1, 1).
func symmetric(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

func wrapRA(ra float64) float64 {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	return ra
}
