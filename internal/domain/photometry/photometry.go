// Package photometry provides the DC apparent-magnitude correction and
// the distance-modulus conversion used by the cross-match stage.
package photometry

import (
	"math"

	"github.com/astrolab/knwatch/internal/domain/model"
)

// Reference zero points per band, used when the science zero point is
// missing from the alert.
var refZeroPoint = map[int]float64{
	model.BandG: 26.325,
	model.BandR: 26.275,
	model.BandI: 25.660,
}

// ln(10)/2.5, the magnitude-to-flux error conversion factor.
const pogson = 1.0857

// magDiffCap bounds zero-point-minus-magnitude differences to keep the
// flux exponent finite on corrupt inputs.
const magDiffCap = 12.0

// Measurement is one raw difference-photometry measurement.
type Measurement struct {
	Fid       int
	MagPSF    float64
	SigmaPSF  float64
	MagNR     float64
	SigmaNR   float64
	MagZPSci  float64
	IsDiffPos string
}

// positive reports whether the measurement comes from a positive
// (science minus reference) subtraction.
func (m Measurement) positive() bool {
	return m.IsDiffPos == "t" || m.IsDiffPos == "1"
}

// DCMag converts a difference-photometry measurement into a DC apparent
// magnitude and its uncertainty, by combining the difference flux with
// the reference-source flux. A non-positive combined flux yields NaN.
func DCMag(m Measurement) (mag, sigma float64) {
	zpRef, ok := refZeroPoint[m.Fid]
	if !ok {
		return math.NaN(), math.NaN()
	}

	refFlux := math.Pow(10, 0.4*math.Min(zpRef-m.MagNR, magDiffCap))
	refSigFlux := m.SigmaNR / pogson * refFlux

	zpSci := m.MagZPSci
	if zpSci == 0 || math.IsNaN(zpSci) {
		zpSci = zpRef
	}
	diffFlux := math.Pow(10, 0.4*math.Min(zpSci-m.MagPSF, magDiffCap))
	diffSigFlux := m.SigmaPSF / pogson * diffFlux

	var dcFlux float64
	if m.positive() {
		dcFlux = refFlux + diffFlux
	} else {
		dcFlux = refFlux - diffFlux
	}

	if dcFlux <= 0 || math.IsNaN(dcFlux) {
		return math.NaN(), math.NaN()
	}

	dcSigFlux := math.Sqrt(diffSigFlux*diffSigFlux + refSigFlux*refSigFlux)
	mag = zpSci - 2.5*math.Log10(dcFlux)
	sigma = dcSigFlux / dcFlux * pogson
	return mag, sigma
}

// AbsoluteMag converts an apparent magnitude to absolute magnitude given
// a luminosity distance in Mpc, via the standard distance modulus
// m - M = 5*log10(d_Mpc) + 25.
func AbsoluteMag(apparent, lumDistMpc float64) float64 {
	if lumDistMpc <= 0 {
		return math.NaN()
	}
	return apparent - 25 - 5*math.Log10(lumDistMpc)
}
