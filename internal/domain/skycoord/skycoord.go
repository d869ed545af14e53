// Package skycoord provides the spherical geometry used by the
// cross-match and enrichment stages: angular separations, the
// equatorial-to-galactic transform, and sexagesimal formatting.
package skycoord

import (
	"fmt"
	"math"
)

const degToRad = math.Pi / 180

// J2000 north galactic pole, degrees.
const (
	ngpRA  = 192.85948
	ngpDec = 27.12825
)

// Separation returns the angular separation in radians between two
// points given in degrees, using the Vincenty formula, which is stable
// at both small and antipodal separations.
func Separation(ra1, dec1, ra2, dec2 float64) float64 {
	l1 := ra1 * degToRad
	b1 := dec1 * degToRad
	l2 := ra2 * degToRad
	b2 := dec2 * degToRad

	dl := l2 - l1
	num1 := math.Cos(b2) * math.Sin(dl)
	num2 := math.Cos(b1)*math.Sin(b2) - math.Sin(b1)*math.Cos(b2)*math.Cos(dl)
	den := math.Sin(b1)*math.Sin(b2) + math.Cos(b1)*math.Cos(b2)*math.Cos(dl)
	return math.Atan2(math.Hypot(num1, num2), den)
}

// GalacticLatitude transforms J2000 equatorial coordinates (degrees)
// into galactic latitude b (degrees).
func GalacticLatitude(ra, dec float64) float64 {
	raR := ra * degToRad
	decR := dec * degToRad
	poleRA := ngpRA * degToRad
	poleDec := ngpDec * degToRad

	sinB := math.Sin(decR)*math.Sin(poleDec) +
		math.Cos(decR)*math.Cos(poleDec)*math.Cos(raR-poleRA)
	return math.Asin(sinB) / degToRad
}

// FormatRA renders a right ascension in degrees as sexagesimal hours,
// "H MM SS.ss".
func FormatRA(deg float64) string {
	// Normalize into [0, 360) before converting to hours.
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	h, m, s := sexagesimal(deg/15, 2)
	return fmt.Sprintf("%d %02d %05.2f", h, m, s)
}

// FormatDec renders a declination in degrees as signed sexagesimal
// degrees, "+D MM SS.s".
func FormatDec(deg float64) string {
	sign := "+"
	if deg < 0 || math.Signbit(deg) {
		sign = "-"
		deg = -deg
	}
	d, m, s := sexagesimal(deg, 1)
	return fmt.Sprintf("%s%d %02d %04.1f", sign, d, m, s)
}

// sexagesimal splits a non-negative value into whole units, minutes and
// seconds, rounding the seconds to the given number of decimals and
// carrying overflow so "59.999" never prints as 60.
func sexagesimal(v float64, decimals int) (units, minutes int, seconds float64) {
	scale := math.Pow(10, float64(decimals))
	total := math.Round(v*3600*scale) / scale // whole value in seconds

	units = int(total / 3600)
	rem := total - float64(units)*3600
	minutes = int(rem / 60)
	seconds = rem - float64(minutes)*60
	// Guard against float drift pushing seconds to 60 after rounding.
	if seconds >= 60 {
		seconds -= 60
		minutes++
	}
	if minutes >= 60 {
		minutes -= 60
		units++
	}
	return units, minutes, seconds
}
