// Package model contains domain types passed between pipeline stages.
package model

import (
	"errors"
	"fmt"
	"math"
)

// Band identifiers used by the survey photometry.
const (
	BandG = 1
	BandR = 2
	BandI = 3
)

// History holds the time-ordered photometric history of a single alert.
// All slices are index-aligned; missing photometry is NaN.
type History struct {
	JD        []float64 `json:"cjd"`
	Fid       []int     `json:"cfid"`
	MagPSF    []float64 `json:"cmagpsf"`
	SigmaPSF  []float64 `json:"csigmapsf"`
	MagNR     []float64 `json:"cmagnr"`
	SigmaNR   []float64 `json:"csigmagnr"`
	MagZPSci  []float64 `json:"cmagzpsci"`
	IsDiffPos []string  `json:"cisdiffpos"`
}

// Len returns the number of history epochs.
func (h *History) Len() int { return len(h.JD) }

// Batch is one columnar batch of alerts. All vectors are index-aligned;
// optional columns are nil when the upstream stream does not carry them.
type Batch struct {
	ObjectID    []string  `json:"objectId"`
	RealBogus   []float64 `json:"drb"`
	ClassStar   []float64 `json:"classtar"`
	JD          []float64 `json:"jd"`
	JDStartHist []float64 `json:"jdstarthist"`
	NDetHist    []float64 `json:"ndethist"`
	CDSXMatch   []string  `json:"cdsxmatch"`
	Fid         []int     `json:"fid"`
	MagPSF      []float64 `json:"magpsf"`
	SigmaPSF    []float64 `json:"sigmapsf"`
	MagNR       []float64 `json:"magnr"`
	SigmaNR     []float64 `json:"sigmagnr"`
	MagZPSci    []float64 `json:"magzpsci"`
	IsDiffPos   []string  `json:"isdiffpos"`
	RA          []float64 `json:"ra"`
	Dec         []float64 `json:"dec"`

	// Optional columns.
	SSOFlag []string  `json:"roid,omitempty"`    // solar-system cross-match label
	Field   []int64   `json:"field,omitempty"`   // survey field identifier
	KnScore []float64 `json:"knscore,omitempty"` // kilonova classifier score
	RFScore []float64 `json:"rfscore,omitempty"` // random-forest early SN Ia score
	SnnSNIa []float64 `json:"snn_snia_vs_nonia,omitempty"`
	SnnSN   []float64 `json:"snn_sn_vs_all,omitempty"`
	MulensG []string  `json:"mulens_class_1,omitempty"`
	MulensR []string  `json:"mulens_class_2,omitempty"`
	History []History `json:"history,omitempty"` // per-alert photometric history
}

// SSOKnown marks an alert whose position matches a known solar-system object.
const SSOKnown = "known-sso"

// Len returns the number of alerts in the batch.
func (b *Batch) Len() int { return len(b.ObjectID) }

// Validate checks that all present vectors share the batch length.
func (b *Batch) Validate() error {
	n := b.Len()
	if n == 0 {
		return errors.New("empty batch")
	}
	cols := map[string]int{
		"drb":         len(b.RealBogus),
		"classtar":    len(b.ClassStar),
		"jd":          len(b.JD),
		"jdstarthist": len(b.JDStartHist),
		"ndethist":    len(b.NDetHist),
		"cdsxmatch":   len(b.CDSXMatch),
		"fid":         len(b.Fid),
		"magpsf":      len(b.MagPSF),
		"sigmapsf":    len(b.SigmaPSF),
		"magnr":       len(b.MagNR),
		"sigmagnr":    len(b.SigmaNR),
		"magzpsci":    len(b.MagZPSci),
		"isdiffpos":   len(b.IsDiffPos),
		"ra":          len(b.RA),
		"dec":         len(b.Dec),
	}
	for name, l := range cols {
		if l != n {
			return fmt.Errorf("column %s has length %d, want %d: %w", name, l, n, ErrMisaligned)
		}
	}
	optional := map[string]int{
		"roid":              len(b.SSOFlag),
		"field":             len(b.Field),
		"knscore":           len(b.KnScore),
		"rfscore":           len(b.RFScore),
		"snn_snia_vs_nonia": len(b.SnnSNIa),
		"snn_sn_vs_all":     len(b.SnnSN),
		"mulens_class_1":    len(b.MulensG),
		"mulens_class_2":    len(b.MulensR),
		"history":           len(b.History),
	}
	for name, l := range optional {
		if l != 0 && l != n {
			return fmt.Errorf("column %s has length %d, want %d: %w", name, l, n, ErrMisaligned)
		}
	}
	return nil
}

// LastJD returns the observation time of alert i, preferring the most
// recent history epoch when a history is present.
func (b *Batch) LastJD(i int) float64 {
	if i < len(b.History) {
		if h := &b.History[i]; h.Len() > 0 {
			return h.JD[h.Len()-1]
		}
	}
	return b.JD[i]
}

// FloatAt returns col[i], or NaN when the column is absent.
func FloatAt(col []float64, i int) float64 {
	if i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// StringAt returns col[i], or "" when the column is absent.
func StringAt(col []string, i int) string {
	if i >= len(col) {
		return ""
	}
	return col[i]
}
