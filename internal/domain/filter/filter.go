// Package filter evaluates the per-alert predicate chains that select
// candidate transients. One Chain covers all shipped rule sets; each
// rule set is a plain record of thresholds and allow-lists.
package filter

import (
	"context"
	"fmt"
	"math"

	"github.com/astrolab/knwatch/internal/domain/model"
)

// Threshold defaults shared by the shipped rule sets.
const (
	defaultRealBogusMin = 0.5
	defaultClassStarMin = 0.4
)

// simbadGalaxyTypes are the external cross-match labels that denote a
// galaxy-type counterpart and therefore keep an alert in play.
var simbadGalaxyTypes = []string{
	"galaxy",
	"Galaxy",
	"EmG",
	"Seyfert",
	"Seyfert_1",
	"Seyfert_2",
	"BlueCompG",
	"StarburstG",
	"LSB_G",
	"HII_G",
	"High_z_G",
	"GinPair",
	"GinGroup",
	"BClG",
	"GinCl",
	"PartofG",
}

// baseAllowList returns the cross-match labels every transient rule set
// accepts: unclassified counterparts plus galaxy types.
func baseAllowList() []string {
	return append([]string{"Unknown", "Transient", "Fail"}, simbadGalaxyTypes...)
}

// RuleSet enumerates the thresholds and allow-lists of one filter
// variant. A NaN threshold disables that predicate; an empty allow-list
// disables the cross-match label check.
type RuleSet struct {
	Name string

	RealBogusMin float64 // detector confidence, strict >
	ClassStarMin float64 // morphology score, strict >
	KnScoreMin   float64 // kilonova classifier score, strict >
	RFScoreMin   float64 // random-forest SN Ia score, strict >
	SNNEitherMin float64 // either SuperNNova score, strict >

	AgeMaxDays   float64 // observation minus first detection, strict <
	UseLastEpoch bool    // take the observation epoch from the history tail

	PriorDetMax       float64 // prior-detection count bound
	PriorDetInclusive bool    // <= instead of <

	AllowedXMatch  []string // accepted external cross-match labels
	RejectKnownSSO bool     // drop alerts flagged as known solar-system objects
	MulensLabel    string   // both-band microlensing label, "" disables

	CrossMatch bool // verdict additionally requires an accepted host galaxy
	AttachHost bool // attach a host match to the report when one exists
}

func disabled() float64 { return math.NaN() }

// EarlyKilonova is the score-free early kilonova rule set.
func EarlyKilonova() RuleSet {
	return RuleSet{
		Name:           "early_kn",
		RealBogusMin:   defaultRealBogusMin,
		ClassStarMin:   defaultClassStarMin,
		KnScoreMin:     disabled(),
		RFScoreMin:     disabled(),
		SNNEitherMin:   disabled(),
		AgeMaxDays:     0.25,
		PriorDetMax:    disabled(),
		AllowedXMatch:  baseAllowList(),
		RejectKnownSSO: true,
		CrossMatch:     true,
		AttachHost:     true,
	}
}

// ScoredKilonova is the classifier-score kilonova rule set.
func ScoredKilonova() RuleSet {
	return RuleSet{
		Name:          "kn",
		RealBogusMin:  defaultRealBogusMin,
		ClassStarMin:  defaultClassStarMin,
		KnScoreMin:    0.5,
		RFScoreMin:    disabled(),
		SNNEitherMin:  disabled(),
		AgeMaxDays:    20,
		UseLastEpoch:  true,
		PriorDetMax:   20,
		AllowedXMatch: baseAllowList(),
		AttachHost:    true,
	}
}

// EarlySupernova is the early SN Ia rule set.
func EarlySupernova() RuleSet {
	return RuleSet{
		Name:              "early_sn",
		RealBogusMin:      defaultRealBogusMin,
		ClassStarMin:      defaultClassStarMin,
		KnScoreMin:        disabled(),
		RFScoreMin:        0.5,
		SNNEitherMin:      0.5,
		AgeMaxDays:        disabled(),
		PriorDetMax:       20,
		PriorDetInclusive: true,
		AllowedXMatch:     append(baseAllowList(), "Candidate_SN*", "SN"),
	}
}

// Microlensing is the two-band microlensing rule set.
func Microlensing() RuleSet {
	return RuleSet{
		Name:         "microlensing",
		RealBogusMin: disabled(),
		ClassStarMin: disabled(),
		KnScoreMin:   disabled(),
		RFScoreMin:   disabled(),
		SNNEitherMin: disabled(),
		AgeMaxDays:   disabled(),
		PriorDetMax:  100,
		MulensLabel:  "ML",
	}
}

// Variant returns the chain for a named rule set.
func Variant(name string, opts ...Option) (*Chain, error) {
	switch name {
	case "early_kn":
		return New(EarlyKilonova(), opts...), nil
	case "kn":
		return New(ScoredKilonova(), opts...), nil
	case "early_sn":
		return New(EarlySupernova(), opts...), nil
	case "microlensing":
		return New(Microlensing(), opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, name)
	}
}

// Chain evaluates one rule set over a batch.
type Chain struct {
	rs      RuleSet
	allowed map[string]struct{}
}

// Option applies a configuration option to the Chain.
type Option func(*Chain)

// WithAgeMax overrides the early-detection window in days.
func WithAgeMax(days float64) Option {
	return func(c *Chain) {
		if days > 0 {
			c.rs.AgeMaxDays = days
		}
	}
}

// WithAllowList replaces the accepted cross-match labels.
func WithAllowList(labels []string) Option {
	return func(c *Chain) {
		if len(labels) > 0 {
			c.rs.AllowedXMatch = labels
		}
	}
}

// New creates a Chain for the given rule set.
func New(rs RuleSet, opts ...Option) *Chain {
	c := &Chain{rs: rs}

	for _, opt := range opts {
		opt(c)
	}

	c.allowed = make(map[string]struct{}, len(c.rs.AllowedXMatch))
	for _, label := range c.rs.AllowedXMatch {
		c.allowed[label] = struct{}{}
	}
	return c
}

// Name returns the rule set name.
func (c *Chain) Name() string { return c.rs.Name }

// RequiresCrossMatch reports whether a true verdict additionally needs
// an accepted host galaxy.
func (c *Chain) RequiresCrossMatch() bool { return c.rs.CrossMatch }

// AttachesHost reports whether accepted candidates should carry a host
// match in their report when one exists. Unlike RequiresCrossMatch, a
// missing host never changes the verdict.
func (c *Chain) AttachesHost() bool { return c.rs.AttachHost || c.rs.CrossMatch }

// Evaluate classifies every alert in the batch. The result is aligned
// with the batch; evaluation has no side effects.
func (c *Chain) Evaluate(ctx context.Context, b *model.Batch) []bool {
	out := make([]bool, b.Len())
	for i := range out {
		select {
		case <-ctx.Done():
			return out
		default:
		}
		out[i] = c.evalOne(b, i)
	}
	return out
}

// evalOne applies the rule set to alert i. Absent or unparseable fields
// never satisfy a threshold.
func (c *Chain) evalOne(b *model.Batch, i int) bool {
	rs := &c.rs

	if !passAbove(model.FloatAt(b.RealBogus, i), rs.RealBogusMin) {
		return false
	}
	if !passAbove(model.FloatAt(b.ClassStar, i), rs.ClassStarMin) {
		return false
	}
	if !passAbove(model.FloatAt(b.KnScore, i), rs.KnScoreMin) {
		return false
	}
	if !passAbove(model.FloatAt(b.RFScore, i), rs.RFScoreMin) {
		return false
	}
	if !math.IsNaN(rs.SNNEitherMin) {
		ia := model.FloatAt(b.SnnSNIa, i)
		all := model.FloatAt(b.SnnSN, i)
		if !(ia > rs.SNNEitherMin || all > rs.SNNEitherMin) {
			return false
		}
	}

	if !math.IsNaN(rs.AgeMaxDays) {
		epoch := b.JD[i]
		if rs.UseLastEpoch {
			epoch = b.LastJD(i)
		}
		age := epoch - b.JDStartHist[i]
		if !(age < rs.AgeMaxDays) {
			return false
		}
	}

	if !math.IsNaN(rs.PriorDetMax) {
		n := model.FloatAt(b.NDetHist, i)
		if rs.PriorDetInclusive {
			if !(n <= rs.PriorDetMax) {
				return false
			}
		} else if !(n < rs.PriorDetMax) {
			return false
		}
	}

	if len(c.allowed) > 0 {
		if _, ok := c.allowed[b.CDSXMatch[i]]; !ok {
			return false
		}
	}

	if rs.RejectKnownSSO && model.StringAt(b.SSOFlag, i) == model.SSOKnown {
		return false
	}

	if rs.MulensLabel != "" {
		if model.StringAt(b.MulensG, i) != rs.MulensLabel ||
			model.StringAt(b.MulensR, i) != rs.MulensLabel {
			return false
		}
	}

	return true
}

// passAbove applies a strict > threshold; NaN values fail, NaN
// thresholds disable the check.
func passAbove(v, threshold float64) bool {
	if math.IsNaN(threshold) {
		return true
	}
	return v > threshold
}
