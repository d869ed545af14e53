package model

// Candidate is a final-accepted alert with every quantity the report
// needs, derived by the enricher. It is a value type: building one must
// not mutate the batch or the catalog.
type Candidate struct {
	ObjectID string
	RuleSet  string

	// Position.
	RA           float64 // degrees
	Dec          float64 // degrees
	RAFormatted  string  // sexagesimal hours
	DecFormatted string  // sexagesimal degrees, signed
	GalacticLat  float64 // degrees

	// Timing.
	JD             float64 // observation epoch, Julian days
	DaysSinceFirst float64 // elapsed since first detection, days
	DaysSinceLast  float64 // elapsed since previous detection, days (NaN without history)

	// Photometry in the band of the last measurement.
	Band        int
	ApparentMag float64
	MagErr      float64
	Rate        float64 // mag/day between the two most recent same-band epochs (NaN without history)

	// Classifier scores (NaN when the stream does not carry them).
	KnScore float64
	RFScore float64
	SnnSNIa float64
	SnnSN   float64

	// Host galaxy. Host is nil for rule sets that do not cross-match.
	Host          *GalaxyEntry
	AbsMag        float64 // NaN without a host
	SeparationKpc float64 // physical host separation, kpc (NaN without a host)

	// Survey field, when the stream carries it. Negative means absent.
	Field int64
}
