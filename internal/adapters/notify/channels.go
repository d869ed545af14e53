package notify

import (
	"math"
	"time"

	"github.com/astrolab/knwatch/internal/domain/model"
)

// Amateur-channel gating thresholds.
const (
	amateurMinGalacticLat = 20.0 // degrees off the crowded galactic plane
	amateurMaxApparentMag = 20.0 // bright enough for small telescopes
)

// DefaultSurveyFields is the static allow-list of survey fields for the
// restricted-survey channel.
var DefaultSurveyFields = []int64{246, 247, 248, 1611, 1612, 1613}

// Primary builds an always-open channel.
func Primary(name, endpoint, username string) Channel {
	return Channel{
		Name:     name,
		Endpoint: endpoint,
		Username: username,
	}
}

// Amateur builds the amateur-observer channel: only well-placed, bright
// candidates, and only on Fridays so observers can plan weekend runs.
// The day gate reads the injected clock at dispatch time, not the alert
// time.
func Amateur(endpoint string) Channel {
	return Channel{
		Name:     "amateur",
		Endpoint: endpoint,
		Username: "Kilonova bot",
		Gate: func(c *model.Candidate, now time.Time) (bool, string) {
			if !(math.Abs(c.GalacticLat) > amateurMinGalacticLat) {
				return false, "galactic latitude too low"
			}
			if !(c.ApparentMag < amateurMaxApparentMag) {
				return false, "too faint"
			}
			if now.UTC().Weekday() != time.Friday {
				return false, "not friday"
			}
			return true, ""
		},
	}
}

// Survey builds the restricted-survey channel: only alerts observed in
// one of the allow-listed survey fields.
func Survey(endpoint string, fields []int64) Channel {
	allowed := make(map[int64]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}
	return Channel{
		Name:     "dwf",
		Endpoint: endpoint,
		Username: "Kilonova bot",
		Gate: func(c *model.Candidate, _ time.Time) (bool, string) {
			if _, ok := allowed[c.Field]; !ok {
				return false, "field not in allow-list"
			}
			return true, ""
		},
	}
}
