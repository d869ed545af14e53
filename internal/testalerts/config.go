// Package testalerts generates synthetic alert batches and replays
// them against a running classification endpoint. It exists for load
// checks and end-to-end smoke tests, not for science.
package testalerts

import "time"

// Default run settings.
const (
	DefaultNumAlerts    = 1000
	DefaultPositiveRate = 0.05
	DefaultTimeout      = 30 * time.Second
)

// Config drives one generator run.
type Config struct {
	BaseURL      string
	NumAlerts    int
	PositiveRate float64 // fraction of alerts planted on catalog galaxies
	CatalogPath  string
	Seed         int64 // zero means time-derived
	Timeout      time.Duration
}
