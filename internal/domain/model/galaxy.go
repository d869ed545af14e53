package model

// GalaxyEntry is one row of the host-galaxy reference catalog.
// Entries are immutable after load and shared read-only across batches.
type GalaxyEntry struct {
	Index       int64   // catalog index (galaxy_idx column)
	Name        string  // external cross-identifier (external_name column)
	RA          float64 // degrees, J2000
	Dec         float64 // degrees, J2000
	LumDist     float64 // luminosity distance, Mpc
	DistErr     float64 // luminosity distance uncertainty, Mpc
	AngDist     float64 // angular-diameter distance, Mpc
	StellarMass float64 // log10 stellar mass, solar units
}

// MatchResult records the host galaxy accepted for one alert. It lives
// only between cross-match and enrichment.
type MatchResult struct {
	Galaxy     GalaxyEntry
	AbsMag     float64 // candidate absolute magnitude against this host
	Separation float64 // alert-to-galaxy angular separation, radians
}
