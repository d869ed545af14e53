// Package catalog loads the host-galaxy reference catalog and serves
// coarse radius queries against it through an in-memory spatial index.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/pkg/logger"
	"github.com/astrolab/knwatch/pkg/metrics"
)

// DefaultPath is the catalog resource bundled with the service.
const DefaultPath = "data/mangrove_filtered.csv"

// Index serves read-only spatial queries over the loaded catalog.
// Implementations must be safe for concurrent readers without locking.
type Index interface {
	// Within returns every catalog entry within radiusDeg of the given
	// position, in catalog order.
	Within(ra, dec, radiusDeg float64) []model.GalaxyEntry

	// Size returns the number of loaded entries.
	Size() int
}

// requiredColumns are the catalog columns the loader insists on.
var requiredColumns = []string{
	"ra", "dec", "lum_dist", "dist_err", "ang_dist",
	"stellarmass", "galaxy_idx", "external_name",
}

// Load reads the catalog CSV at path and builds the grid index. A
// missing or unreadable catalog is an error the caller should treat as
// startup-fatal; malformed rows are skipped and counted.
func Load(ctx context.Context, path string, opts ...Option) (*GridIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, path, err)
	}
	defer f.Close()

	entries, skipped, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogUnavailable, path, err)
	}

	log := logger.Get().Named("catalog")
	if skipped > 0 {
		log.Warn(ctx, "skipped malformed catalog rows",
			logger.Int("skipped", skipped), logger.String("path", path))
	}
	log.Info(ctx, "catalog loaded",
		logger.Int("entries", len(entries)), logger.String("path", path))
	metrics.SetCatalogSize(len(entries))

	return NewFromEntries(entries, opts...), nil
}

// parse reads catalog rows from r. It returns the parsed entries and
// the number of rows dropped for parse failures.
func parse(r io.Reader) ([]model.GalaxyEntry, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("reading catalog header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, 0, fmt.Errorf("%w: missing column %s", ErrBadCatalog, name)
		}
	}

	var entries []model.GalaxyEntry
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		entry, ok := parseRow(record, col)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped, nil
}

func parseRow(record []string, col map[string]int) (model.GalaxyEntry, bool) {
	get := func(name string) (float64, bool) {
		i := col[name]
		if i >= len(record) {
			return 0, false
		}
		v, err := strconv.ParseFloat(record[i], 64)
		return v, err == nil
	}

	var e model.GalaxyEntry
	var ok bool
	if e.RA, ok = get("ra"); !ok {
		return e, false
	}
	if e.Dec, ok = get("dec"); !ok {
		return e, false
	}
	// ParseFloat accepts "NaN" and "Inf"; an unbucketable position is
	// as malformed as an unparseable one.
	if !finiteCoords(e.RA, e.Dec) {
		return e, false
	}
	if e.LumDist, ok = get("lum_dist"); !ok {
		return e, false
	}
	if e.DistErr, ok = get("dist_err"); !ok {
		return e, false
	}
	if e.AngDist, ok = get("ang_dist"); !ok {
		return e, false
	}
	if e.StellarMass, ok = get("stellarmass"); !ok {
		return e, false
	}

	idx, ok := get("galaxy_idx")
	if !ok {
		return e, false
	}
	e.Index = int64(idx)

	if i := col["external_name"]; i < len(record) {
		e.Name = record[i]
	}
	return e, true
}
