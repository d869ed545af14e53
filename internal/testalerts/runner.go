package testalerts

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/astrolab/knwatch/internal/adapters/catalog"
	"github.com/astrolab/knwatch/pkg/logger"
)

// Run generates one synthetic batch, replays it against the configured
// endpoint and logs how the verdicts compare to the planted positives.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("testalerts")

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	idx, err := catalog.Load(ctx, cfg.CatalogPath)
	if err != nil {
		return err
	}

	b, planted := Generate(rng, cfg.NumAlerts, cfg.PositiveRate, idx.Entries())
	log.Info(ctx, "generated synthetic batch",
		logger.Int("alerts", b.Len()),
		logger.Int("planted", len(planted)),
		logger.Any("seed", seed),
	)

	client := &http.Client{Timeout: cfg.Timeout}
	verdicts, err := Submit(ctx, client, cfg.BaseURL, b)
	if err != nil {
		return err
	}

	plantedSet := make(map[int]struct{}, len(planted))
	for _, i := range planted {
		plantedSet[i] = struct{}{}
	}

	var hits, extras int
	for i, v := range verdicts {
		if !v {
			continue
		}
		if _, ok := plantedSet[i]; ok {
			hits++
		} else {
			extras++
		}
	}

	log.Info(ctx, "replay finished",
		logger.Int("accepted", hits+extras),
		logger.Int("plantedAccepted", hits),
		logger.Int("plantedTotal", len(planted)),
		logger.Int("unplannedAccepted", extras),
	)
	return nil
}
