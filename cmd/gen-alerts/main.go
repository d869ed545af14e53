// Command gen-alerts replays synthetic alert batches against a running
// knwatch instance and reports how many planted candidates came back
// accepted.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/astrolab/knwatch/internal/adapters/catalog"
	"github.com/astrolab/knwatch/internal/testalerts"
	"github.com/astrolab/knwatch/pkg/logger"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		nAlerts  = flag.Int("alerts", testalerts.DefaultNumAlerts, "Number of alerts to generate")
		positive = flag.Float64("positive", testalerts.DefaultPositiveRate, "Fraction of alerts planted on catalog galaxies")
		catPath  = flag.String("catalog", catalog.DefaultPath, "Galaxy catalog CSV path")
		seed     = flag.Int64("seed", 0, "Generator seed (0 = time-derived)")
		timeout  = flag.Duration("timeout", testalerts.DefaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &testalerts.Config{
		BaseURL:      *baseURL,
		NumAlerts:    *nAlerts,
		PositiveRate: *positive,
		CatalogPath:  *catPath,
		Seed:         *seed,
		Timeout:      *timeout,
	}

	if err := testalerts.Run(context.Background(), cfg); err != nil {
		os.Stderr.WriteString("replay failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
