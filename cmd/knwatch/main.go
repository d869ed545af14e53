// Command knwatch runs the transient alert classification service: it
// ingests alert batches over Kafka and HTTP, classifies them against
// the configured rule set, and dispatches candidate reports.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/astrolab/knwatch/internal/adapters/catalog"
	"github.com/astrolab/knwatch/internal/adapters/http/api"
	"github.com/astrolab/knwatch/internal/adapters/notify"
	"github.com/astrolab/knwatch/internal/adapters/stream"
	"github.com/astrolab/knwatch/internal/app"
	"github.com/astrolab/knwatch/internal/config"
	"github.com/astrolab/knwatch/internal/domain/crossmatch"
	"github.com/astrolab/knwatch/internal/domain/filter"
	"github.com/astrolab/knwatch/pkg/logger"
	"github.com/astrolab/knwatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// The default Go runtime collectors would duplicate what the
	// custom registry already serves.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	chain, err := filter.Variant(cfg.FilterVariant)
	if err != nil {
		log.Fatal(ctx, "unknown filter variant", logger.Error(err))
	}

	cat, err := catalog.Load(ctx, cfg.CatalogPath)
	if err != nil {
		log.Fatal(ctx, "failed to load galaxy catalog",
			logger.String("path", cfg.CatalogPath), logger.Error(err))
	}
	log.Info(ctx, "galaxy catalog loaded",
		logger.String("path", cfg.CatalogPath),
		logger.Int("galaxies", cat.Size()))

	sender := notify.NewWebhookSender(
		notify.WithTimeout(time.Duration(cfg.WebhookTimeoutMS) * time.Millisecond),
	)
	surveyFields := cfg.SurveyFields
	if len(surveyFields) == 0 {
		surveyFields = notify.DefaultSurveyFields
	}
	router := notify.New(sender, []notify.Channel{
		notify.Primary("kn", cfg.PrimaryWebhook, "Kilonova bot"),
		notify.Primary("mangrove", cfg.MangroveWebhook, "Kilonova bot"),
		notify.Amateur(cfg.AmateurWebhook),
		notify.Survey(cfg.SurveyWebhook, surveyFields),
	}, notify.WithGuardSize(cfg.GuardSize))

	svc := app.New(
		app.WithLogger(log),
		app.WithChain(chain),
		app.WithMatcher(crossmatch.New(cat)),
		app.WithRouter(router),
		app.WithQueueSize(cfg.QueueSize),
		app.WithWorkerCount(cfg.WorkerCount),
	)
	if err := svc.Start(ctx); err != nil {
		log.Fatal(ctx, "failed to start service", logger.Error(err))
	}
	defer svc.Stop(context.Background())

	// Kafka intake is optional; without brokers the HTTP endpoint is
	// the only way in.
	if brokers := stream.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		consumer := stream.New(stream.Config{
			Brokers: brokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroup,
		}, svc)
		defer consumer.Close()

		go func() {
			log.Info(ctx, "starting stream consumer",
				logger.String("topic", cfg.KafkaTopic))
			if err := consumer.Run(ctx); err != nil {
				log.Error(ctx, "stream consumer stopped", logger.Error(err))
			}
		}()
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}
