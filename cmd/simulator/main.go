package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/antoniguss/bikesharing-simulation/internal/logging"
	"github.com/antoniguss/bikesharing-simulation/internal/observability"
	"github.com/antoniguss/bikesharing-simulation/model"
	"github.com/antoniguss/bikesharing-simulation/routes"
	"github.com/antoniguss/bikesharing-simulation/scenario"
	"github.com/antoniguss/bikesharing-simulation/sim"
)

func main() {
	configPath := flag.String("config", "configs/simulation.yaml", "path to the YAML run configuration")
	seed := flag.Int64("seed", 0, "override the config's random seed (0 keeps the config value)")
	durationMin := flag.Int("duration", 0, "override the simulated duration in minutes (0 keeps the config value)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics; empty disables the endpoint")
	serveAfterRun := flag.Bool("serve-after-run", false, "keep the metrics endpoint alive after the run until interrupted")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := scenario.LoadConfig(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load config", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *durationMin != 0 {
		cfg.DurationMinutes = *durationMin
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		metricsSrv = serveMetrics(ctx, *metricsAddr, collector, log)
	}

	tracer := otel.Tracer("bikeshare-simulator")

	loadCtx, loadSpan := tracer.Start(ctx, "scenario.load")
	stations, pools, weights, err := loadScenario(loadCtx, cfg, log)
	loadSpan.End()
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("error", err.Error()))
		os.Exit(1)
	}

	routeCtx, routeSpan := tracer.Start(ctx, "routes.prepare")
	table := prepareRoutes(routeCtx, cfg, stations, log)
	routeSpan.End()

	registry, err := sim.NewRegistry(stations)
	if err != nil {
		log.Error(ctx, "invalid station catalog", logging.String("error", err.Error()))
		os.Exit(1)
	}

	engine, err := sim.NewEngine(sim.Config{
		StartTime:        cfg.StartTime(),
		Duration:         cfg.Duration(),
		MaxWalkKm:        cfg.MaxWalkKm,
		WalkingSpeedKmph: cfg.WalkingSpeedKmph,
		SnapshotInterval: time.Hour,
		Seed:             cfg.Seed,
	}, registry, table, weights, pools, sim.NewStats(), log, collector)
	if err != nil {
		log.Error(ctx, "failed to assemble simulation", logging.String("error", err.Error()))
		os.Exit(1)
	}

	initialBikes := registry.TotalBikes()

	runCtx, runSpan := tracer.Start(ctx, "simulation.run")
	stats := engine.Run(runCtx)
	runSpan.End()

	printSummary(cfg, registry, stats, initialBikes)

	if cfg.ResultsDir != "" {
		path, err := writeResults(cfg, engine, registry, stats, initialBikes)
		if err != nil {
			log.Error(ctx, "failed to write results bundle", logging.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info(ctx, "results written", logging.String("path", path))
	}

	if metricsSrv != nil && *serveAfterRun {
		log.Info(ctx, "run finished; metrics endpoint still serving", logging.String("addr", *metricsAddr))
		stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		<-stopCtx.Done()
	}
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

// loadScenario reads the station catalog, POI database, and weight
// tables named by the config.
func loadScenario(ctx context.Context, cfg scenario.Config, log logging.Logger) ([]*model.Station, map[string][]model.POI, *scenario.WeightTable, error) {
	stationsFile, err := os.Open(cfg.Data.Stations)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open stations: %w", err)
	}
	defer stationsFile.Close()
	stations, err := scenario.LoadStations(stationsFile)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info(ctx, "stations loaded", logging.Int("stations", len(stations)))

	poiFile, err := os.Open(cfg.Data.POIDatabase)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open POI database: %w", err)
	}
	defer poiFile.Close()
	pools, err := scenario.LoadPOIDatabase(poiFile)
	if err != nil {
		return nil, nil, nil, err
	}
	scenario.SummarizePOIDatabase(ctx, log, pools)

	poiWeights, err := os.Open(cfg.Data.POIWeights)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open POI weights: %w", err)
	}
	defer poiWeights.Close()
	timeWeights, err := os.Open(cfg.Data.TimeWeights)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open time weights: %w", err)
	}
	defer timeWeights.Close()
	weights, err := scenario.LoadWeightTable(poiWeights, timeWeights)
	if err != nil {
		return nil, nil, nil, err
	}

	return stations, pools, weights, nil
}

// prepareRoutes loads the route cache when it is still fresh for the
// current station file, rebuilding and re-caching otherwise.
func prepareRoutes(ctx context.Context, cfg scenario.Config, stations []*model.Station, log logging.Logger) *routes.Table {
	hash := routes.HashFile(cfg.Data.Stations)
	if table, ok := routes.LoadCache(cfg.Data.RouteCache, cfg.Data.RouteCacheMeta, hash); ok {
		log.Info(ctx, "route table loaded from cache", logging.Int("routes", table.Len()))
		return table
	}

	log.Info(ctx, "route cache missing or stale; precomputing routes")
	table := routes.Build(stations, routes.EstimatorConfig{
		CyclingSpeedKmph: cfg.CyclingSpeedKmph,
		DetourFactor:     cfg.DetourFactor,
	})
	if err := routes.SaveCache(table, cfg.Data.RouteCache, cfg.Data.RouteCacheMeta, hash); err != nil {
		log.Warn(ctx, "failed to save route cache", logging.String("error", err.Error()))
	}
	log.Info(ctx, "route table precomputed", logging.Int("routes", table.Len()))
	return table
}

func serveMetrics(ctx context.Context, addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server exited", logging.String("error", err.Error()))
		}
	}()
	log.Info(ctx, "serving metrics", logging.String("addr", addr))
	return srv
}
