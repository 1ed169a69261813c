package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/plantpulse/plantpulse/internal/acquire"
	"github.com/plantpulse/plantpulse/internal/alerts"
	"github.com/plantpulse/plantpulse/internal/anomaly"
	"github.com/plantpulse/plantpulse/internal/api"
	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/health"
	"github.com/plantpulse/plantpulse/internal/ingest"
	"github.com/plantpulse/plantpulse/internal/reading"
	"github.com/plantpulse/plantpulse/internal/store"
	"github.com/plantpulse/plantpulse/internal/summary"
	"github.com/plantpulse/plantpulse/internal/ws"
)

// source pairs a configured source with its acquisition backend.
type source struct {
	cfg config.Source
	src acquire.Source
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single pipeline cycle, print the snapshot as JSON, and exit")
	flag.Parse()

	// Webhook URLs and API keys come from the environment; a local .env is
	// a convenience, not a requirement.
	godotenv.Load() //nolint:errcheck

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("plantpulse starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"sources", len(cfg.Sources),
		"cycle_interval", cfg.Pipeline.CycleInterval,
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Build acquisition backends from the initial config.
	// Hot-reload updates logging only; rebuilding sources on reload is open.
	var sources []source
	for _, sc := range cfg.Sources {
		s, err := acquire.New(sc)
		if err != nil {
			slog.Error("skipping source", "source", sc.ID, "err", err)
			continue
		}
		sources = append(sources, source{cfg: sc, src: s})
		slog.Info("registered source", "id", sc.ID, "type", sc.Type)
	}
	if len(sources) == 0 {
		slog.Warn("no usable sources configured, pipeline will idle")
	}

	st := store.New(cfg.Server.Snapshot.TTL)
	tracker := health.NewTracker(0) // default window
	alertEngine := alerts.New(cfg.Server.Alerts)

	if *once {
		runCycle(ctx, cfg, sources, tracker, st, alertEngine)
		snap := api.BuildSnapshot(st)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			slog.Error("encode snapshot", "err", err)
			os.Exit(1)
		}
		return
	}

	go st.Run(ctx)

	// Watch the config file for hot-reload (logs only in this phase).
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config hot-reloaded", "sources", len(updated.Sources))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// WebSocket hub broadcasts the current snapshot to UI clients.
	hub := ws.New(st, cfg.Server.Broadcast)
	go hub.Run(ctx)

	// Combined HTTP server: REST API + WebSocket hub on HTTPPort.
	authMW := api.APIKeyMiddleware(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", authMW(api.New(st, alertEngine)))
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	// Pipeline loop: acquire, consolidate, detect, summarize, score.
	go func() {
		runCycle(ctx, cfg, sources, tracker, st, alertEngine)
		ticker := time.NewTicker(cfg.Pipeline.CycleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCycle(ctx, cfg, sources, tracker, st, alertEngine)
			}
		}
	}()

	<-ctx.Done()
	slog.Info("plantpulse shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}

// runCycle executes one full pipeline pass over every configured source and
// publishes the resulting per-group snapshots.
func runCycle(ctx context.Context, cfg *config.Config, sources []source, tracker *health.Tracker, st *store.Store, alertEngine *alerts.Engine) {
	var batches []reading.Batch
	for _, s := range sources {
		collected := acquire.Collect(ctx, s.cfg.ID, s.src, cfg.Pipeline.BatchesPerCycle)
		for _, b := range collected {
			tracker.Record(s.cfg.ID, b != nil)
		}
		batches = append(batches, collected...)
	}

	rows, err := ingest.Consolidate(batches, ingest.Options{Strict: cfg.Pipeline.Strict})
	if err != nil {
		slog.Error("cycle: ingestion failed", "err", err)
		return
	}
	if len(rows) == 0 {
		slog.Info("cycle: no readings acquired")
		return
	}

	annotated := detectAll(rows, cfg.Pipeline.Targets)

	metrics, err := summary.Summarize(annotated, summary.Options{
		GroupBy: cfg.Pipeline.GroupBy,
		Bucket:  cfg.Pipeline.SummaryBucket,
	})
	if err != nil {
		slog.Error("cycle: summarization failed", "err", err)
		return
	}

	availability := tracker.Overall()
	for group, m := range metrics {
		snap := groupSnapshot(group, m, availability)
		st.Put(snap)
		alertEngine.Evaluate(snap)

		slog.Debug("cycle: group scored",
			"group", group,
			"count", m.Count,
			"score", snap.Health.Score,
			"state", snap.Health.State,
		)
	}

	slog.Info("cycle complete",
		"rows", len(rows),
		"groups", len(metrics),
		"availability_pct", availability,
	)
}

// groupSnapshot scores one group's metrics and packages them for the store.
// The health inputs span every row of the group: Observations and the null
// share include the NaN rows the descriptive statistics exclude.
func groupSnapshot(group string, m summary.Metrics, availability float64) store.Snapshot {
	h := health.Compute(health.Input{
		Observations:    m.TotalCount(),
		GoodPct:         m.GoodPct,
		AnomalyRate:     m.AnomalyRate,
		NullPct:         m.NullPct(),
		AvailabilityPct: availability,
	})
	return store.Snapshot{
		Group:           group,
		Metrics:         m,
		Health:          h,
		AvailabilityPct: availability,
		LastSeen:        time.Now().UTC(),
	}
}

// detectAll runs anomaly detection for every configured target and merges the
// annotations into one table. Detect preserves row order and length, so the
// merge is a positional copy of each target's rows.
func detectAll(rows []reading.Reading, targets []config.TargetConfig) []reading.Annotated {
	out := reading.WrapAll(rows)
	for _, target := range targets {
		annotated, err := anomaly.Detect(rows, target.Sensor, anomaly.Options{
			Method:    anomaly.Method(target.Method),
			Threshold: target.Threshold,
			Window:    target.Window,
		})
		if err != nil {
			slog.Warn("cycle: detection skipped", "sensor", target.Sensor, "err", err)
			continue
		}
		for i, a := range annotated {
			if a.Detection != "" {
				out[i] = a
			}
		}
	}
	return out
}
