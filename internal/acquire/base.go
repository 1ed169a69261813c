package acquire

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/reading"
)

const defaultReadTimeout = 10 * time.Second

// Source is the common interface implemented by every acquisition backend.
// A failed read returns a nil batch and a non-nil error; ingestion treats
// that as a missing batch, not a fault of the pipeline.
type Source interface {
	ReadBatch(ctx context.Context) (reading.Batch, error)
}

// New returns the appropriate Source for the given source configuration.
func New(src config.Source) (Source, error) {
	switch src.Type {
	case "simulator":
		return newSimulator(src), nil
	case "prometheus":
		client := &http.Client{Timeout: defaultReadTimeout}
		return &promSource{src: src, client: client}, nil
	default:
		return nil, fmt.Errorf("acquire: unsupported type %q", src.Type)
	}
}

// Collect performs n reads from src and returns exactly n batches, with nil
// in the positions where a read failed. Failures are logged, never returned:
// a flaky source is the expected operating condition.
func Collect(ctx context.Context, id string, src Source, n int) []reading.Batch {
	batches := make([]reading.Batch, n)
	for i := 0; i < n; i++ {
		b, err := src.ReadBatch(ctx)
		if err != nil {
			slog.Warn("acquire: batch read failed",
				"source", id, "attempt", i+1, "of", n, "err", err)
			continue // leave the nil batch in place
		}
		batches[i] = b
	}
	return batches
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning is still
// returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}
