package acquire

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/reading"
)

// promSource reads sensor values exposed as Prometheus metrics. Each
// configured metric family maps to one sensor; every sample in the family
// becomes a reading.
type promSource struct {
	src    config.Source
	client *http.Client
}

// ReadBatch fetches the exposition endpoint and converts the configured
// families into readings. A family absent from the scrape contributes no
// rows; a sample without a value becomes a NaN reading flagged BAD.
func (p *promSource) ReadBatch(ctx context.Context) (reading.Batch, error) {
	mfs, err := fetchMetrics(ctx, p.client, p.src.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("prometheus read %q: %w", p.src.ID, err)
	}

	now := time.Now().UTC()
	var batch reading.Batch
	for _, m := range p.src.Metrics {
		mf, ok := mfs[m.Family]
		if !ok {
			continue
		}
		for _, sample := range mf.GetMetric() {
			v := sampleValue(sample)
			q := reading.QualityGood
			if math.IsNaN(v) {
				q = reading.QualityBad
			}
			ts := now
			if ms := sample.GetTimestampMs(); ms > 0 {
				ts = time.UnixMilli(ms).UTC()
			}
			batch = append(batch, reading.Reading{
				Timestamp: ts,
				Sensor:    m.Sensor,
				Value:     v,
				Unit:      m.Unit,
				Quality:   q,
			})
		}
	}
	return batch, nil
}

// sampleValue extracts the numeric value of a gauge, counter, or untyped
// sample. Returns NaN for samples of other kinds.
func sampleValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return math.NaN()
}
