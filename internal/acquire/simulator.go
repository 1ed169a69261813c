package acquire

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/reading"
)

// Flakiness rates of the simulated acquisition, matching what real
// OPC UA / Modbus deployments exhibit.
const (
	missingRate   = 0.03  // readings that arrive without a value
	spikeRate     = 0.01  // sudden ±10σ excursions
	duplicateRate = 0.005 // rows duplicated by the transport
	jitterShare   = 0.1   // timestamp jitter as a share of the interval
)

// Defaults applied when the source config leaves them zero.
const (
	defaultReadingsPerBatch = 30
	defaultReadingInterval  = time.Second
)

// simulator produces flaky industrial sensor batches. Each ReadBatch covers
// the time range following the previous one, so consecutive batches form a
// continuous series.
//
// Safe for concurrent use, though reads are serialized: the generator state
// advances with every call.
type simulator struct {
	mu       sync.Mutex
	src      config.Source
	rng      *rand.Rand
	start    time.Time
	reads    int
	readings int
	interval time.Duration
}

func newSimulator(src config.Source) *simulator {
	seed := src.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	readings := src.Readings
	if readings <= 0 {
		readings = defaultReadingsPerBatch
	}
	interval := src.Interval
	if interval <= 0 {
		interval = defaultReadingInterval
	}
	return &simulator{
		src:      src,
		rng:      rand.New(rand.NewSource(seed)),
		start:    time.Now().UTC(),
		readings: readings,
		interval: interval,
	}
}

// ReadBatch simulates one acquisition attempt. With probability DropoutRate
// the connection "drops" and no batch is produced.
func (s *simulator) ReadBatch(_ context.Context) (reading.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.rng.Float64() < s.src.DropoutRate {
		return nil, fmt.Errorf("simulated connection dropout at read #%d", s.reads)
	}

	base := s.start.Add(time.Duration(s.reads-1) * time.Duration(s.readings) * s.interval)
	batch := make(reading.Batch, 0, s.readings*len(s.src.Sensors))

	for i := 0; i < s.readings; i++ {
		ts := base.Add(time.Duration(i) * s.interval)
		jitter := time.Duration((s.rng.Float64()*2 - 1) * jitterShare * float64(s.interval))
		ts = ts.Add(jitter)

		for _, p := range s.src.Sensors {
			r := s.reading(ts, p)
			batch = append(batch, r)
			if s.rng.Float64() < duplicateRate {
				batch = append(batch, r)
			}
		}
	}

	s.shuffleSome(batch)
	return batch, nil
}

// reading produces one simulated measurement for profile p.
func (s *simulator) reading(ts time.Time, p config.SensorProfile) reading.Reading {
	r := reading.Reading{
		Timestamp: ts,
		Sensor:    p.Name,
		Unit:      p.Unit,
	}
	switch roll := s.rng.Float64(); {
	case roll < missingRate:
		r.Value = math.NaN()
		r.Quality = reading.QualityBad
	case roll < missingRate+spikeRate:
		sign := float64(1)
		if s.rng.Float64() < 0.5 {
			sign = -1
		}
		r.Value = p.Baseline + sign*p.Variance*10
		r.Quality = reading.QualityUncertain
	default:
		r.Value = p.Baseline + s.rng.NormFloat64()*p.Variance
		r.Quality = reading.QualityGood
	}
	return r
}

// shuffleSome swaps a few random pairs to simulate out-of-order arrival.
func (s *simulator) shuffleSome(batch reading.Batch) {
	if len(batch) <= 10 {
		return
	}
	swaps := 1 + s.rng.Intn(min(5, len(batch)/10))
	for i := 0; i < swaps; i++ {
		a := s.rng.Intn(len(batch))
		b := s.rng.Intn(len(batch))
		batch[a], batch[b] = batch[b], batch[a]
	}
}
