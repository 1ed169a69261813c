package health

import "sync"

// DefaultWindow is the number of recent acquisition outcomes tracked per
// source when the Tracker is built with a non-positive window.
const DefaultWindow = 20

// Tracker keeps a sliding window of acquisition outcomes per source and
// reports the availability percentage over that window.
//
// All methods are safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	window  int
	history map[string][]bool // circular buffer per source, newest last
}

// NewTracker returns a Tracker that remembers the last window outcomes.
func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		window:  window,
		history: make(map[string][]bool),
	}
}

// Record appends one acquisition outcome for the given source.
func (t *Tracker) Record(source string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.history[source]
	if len(h) >= t.window {
		h = h[1:]
	}
	t.history[source] = append(h, ok)
}

// AvailabilityPct returns the share of recorded outcomes that succeeded,
// in the range 0–100. A source with no history reports 100: it is assumed
// up until observed otherwise.
func (t *Tracker) AvailabilityPct(source string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.history[source]
	if len(h) == 0 {
		return 100
	}
	var ok int
	for _, s := range h {
		if s {
			ok++
		}
	}
	return float64(ok) / float64(len(h)) * 100
}

// Overall returns the availability percentage across every tracked source,
// or 100 when nothing has been recorded yet.
func (t *Tracker) Overall() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ok, total int
	for _, h := range t.history {
		for _, s := range h {
			total++
			if s {
				ok++
			}
		}
	}
	if total == 0 {
		return 100
	}
	return float64(ok) / float64(total) * 100
}
