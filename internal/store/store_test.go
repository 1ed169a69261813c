package store

import (
	"testing"
	"time"

	"github.com/plantpulse/plantpulse/internal/health"
	"github.com/plantpulse/plantpulse/internal/summary"
)

func snap(group string) Snapshot {
	return Snapshot{
		Group:   group,
		Metrics: summary.Metrics{Count: 10, Mean: 65.2},
		Health:  health.Output{Score: 91.5, State: health.StateHealthy},
	}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutAndGet(t *testing.T) {
	st := New(5 * time.Minute)
	st.Put(snap("temperature"))

	e, ok := st.Get("temperature")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Snapshot.Group != "temperature" {
		t.Errorf("Group: got %q, want temperature", e.Snapshot.Group)
	}
	if e.Snapshot.Metrics.Count != 10 {
		t.Errorf("Metrics.Count: got %d, want 10", e.Snapshot.Metrics.Count)
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(5 * time.Minute)
	_, ok := st.Get("unknown")
	if ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPut_Overwrites(t *testing.T) {
	st := New(5 * time.Minute)
	s1 := snap("pressure")
	s1.Health.State = health.StateHealthy
	s2 := snap("pressure")
	s2.Health.State = health.StateDegraded

	st.Put(s1)
	st.Put(s2)

	e, ok := st.Get("pressure")
	if !ok {
		t.Fatal("Get: expected entry after two Puts")
	}
	if e.Snapshot.Health.State != health.StateDegraded {
		t.Errorf("State: got %q, want degraded", e.Snapshot.Health.State)
	}
}

func TestList_ExcludesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute)) // stale
	st.Put(snap("old"))

	st.now = fixedClock(base) // live
	st.Put(snap("new"))

	st.now = fixedClock(base)
	entries := st.List()

	if len(entries) != 1 {
		t.Fatalf("List: got %d entries, want 1", len(entries))
	}
	if entries[0].Snapshot.Group != "new" {
		t.Errorf("List[0].Group: got %q, want new", entries[0].Snapshot.Group)
	}
}

func TestList_SortedByGroup(t *testing.T) {
	st := New(5 * time.Minute)
	for _, g := range []string{"vibration", "flow_rate", "temperature"} {
		st.Put(snap(g))
	}

	entries := st.List()
	want := []string{"flow_rate", "temperature", "vibration"}
	if len(entries) != len(want) {
		t.Fatalf("List: got %d entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Snapshot.Group != w {
			t.Errorf("List[%d].Group: got %q, want %q", i, entries[i].Snapshot.Group, w)
		}
	}
}

func TestCount_IncludesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(snap("old"))

	st.now = fixedClock(base)
	st.Put(snap("new"))

	if n := st.Count(); n != 2 {
		t.Errorf("Count: got %d, want 2", n)
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.Put(snap("old1"))
	st.Put(snap("old2"))

	st.now = fixedClock(base)
	st.Put(snap("live"))

	removed := st.Evict(base)
	if removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
}

func TestEvict_NoOp_AllLive(t *testing.T) {
	base := time.Now()
	st := New(5 * time.Minute)

	st.now = fixedClock(base)
	st.Put(snap("temperature"))

	removed := st.Evict(base)
	if removed != 0 {
		t.Errorf("Evict on live entry: removed %d, want 0", removed)
	}
}
