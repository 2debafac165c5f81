package perf

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is a single timing sample.
type Entry struct {
	Kind       EntryKind
	Path       string // "METHOD /route" for requests, driver op for queries
	StatusCode int
	DurationMs float64
	Timestamp  time.Time
}

// Collector keeps the most recent timing samples in a fixed-size ring.
// Record never blocks on aggregation; Snapshot does the work on read.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   int64
}

// NewCollector creates a collector holding up to size samples.
// PRE: size > 0 (non-positive falls back to DefaultRingSize)
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest sample when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
	c.total++
	c.mu.Unlock()
}

// TotalRecorded returns the number of samples ever recorded.
func (c *Collector) TotalRecorded() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// PathStat aggregates timing for one request route or query op.
type PathStat struct {
	Path  string  `json:"path"`
	Count int     `json:"count"`
	AvgMs float64 `json:"avgMs"`
	MaxMs float64 `json:"maxMs"`
	Errs  int     `json:"errors"`
}

// Snapshot is the aggregated view served on the admin perf endpoint.
type Snapshot struct {
	TotalRecorded int64      `json:"totalRecorded"`
	RequestP50Ms  float64    `json:"requestP50Ms"`
	RequestP95Ms  float64    `json:"requestP95Ms"`
	Requests      []PathStat `json:"requests"`
	Queries       []PathStat `json:"queries"`
}

// Snapshot aggregates samples newer than since, returning the topN slowest paths per kind.
// PRE: topN > 0
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	total := c.total
	c.mu.Unlock()

	reqs := map[string]*PathStat{}
	queries := map[string]*PathStat{}
	var durations []float64

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		bucket := queries
		if e.Kind == KindRequest {
			bucket = reqs
			durations = append(durations, e.DurationMs)
		}
		s, ok := bucket[e.Path]
		if !ok {
			s = &PathStat{Path: e.Path}
			bucket[e.Path] = s
		}
		s.AvgMs += e.DurationMs // running sum until finish()
		s.Count++
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
		if e.StatusCode >= 500 {
			s.Errs++
		}
	}

	snap := Snapshot{
		TotalRecorded: total,
		Requests:      finish(reqs, topN),
		Queries:       finish(queries, topN),
	}
	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
	}
	return snap
}

func finish(stats map[string]*PathStat, n int) []PathStat {
	out := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs /= float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AvgMs > out[j].AvgMs })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// percentile interpolates the p-th percentile of an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	idx := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
