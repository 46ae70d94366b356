// Package perf keeps a bounded in-memory window of request, query and
// email-send timings for the admin perf endpoint.
package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind says which layer produced an Entry.
type EntryKind uint8

const (
	KindRequest EntryKind = iota // inbound HTTP request
	KindQuery                    // SQLite statement
	KindSend                     // outbound email provider call
)

// Entry is one timing sample.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /api/articles", "SELECT articles" or "send resend"
	StatusCode int    // HTTP or provider status; 0 when unknown
	Failed     bool   // sends only
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring of entries. Record never blocks on
// aggregation; Snapshot does the work.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   atomic.Int64
}

// NewCollector returns a collector holding the last size entries.
// Non-positive sizes fall back to DefaultRingSize.
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry once the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded counts every Record call, including overwritten entries.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// Snapshot is the perf endpoint's JSON body.
type Snapshot struct {
	Since          time.Time  `json:"since"`
	TotalRecorded  int64      `json:"totalRecorded"`
	Requests       int        `json:"requests"`
	ServerErrors   int        `json:"serverErrors"`
	Queries        int        `json:"queries"`
	Sends          int        `json:"sends"`
	SendFailures   int        `json:"sendFailures"`
	RequestP50Ms   float64    `json:"requestP50Ms"`
	RequestP95Ms   float64    `json:"requestP95Ms"`
	RequestP99Ms   float64    `json:"requestP99Ms"`
	SendP95Ms      float64    `json:"sendP95Ms"`
	SlowestPaths   []PathStat `json:"slowestPaths"`
	SlowestQueries []PathStat `json:"slowestQueries"`
	SlowestSends   []PathStat `json:"slowestSends"`
}

// PathStat aggregates one request path, query label or provider.
type PathStat struct {
	Path    string  `json:"path"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   float64 `json:"maxMs"`
	Count   int     `json:"count"`
	TotalMs float64 `json:"totalMs"`
}

type group struct {
	stats     map[string]*PathStat
	durations []float64
}

func (g *group) add(e Entry) {
	if g.stats == nil {
		g.stats = make(map[string]*PathStat)
	}
	s, ok := g.stats[e.Path]
	if !ok {
		s = &PathStat{Path: e.Path}
		g.stats[e.Path] = s
	}
	s.Count++
	s.TotalMs += e.DurationMs
	s.AvgMs = s.TotalMs / float64(s.Count)
	s.MaxMs = max(s.MaxMs, e.DurationMs)
	g.durations = append(g.durations, e.DurationMs)
}

// slowest returns up to n stats ordered by average duration, slowest first.
func (g *group) slowest(n int) []PathStat {
	out := make([]PathStat, 0, len(g.stats))
	for _, s := range g.stats {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b PathStat) int {
		if c := cmp.Compare(b.AvgMs, a.AvgMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Snapshot aggregates entries at or after since. topN bounds each
// slowest list.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := slices.Clone(c.entries)
	c.mu.Unlock()

	var requests, queries, sends group
	snap := Snapshot{Since: since, TotalRecorded: c.TotalRecorded()}
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		switch e.Kind {
		case KindRequest:
			snap.Requests++
			if e.StatusCode >= 500 {
				snap.ServerErrors++
			}
			requests.add(e)
		case KindQuery:
			snap.Queries++
			queries.add(e)
		case KindSend:
			snap.Sends++
			if e.Failed {
				snap.SendFailures++
			}
			sends.add(e)
		}
	}

	snap.SlowestPaths = requests.slowest(topN)
	snap.SlowestQueries = queries.slowest(topN)
	snap.SlowestSends = sends.slowest(topN)

	slices.Sort(requests.durations)
	snap.RequestP50Ms = percentile(requests.durations, 50)
	snap.RequestP95Ms = percentile(requests.durations, 95)
	snap.RequestP99Ms = percentile(requests.durations, 99)
	slices.Sort(sends.durations)
	snap.SendP95Ms = percentile(sends.durations, 95)
	return snap
}

// percentile interpolates linearly between the closest ranks of a sorted
// slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(rank)), int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
