package api

import (
	"slices"
	"sync"
	"time"

	"github.com/chumsley/keynote-summary/internal/render"
)

type renderSample struct {
	at       time.Time
	duration time.Duration
	format   render.Format
	slides   int
	failed   bool
}

// StatsSnapshot aggregates the renders seen within the stats window.
type StatsSnapshot struct {
	Renders  int            `json:"renders"`
	Failures int            `json:"failures"`
	Slides   int            `json:"slides"`
	ByFormat map[string]int `json:"by_format"`
	MinMs    int64          `json:"min_ms"`
	MaxMs    int64          `json:"max_ms"`
	AvgMs    float64        `json:"avg_ms"`
	P50Ms    float64        `json:"p50_ms"`
	P95Ms    float64        `json:"p95_ms"`
	P99Ms    float64        `json:"p99_ms"`
}

// RenderStats keeps render outcomes for a rolling window.
type RenderStats struct {
	mu      sync.Mutex
	samples []renderSample
	window  time.Duration
	now     func() time.Time
}

func NewRenderStats(window time.Duration) *RenderStats {
	if window <= 0 {
		window = time.Hour
	}
	return &RenderStats{window: window, now: time.Now}
}

// Record adds one render. Failed renders count toward Failures but not
// toward latency or slide totals.
func (s *RenderStats) Record(format render.Format, d time.Duration, slides int, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, renderSample{
		at:       now,
		duration: max(d, 0),
		format:   format,
		slides:   slides,
		failed:   failed,
	})
}

func (s *RenderStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	snap := StatsSnapshot{ByFormat: map[string]int{}}

	var ms []int64
	var sum int64
	for _, sm := range s.samples {
		if sm.failed {
			snap.Failures++
			continue
		}
		snap.Renders++
		snap.Slides += sm.slides
		snap.ByFormat[string(sm.format)]++
		v := sm.duration.Milliseconds()
		ms = append(ms, v)
		sum += v
	}
	if len(ms) == 0 {
		return snap
	}
	slices.Sort(ms)

	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(sum) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	return snap
}

func (s *RenderStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm renderSample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
