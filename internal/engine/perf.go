package engine

import (
	"sync"
	"time"
)

// perfAlpha is the smoothing factor of the compute-time moving average.
const perfAlpha = 0.1

// PerfSnapshot is a read-only copy of the engine's performance counters.
type PerfSnapshot struct {
	TotalComputations uint64        `json:"total_computations"`
	CacheHits         uint64        `json:"cache_hits"`
	CacheMisses       uint64        `json:"cache_misses"`
	AvgComputeTime    time.Duration `json:"avg_compute_time_ns"`
	LastUpdated       time.Time     `json:"last_updated"`
	CacheEntries      int           `json:"cache_entries"`
	ConfigGeneration  uint64        `json:"config_generation"`
}

type perfCounters struct {
	mu           sync.RWMutex
	computations uint64
	hits         uint64
	misses       uint64
	avg          float64 // nanoseconds
	lastUpdated  time.Time
}

func (p *perfCounters) recordComputation(d time.Duration, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.computations++
	if p.computations == 1 {
		p.avg = float64(d)
	} else {
		p.avg = perfAlpha*float64(d) + (1-perfAlpha)*p.avg
	}
	p.lastUpdated = at
}

func (p *perfCounters) recordLookup(hit bool, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if hit {
		p.hits++
	} else {
		p.misses++
	}
	p.lastUpdated = at
}

func (p *perfCounters) snapshot() PerfSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PerfSnapshot{
		TotalComputations: p.computations,
		CacheHits:         p.hits,
		CacheMisses:       p.misses,
		AvgComputeTime:    time.Duration(p.avg),
		LastUpdated:       p.lastUpdated,
	}
}
