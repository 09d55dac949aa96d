package feed

import "sort"

// latencyWindow aggregates per-message processing latencies over a bounded
// sample window, evicting the oldest sample once full. Mean and 99th
// percentile always reflect exactly the retained samples.
type latencyWindow struct {
	capacity int
	samples  []float64 // microseconds
	sum      float64
}

func newLatencyWindow(capacity int) *latencyWindow {
	return &latencyWindow{capacity: capacity}
}

func (w *latencyWindow) observe(micros float64) {
	w.samples = append(w.samples, micros)
	w.sum += micros
	if len(w.samples) > w.capacity {
		w.sum -= w.samples[0]
		w.samples = w.samples[1:]
	}
}

func (w *latencyWindow) mean() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return w.sum / float64(len(w.samples))
}

// p99 sorts a copy of the retained samples and picks index floor(0.99*n).
func (w *latencyWindow) p99() float64 {
	n := len(w.samples)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, w.samples)
	sort.Float64s(sorted)
	idx := int(0.99 * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
