package feed

import "github.com/Hichemchir/execution-engine/internal/market"

// tickHistory is a fixed-capacity chronological tick buffer for one symbol.
// Oldest entries are evicted first once capacity is reached.
type tickHistory struct {
	capacity int
	ticks    []market.Tick
}

func newTickHistory(capacity int) *tickHistory {
	return &tickHistory{capacity: capacity}
}

func (h *tickHistory) append(tk market.Tick) {
	h.ticks = append(h.ticks, tk)
	if len(h.ticks) > h.capacity {
		h.ticks = h.ticks[len(h.ticks)-h.capacity:]
	}
}

// recent copies out the most recent min(n, len) ticks in chronological order.
func (h *tickHistory) recent(n int) []market.Tick {
	if n > len(h.ticks) {
		n = len(h.ticks)
	}
	if n <= 0 {
		return nil
	}
	out := make([]market.Tick, n)
	copy(out, h.ticks[len(h.ticks)-n:])
	return out
}

func (h *tickHistory) len() int { return len(h.ticks) }
