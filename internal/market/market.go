// Package market defines the data types shared between the feed handler and
// the execution engine.
package market

// VenueFinnhub labels ticks normalized from the Finnhub trade stream.
const VenueFinnhub = "FINNHUB"

// Tick is one normalized trade event. Immutable once constructed.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
	Timestamp int64   `json:"timestamp"` // provider epoch millis
	Venue     string  `json:"venue"`
}

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a buy-side parent order.
	Buy Side = "buy"
	// Sell indicates a sell-side parent order.
	Sell Side = "sell"
)

// Order is a parent order to be sliced by the execution engine.
type Order struct {
	Size      float64
	Direction Side
	NumSlices int
}

// ExecutionSlice is one child fill produced by a slicing strategy.
type ExecutionSlice struct {
	Index int // 1-based position within the execution window
	Size  float64
	Price float64
	Cost  float64 // Size * Price
}

// ExecutionResult is the full output of one slicing run: the chronological
// slice schedule plus summary metrics against the benchmark price.
type ExecutionResult struct {
	Slices         []ExecutionSlice
	TotalCost      float64
	AvgPrice       float64
	BenchmarkPrice float64
	SlippageBps    float64
}
