// Package execution implements slice-scheduling strategies over a caller
// supplied price series. Every function here is pure: no state survives a
// call, and identical inputs always produce identical results, so concurrent
// use needs no coordination.
package execution

import (
	"errors"
	"math"

	"github.com/Hichemchir/execution-engine/internal/market"
)

var (
	// ErrStartOutOfRange reports a start index outside the price series.
	ErrStartOutOfRange = errors.New("execution: start index out of range")
	// ErrEmptyWindow reports an execution window with no price points.
	ErrEmptyWindow = errors.New("execution: empty execution window")
	// ErrSeriesLengthMismatch reports price and volume series of different lengths.
	ErrSeriesLengthMismatch = errors.New("execution: price and volume series length mismatch")
)

// slippageBps measures how far the realized average price landed from the
// benchmark, in basis points. Positive means the average exceeded the
// benchmark regardless of order direction; side-aware sign flips are left to
// the caller.
func slippageBps(avgPrice, benchmark float64) float64 {
	return (avgPrice - benchmark) / benchmark * 10000.0
}

// ExecuteTWAP splits the order into equal-size slices over the window
// [start, start+order.NumSlices), clamped to the end of the price series.
//
// Slice size is floor(order.Size / order.NumSlices); any remainder is
// deliberately not redistributed. The reported average price is the
// unweighted mean of the prices actually touched, and the benchmark is the
// price at the window start.
func ExecuteTWAP(prices []float64, order market.Order, start int) (market.ExecutionResult, error) {
	if start < 0 || start >= len(prices) {
		return market.ExecutionResult{}, ErrStartOutOfRange
	}
	if order.NumSlices <= 0 {
		return market.ExecutionResult{}, ErrEmptyWindow
	}

	end := start + order.NumSlices
	if end > len(prices) {
		end = len(prices)
	}

	sliceSize := math.Floor(order.Size / float64(order.NumSlices))

	result := market.ExecutionResult{
		Slices:         make([]market.ExecutionSlice, 0, end-start),
		BenchmarkPrice: prices[start],
	}

	var priceSum float64
	for i := start; i < end; i++ {
		price := prices[i]
		cost := sliceSize * price
		result.Slices = append(result.Slices, market.ExecutionSlice{
			Index: i - start + 1,
			Size:  sliceSize,
			Price: price,
			Cost:  cost,
		})
		result.TotalCost += cost
		priceSum += price
	}

	result.AvgPrice = priceSum / float64(len(result.Slices))
	result.SlippageBps = slippageBps(result.AvgPrice, result.BenchmarkPrice)
	return result, nil
}

// ExecuteVWAP allocates the order proportionally to observed volume over the
// window [start, start+order.NumSlices), clamped to the end of the series.
// The price and volume series must have equal lengths.
//
// Total volume is computed over the execution window only. When the window
// volume is exactly zero every slice receives an equal 1/n share instead.
// Slice sizes stay fractional; rounding to a tradable unit is the caller's
// policy. The reported average price is notional-weighted:
// TotalCost / order.Size.
func ExecuteVWAP(prices, volumes []float64, order market.Order, start int) (market.ExecutionResult, error) {
	if len(prices) != len(volumes) {
		return market.ExecutionResult{}, ErrSeriesLengthMismatch
	}
	if start < 0 || start >= len(prices) {
		return market.ExecutionResult{}, ErrStartOutOfRange
	}
	if order.NumSlices <= 0 {
		return market.ExecutionResult{}, ErrEmptyWindow
	}

	end := start + order.NumSlices
	if end > len(prices) {
		end = len(prices)
	}
	windowSize := end - start

	var totalVolume float64
	for i := start; i < end; i++ {
		totalVolume += volumes[i]
	}

	result := market.ExecutionResult{
		Slices:         make([]market.ExecutionSlice, 0, windowSize),
		BenchmarkPrice: prices[start],
	}

	for i := start; i < end; i++ {
		fraction := 1.0 / float64(windowSize)
		if totalVolume > 0 {
			fraction = volumes[i] / totalVolume
		}
		size := order.Size * fraction
		price := prices[i]
		cost := size * price
		result.Slices = append(result.Slices, market.ExecutionSlice{
			Index: i - start + 1,
			Size:  size,
			Price: price,
			Cost:  cost,
		})
		result.TotalCost += cost
	}

	result.AvgPrice = result.TotalCost / order.Size
	result.SlippageBps = slippageBps(result.AvgPrice, result.BenchmarkPrice)
	return result, nil
}
