package execution

import (
	"errors"
	"math"
	"testing"

	"github.com/Hichemchir/execution-engine/internal/market"
)

func TestExecuteVWAPScenario(t *testing.T) {
	prices := []float64{100, 101, 102, 103, 104}
	volumes := []float64{100, 101, 102, 103, 104}
	order := market.Order{Size: 1000, Direction: market.Buy, NumSlices: 5}

	result, err := ExecuteVWAP(prices, volumes, order, 0)
	if err != nil {
		t.Fatalf("ExecuteVWAP returned error: %v", err)
	}
	if len(result.Slices) != 5 {
		t.Fatalf("expected 5 slices, got %d", len(result.Slices))
	}

	var totalVolume, sizeSum, costSum float64
	for _, v := range volumes {
		totalVolume += v
	}
	for i, s := range result.Slices {
		want := order.Size * volumes[i] / totalVolume
		if !almostEqual(s.Size, want) {
			t.Fatalf("slice %d size %f, want %f", i, s.Size, want)
		}
		sizeSum += s.Size
		costSum += s.Cost
	}
	if !almostEqual(sizeSum, order.Size) {
		t.Fatalf("slice sizes sum to %f, want %f", sizeSum, order.Size)
	}
	if !almostEqual(costSum, result.TotalCost) {
		t.Fatalf("slice costs sum to %f, total cost %f", costSum, result.TotalCost)
	}
	if !almostEqual(result.AvgPrice, result.TotalCost/order.Size) {
		t.Fatalf("avg price %f, want total_cost/size %f", result.AvgPrice, result.TotalCost/order.Size)
	}
	if !almostEqual(result.BenchmarkPrice, 100) {
		t.Fatalf("benchmark %f, want 100", result.BenchmarkPrice)
	}
}

func TestExecuteVWAPZeroVolumeFallsBackToEqualAllocation(t *testing.T) {
	prices := []float64{100, 101, 102, 103, 104}
	volumes := []float64{0, 0, 0, 0, 0}
	order := market.Order{Size: 1000, Direction: market.Buy, NumSlices: 5}

	result, err := ExecuteVWAP(prices, volumes, order, 0)
	if err != nil {
		t.Fatalf("ExecuteVWAP returned error: %v", err)
	}
	for i, s := range result.Slices {
		if !almostEqual(s.Size, 200) {
			t.Fatalf("slice %d size %f, want equal share 200", i, s.Size)
		}
	}
}

func TestExecuteVWAPWindowRestrictedVolume(t *testing.T) {
	// Huge volumes outside the window must not dilute the allocation.
	prices := []float64{100, 100, 110, 120, 100}
	volumes := []float64{1e9, 1e9, 300, 100, 1e9}
	order := market.Order{Size: 400, Direction: market.Buy, NumSlices: 2}

	result, err := ExecuteVWAP(prices, volumes, order, 2)
	if err != nil {
		t.Fatalf("ExecuteVWAP returned error: %v", err)
	}
	if len(result.Slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(result.Slices))
	}
	if !almostEqual(result.Slices[0].Size, 300) {
		t.Fatalf("first slice size %f, want 300 (300/400 of order)", result.Slices[0].Size)
	}
	if !almostEqual(result.Slices[1].Size, 100) {
		t.Fatalf("second slice size %f, want 100", result.Slices[1].Size)
	}
	if !almostEqual(result.BenchmarkPrice, 110) {
		t.Fatalf("benchmark %f, want 110", result.BenchmarkPrice)
	}
}

func TestExecuteVWAPPartialWindow(t *testing.T) {
	prices := []float64{100, 101, 102}
	volumes := []float64{10, 20, 30}
	order := market.Order{Size: 600, Direction: market.Sell, NumSlices: 5}

	result, err := ExecuteVWAP(prices, volumes, order, 1)
	if err != nil {
		t.Fatalf("ExecuteVWAP returned error: %v", err)
	}
	if len(result.Slices) != 2 {
		t.Fatalf("expected clamped window of 2, got %d slices", len(result.Slices))
	}
	if !almostEqual(result.Slices[0].Size, 600*20.0/50.0) {
		t.Fatalf("first slice size %f, want 240", result.Slices[0].Size)
	}
}

func TestExecuteVWAPErrors(t *testing.T) {
	order := market.Order{Size: 100, Direction: market.Buy, NumSlices: 2}

	if _, err := ExecuteVWAP([]float64{1, 2}, []float64{1}, order, 0); !errors.Is(err, ErrSeriesLengthMismatch) {
		t.Fatalf("mismatched lengths: got %v, want ErrSeriesLengthMismatch", err)
	}
	if _, err := ExecuteVWAP([]float64{1, 2}, []float64{1, 1}, order, 5); !errors.Is(err, ErrStartOutOfRange) {
		t.Fatalf("start past end: got %v, want ErrStartOutOfRange", err)
	}
	zero := market.Order{Size: 100, Direction: market.Buy, NumSlices: 0}
	if _, err := ExecuteVWAP([]float64{1, 2}, []float64{1, 1}, zero, 0); !errors.Is(err, ErrEmptyWindow) {
		t.Fatalf("zero slices: got %v, want ErrEmptyWindow", err)
	}
}

func TestSlippageSignIsSideAgnostic(t *testing.T) {
	prices := []float64{100, 110}
	order := market.Order{Size: 200, Direction: market.Sell, NumSlices: 2}

	result, err := ExecuteTWAP(prices, order, 0)
	if err != nil {
		t.Fatalf("ExecuteTWAP returned error: %v", err)
	}
	// Average 105 above benchmark 100: positive bps even for a sell.
	if result.SlippageBps <= 0 {
		t.Fatalf("expected positive slippage for sell above benchmark, got %f", result.SlippageBps)
	}
	if math.Abs(result.SlippageBps-500) > tolerance {
		t.Fatalf("slippage %f bps, want 500", result.SlippageBps)
	}
}
