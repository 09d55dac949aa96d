// Binary slicer runs the execution engine offline: it loads a CSV price
// series and prints the TWAP or VWAP slice schedule for a parent order.
package main

import (
	"flag"
	"fmt"

	"github.com/Hichemchir/execution-engine/internal/execution"
	"github.com/Hichemchir/execution-engine/internal/market"
	"github.com/Hichemchir/execution-engine/internal/util"
)

func main() {
	dataPath := flag.String("data", "data/prices.csv", "CSV file with close price and volume columns")
	strategy := flag.String("strategy", "twap", "slicing strategy: twap or vwap")
	size := flag.Float64("size", 1000, "parent order size")
	direction := flag.String("direction", "buy", "order direction: buy or sell")
	numSlices := flag.Int("slices", 10, "number of child slices")
	start := flag.Int("start", 0, "start index into the price series")
	flag.Parse()

	log := util.NewLogger("info", true)

	series, err := execution.LoadSeries(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load series")
	}
	log.Info().Int("points", len(series.Prices)).Str("path", *dataPath).Msg("series loaded")

	order := market.Order{
		Size:      *size,
		Direction: market.Side(*direction),
		NumSlices: *numSlices,
	}

	var result market.ExecutionResult
	switch *strategy {
	case "twap":
		result, err = execution.ExecuteTWAP(series.Prices, order, *start)
	case "vwap":
		result, err = execution.ExecuteVWAP(series.Prices, series.Volumes, order, *start)
	default:
		log.Fatal().Str("strategy", *strategy).Msg("unknown strategy")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
	}

	fmt.Printf("%-6s %12s %12s %14s\n", "slice", "size", "price", "cost")
	for _, s := range result.Slices {
		fmt.Printf("%-6d %12.4f %12.4f %14.4f\n", s.Index, s.Size, s.Price, s.Cost)
	}
	fmt.Println()
	fmt.Printf("total cost      %14.4f\n", result.TotalCost)
	fmt.Printf("avg price       %14.4f\n", result.AvgPrice)
	fmt.Printf("benchmark price %14.4f\n", result.BenchmarkPrice)
	fmt.Printf("slippage        %11.1f bps\n", result.SlippageBps)

	if result.SlippageBps > 0 && order.Direction == market.Sell {
		// Slippage sign is side-agnostic; remind sell-side users.
		fmt.Println("note: positive bps means avg price above benchmark (favorable for sells)")
	}
}
