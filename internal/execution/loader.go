package execution

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Series holds parallel price and volume observations loaded from disk,
// ready to hand to ExecuteTWAP or ExecuteVWAP.
type Series struct {
	Prices  []float64
	Volumes []float64
}

// LoadSeries reads a CSV file with a header row and extracts the close price
// and volume columns (matched case-insensitively as "close"/"price" and
// "volume"). Rows with unparseable numbers are skipped.
func LoadSeries(path string) (Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open series: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return Series{}, fmt.Errorf("read header: %w", err)
	}

	priceCol, volumeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "close", "price":
			priceCol = i
		case "volume":
			volumeCol = i
		}
	}
	if priceCol < 0 {
		return Series{}, fmt.Errorf("no close/price column in %s", path)
	}

	var series Series
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		if priceCol >= len(record) {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[priceCol]), 64)
		if err != nil {
			continue
		}
		volume := 0.0
		if volumeCol >= 0 && volumeCol < len(record) {
			// Missing or malformed volume is treated as zero, not fatal.
			if v, err := strconv.ParseFloat(strings.TrimSpace(record[volumeCol]), 64); err == nil {
				volume = v
			}
		}
		series.Prices = append(series.Prices, price)
		series.Volumes = append(series.Volumes, volume)
	}
	return series, nil
}
