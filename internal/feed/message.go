package feed

import (
	"encoding/json"

	"github.com/Hichemchir/execution-engine/internal/market"
)

// finnhubEnvelope is the outer shape of every inbound data message.
type finnhubEnvelope struct {
	Type string            `json:"type"`
	Data []json.RawMessage `json:"data"`
}

// finnhubTrade is one trade record inside a trade batch. Pointer fields let
// the normalizer tell "absent" from "zero" for the required fields.
type finnhubTrade struct {
	Symbol    *string  `json:"s"`
	Price     *float64 `json:"p"`
	Volume    *float64 `json:"v"`
	Timestamp *int64   `json:"t"`
}

// subscribeMsg is the outbound subscription control message.
type subscribeMsg struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// normalizeTrades parses a raw message as a trade batch and returns the
// ticks it contained. Records missing required fields are skipped, never
// fatal. A nil slice with ok=false means the message was not a trade batch.
func normalizeTrades(raw []byte) (ticks []market.Tick, ok bool) {
	var env finnhubEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if env.Type != "trade" {
		return nil, false
	}
	for _, rec := range env.Data {
		var trade finnhubTrade
		if err := json.Unmarshal(rec, &trade); err != nil {
			continue
		}
		if trade.Symbol == nil || trade.Price == nil || trade.Timestamp == nil {
			continue
		}
		volume := 0.0
		if trade.Volume != nil {
			volume = *trade.Volume
		}
		ticks = append(ticks, market.Tick{
			Symbol:    *trade.Symbol,
			Price:     *trade.Price,
			Volume:    volume,
			Timestamp: *trade.Timestamp,
			Venue:     market.VenueFinnhub,
		})
	}
	return ticks, true
}
