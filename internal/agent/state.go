package agent

import (
	"encoding/json"
	"fmt"

	"stock-analyzer/internal/pipeline"
	"stock-analyzer/internal/types"
)

// Fixed state keys the agent shell files each stage's output under.
const (
	KeyTickerIdentification = "ticker_identification"
	KeyTickerNews           = "ticker_news"
	KeyTickerPrice          = "ticker_price"
	KeyTickerPriceChange    = "ticker_price_change"
	KeyTickerAnalysis       = "ticker_analysis"
)

// Encode lays the pipeline result out as the shared state mapping, one record
// per stage key. Every key is always present, populated or error record alike.
func Encode(res pipeline.Result) map[string]any {
	return map[string]any{
		KeyTickerIdentification: res.Identification,
		KeyTickerNews:           res.News,
		KeyTickerPrice:          res.Price,
		KeyTickerPriceChange:    res.PriceChange,
		KeyTickerAnalysis:       res.Analysis,
	}
}

// Upstream is what the analysis stage sees of the earlier stages.
type Upstream struct {
	Identification types.TickerIdentification
	News           types.TickerNews
	Price          types.TickerPrice
	PriceChange    types.TickerPriceChange
}

// DecodeUpstream is the single deserialization boundary for state coming back
// from the agent shell, which may hold either typed values or JSON-encoded
// strings. Beyond this point everything is a typed record.
func DecodeUpstream(state map[string]any) (Upstream, error) {
	var up Upstream
	if err := decodeKey(state, KeyTickerIdentification, &up.Identification); err != nil {
		return Upstream{}, err
	}
	if err := decodeKey(state, KeyTickerNews, &up.News); err != nil {
		return Upstream{}, err
	}
	if err := decodeKey(state, KeyTickerPrice, &up.Price); err != nil {
		return Upstream{}, err
	}
	if err := decodeKey(state, KeyTickerPriceChange, &up.PriceChange); err != nil {
		return Upstream{}, err
	}
	return up, nil
}

func decodeKey(state map[string]any, key string, v any) error {
	raw, ok := state[key]
	if !ok || raw == nil {
		return nil
	}

	var data []byte
	switch val := raw.(type) {
	case string:
		data = []byte(val)
	default:
		var err error
		data, err = json.Marshal(val)
		if err != nil {
			return fmt.Errorf("re-encode state key %s: %w", key, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON in state for %s: %w", key, err)
	}
	return nil
}
