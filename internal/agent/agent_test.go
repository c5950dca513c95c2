package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analyzer/internal/pipeline"
	"stock-analyzer/internal/store"
	"stock-analyzer/internal/timeframe"
	"stock-analyzer/internal/types"
)

func TestHeuristicExtract(t *testing.T) {
	tests := []struct {
		query     string
		company   string
		timeframe string
	}{
		{"How did Tesla perform in 2024 Q2?", "Tesla", "2024 Q2"},
		{"How did Tesla stock do last week?", "Tesla", "last week"},
		{"analyze Apple over the last month", "Apple", "last month"},
		{"Microsoft", "Microsoft", timeframe.Default},
		{"What happened to Berkshire Hathaway today?", "Berkshire Hathaway", "today"},
	}

	h := &HeuristicExtractor{}
	for _, tt := range tests {
		ex, err := h.Extract(context.Background(), tt.query)
		require.NoError(t, err, tt.query)
		assert.Equal(t, tt.company, ex.Company, tt.query)
		assert.Equal(t, tt.timeframe, ex.Timeframe, tt.query)
	}
}

func TestHeuristicExtractNoCompany(t *testing.T) {
	h := &HeuristicExtractor{}

	_, err := h.Extract(context.Background(), "how did the stock do last week?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no company name identified")
}

func TestHeuristicExtractDefaultsTimeframe(t *testing.T) {
	h := &HeuristicExtractor{}

	ex, err := h.Extract(context.Background(), "Tesla")
	require.NoError(t, err)
	assert.Equal(t, timeframe.Default, ex.Timeframe)
}

func TestNewExtractorFallsBackToHeuristic(t *testing.T) {
	cfg := store.Defaults()
	cfg.LLM.Provider = "NONE"
	_, ok := NewExtractor(cfg).(*HeuristicExtractor)
	assert.True(t, ok)

	// configured provider without its key still degrades
	cfg.LLM.Provider = "OPENAI"
	t.Setenv("OPENAI_API_KEY", "")
	_, ok = NewExtractor(cfg).(*HeuristicExtractor)
	assert.True(t, ok)
}

func TestEncodeHasAllStateKeys(t *testing.T) {
	res := pipeline.Result{
		Identification: types.TickerIdentification{Ticker: "TSLA"},
	}

	state := Encode(res)
	for _, key := range []string{
		KeyTickerIdentification, KeyTickerNews, KeyTickerPrice,
		KeyTickerPriceChange, KeyTickerAnalysis,
	} {
		assert.Contains(t, state, key)
	}
	assert.Equal(t, res.Identification, state[KeyTickerIdentification])
}

func TestDecodeUpstreamAcceptsTypedAndJSONValues(t *testing.T) {
	state := map[string]any{
		KeyTickerIdentification: `{"company_name":"Tesla Inc","ticker":"TSLA","confidence":0.95,"timeframe":"last week","original_query":"Tesla"}`,
		KeyTickerNews: types.TickerNews{
			Ticker: "TSLA",
			News:   []types.NewsArticle{{Headline: "Tesla shares surge"}},
		},
		KeyTickerPriceChange: `{"ticker":"TSLA","price_change":{"absolute_change":10,"percentage_change":10,"start_price":100,"end_price":110,"timeframe":"last week"}}`,
	}

	up, err := DecodeUpstream(state)
	require.NoError(t, err)
	assert.Equal(t, "TSLA", up.Identification.Ticker)
	assert.Equal(t, 0.95, up.Identification.Confidence)
	require.Len(t, up.News.News, 1)
	require.NotNil(t, up.PriceChange.PriceChange)
	assert.Equal(t, 10.0, up.PriceChange.PriceChange.AbsoluteChange)

	// missing keys stay zero-valued
	assert.Nil(t, up.Price.Price)
}

func TestDecodeUpstreamRejectsBadJSON(t *testing.T) {
	_, err := DecodeUpstream(map[string]any{
		KeyTickerNews: `{not json`,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyTickerNews)
}
