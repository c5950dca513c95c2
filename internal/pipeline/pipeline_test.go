package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analyzer/internal/types"
)

func TestRunEndToEnd(t *testing.T) {
	api := &fakeCompanyAPI{}
	aggs := &fakeAggregatesAPI{bars: []types.Bar{
		{Close: 100}, {Close: 90}, {Close: 110},
	}}
	p := New(api, aggs, nil, 5)

	res := p.Run(context.Background(), "How did Tesla perform last week?", "Tesla", "last week")

	require.Empty(t, res.Identification.Error)
	assert.Equal(t, "TSLA", res.Identification.Ticker)
	assert.Equal(t, "Tesla Inc", res.Identification.CompanyName)
	assert.Equal(t, confidencePrimaryEquity, res.Identification.Confidence)
	assert.Equal(t, "How did Tesla perform last week?", res.Identification.OriginalQuery)

	// every downstream record is keyed by the identified ticker
	assert.Equal(t, "TSLA", res.News.Ticker)
	assert.Equal(t, "TSLA", res.Price.Ticker)
	assert.Equal(t, "TSLA", res.PriceChange.Ticker)
	assert.Equal(t, "TSLA", res.Analysis.Ticker)

	require.Empty(t, res.News.Error)
	assert.Len(t, res.News.News, 2)

	require.Empty(t, res.Price.Error)
	require.NotNil(t, res.Price.Price)
	assert.Equal(t, 212.5, res.Price.Price.Current)

	require.Empty(t, res.PriceChange.Error)
	require.NotNil(t, res.PriceChange.PriceChange)
	assert.Equal(t, 10.0, res.PriceChange.PriceChange.PercentageChange)

	require.Empty(t, res.Analysis.Error)
	require.NotNil(t, res.Analysis.Analysis)
	assert.Contains(t, res.Analysis.Analysis.Summary, "Tesla Inc (TSLA) rose 10.00%")
}

func TestRunFailedIdentificationCascades(t *testing.T) {
	api := &fakeCompanyAPI{
		quoteFn: func(string) (types.Quote, error) {
			return types.Quote{Current: 0}, nil
		},
	}
	aggs := &fakeAggregatesAPI{}
	p := New(api, aggs, nil, 5)

	res := p.Run(context.Background(), "Tesla", "Tesla", "last week")

	assert.Contains(t, res.Identification.Error, "Invalid ticker TSLA")
	assert.Empty(t, res.Identification.Ticker)

	// downstream stages reject the empty ticker instead of calling out
	assert.Equal(t, "No ticker provided", res.News.Error)
	assert.Equal(t, "No ticker provided", res.Price.Error)
	assert.Equal(t, "No ticker provided", res.PriceChange.Error)
	assert.Equal(t, "No ticker provided in state", res.Analysis.Error)
	assert.Zero(t, api.newsCalls)
	assert.Zero(t, aggs.calls)
}

func TestRunStagePanicBecomesErrorRecord(t *testing.T) {
	api := &fakeCompanyAPI{
		companyNewsFn: func(string, time.Time, time.Time) ([]types.NewsArticle, error) {
			panic("boom")
		},
	}
	aggs := &fakeAggregatesAPI{bars: []types.Bar{{Close: 100}, {Close: 110}}}
	p := New(api, aggs, nil, 5)

	res := p.Run(context.Background(), "Tesla", "Tesla", "last week")

	assert.Equal(t, "Subagent failed: boom", res.News.Error)

	// the crash is contained to its stage
	require.Empty(t, res.Identification.Error)
	require.Empty(t, res.Price.Error)
	require.Empty(t, res.PriceChange.Error)
	assert.Equal(t, "No news articles available for analysis", res.Analysis.Error)
}
