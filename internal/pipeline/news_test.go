package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analyzer/internal/types"
)

func TestNewsFetchCapsArticles(t *testing.T) {
	api := &fakeCompanyAPI{}
	f := NewNewsFetcher(api, nil, 1)

	out := f.Fetch(context.Background(), "TSLA", "last week")
	require.Empty(t, out.Error)
	require.Len(t, out.News, 1)
	assert.Equal(t, "Tesla shares surge on record deliveries", out.News[0].Headline)
	assert.Equal(t, "last week", out.Timeframe)
}

func TestNewsFetchBlankTicker(t *testing.T) {
	api := &fakeCompanyAPI{}
	f := NewNewsFetcher(api, nil, 5)

	out := f.Fetch(context.Background(), "", "last week")
	assert.Equal(t, "No ticker provided", out.Error)
	assert.NotNil(t, out.News)
	assert.Empty(t, out.News)
	assert.Zero(t, api.newsCalls)
}

func TestNewsFetchScraperFallbackOnEmptyAPIResult(t *testing.T) {
	api := &fakeCompanyAPI{
		companyNewsFn: func(string, time.Time, time.Time) ([]types.NewsArticle, error) {
			return nil, noDataErr("no news articles found for TSLA")
		},
	}
	scraper := &fakeScraper{articles: []types.NewsArticle{
		{Headline: "Tesla opens new factory", Source: "finviz.com", PublishedAt: "2025-05-22"},
	}}
	f := NewNewsFetcher(api, scraper, 5)

	out := f.Fetch(context.Background(), "TSLA", "last week")
	require.Empty(t, out.Error)
	require.Len(t, out.News, 1)
	assert.Equal(t, "Tesla opens new factory", out.News[0].Headline)
	// the API was retried to exhaustion before degrading
	assert.Equal(t, 3, api.newsCalls)
	assert.Equal(t, 1, scraper.calls)
}

func TestNewsFetchErrorWhenScraperAlsoEmpty(t *testing.T) {
	api := &fakeCompanyAPI{
		companyNewsFn: func(string, time.Time, time.Time) ([]types.NewsArticle, error) {
			return nil, noDataErr("no news articles found for TSLA")
		},
	}
	f := NewNewsFetcher(api, &fakeScraper{}, 5)

	out := f.Fetch(context.Background(), "TSLA", "last week")
	require.NotEmpty(t, out.Error)
	assert.Contains(t, out.Error, "no news articles found")
	assert.Empty(t, out.News)
}
