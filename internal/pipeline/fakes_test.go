package pipeline

import (
	"context"
	"time"

	"stock-analyzer/internal/fetch"
	"stock-analyzer/internal/timeframe"
	"stock-analyzer/internal/types"
)

// fakeCompanyAPI implements interfaces.CompanyAPI with overridable behavior.
// The defaults describe a healthy Tesla-shaped provider.
type fakeCompanyAPI struct {
	searchFn      func(query string) ([]types.SymbolMatch, error)
	quoteFn       func(symbol string) (types.Quote, error)
	profileFn     func(symbol string) (types.CompanyProfile, error)
	companyNewsFn func(symbol string, from, to time.Time) ([]types.NewsArticle, error)
	marketNewsFn  func() ([]types.NewsArticle, error)

	searchCalls int
	quoteCalls  int
	newsCalls   int
}

func (f *fakeCompanyAPI) Search(_ context.Context, query string) ([]types.SymbolMatch, error) {
	f.searchCalls++
	if f.searchFn != nil {
		return f.searchFn(query)
	}
	return []types.SymbolMatch{
		{Symbol: "TSLA", Description: "Tesla Inc", Type: "Common Stock"},
	}, nil
}

func (f *fakeCompanyAPI) Quote(_ context.Context, symbol string) (types.Quote, error) {
	f.quoteCalls++
	if f.quoteFn != nil {
		return f.quoteFn(symbol)
	}
	return types.Quote{Current: 212.5, Open: 210, High: 215, Low: 208, Ts: 1716400000}, nil
}

func (f *fakeCompanyAPI) Profile(_ context.Context, symbol string) (types.CompanyProfile, error) {
	if f.profileFn != nil {
		return f.profileFn(symbol)
	}
	return types.CompanyProfile{Name: "Tesla Inc", Ticker: symbol, Industry: "Automobiles"}, nil
}

func (f *fakeCompanyAPI) CompanyNews(_ context.Context, symbol string, from, to time.Time) ([]types.NewsArticle, error) {
	f.newsCalls++
	if f.companyNewsFn != nil {
		return f.companyNewsFn(symbol, from, to)
	}
	return []types.NewsArticle{
		{Headline: "Tesla shares surge on record deliveries", Source: "Reuters", PublishedAt: "2025-05-20", Summary: "Deliveries beat estimates."},
		{Headline: "Analysts cautious on EV demand", Source: "Bloomberg", PublishedAt: "2025-05-19"},
	}, nil
}

func (f *fakeCompanyAPI) MarketNews(_ context.Context) ([]types.NewsArticle, error) {
	if f.marketNewsFn != nil {
		return f.marketNewsFn()
	}
	return []types.NewsArticle{
		{Headline: "Fed holds rates steady", Source: "WSJ", PublishedAt: "2025-05-21"},
	}, nil
}

type fakeAggregatesAPI struct {
	bars  []types.Bar
	err   error
	calls int
}

func (f *fakeAggregatesAPI) Aggregates(_ context.Context, _ string, _ timeframe.Resolution, _, _ time.Time) ([]types.Bar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

type fakeScraper struct {
	articles []types.NewsArticle
	calls    int
}

func (f *fakeScraper) ScrapeHeadlines(context.Context, string, int) ([]types.NewsArticle, error) {
	f.calls++
	return f.articles, nil
}

func noDataErr(msg string) error {
	return fetch.Errorf(fetch.KindNoData, "%s", msg)
}
