package interfaces

import (
	"context"
	"time"

	"stock-analyzer/internal/timeframe"
	"stock-analyzer/internal/types"
)

// CompanyAPI is the symbol-search/quote/news provider surface the pipeline
// consumes. Implementations perform a single attempt per call; retrying is the
// caller's concern.
type CompanyAPI interface {
	Search(ctx context.Context, query string) ([]types.SymbolMatch, error)
	Quote(ctx context.Context, symbol string) (types.Quote, error)
	Profile(ctx context.Context, symbol string) (types.CompanyProfile, error)
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]types.NewsArticle, error)
	MarketNews(ctx context.Context) ([]types.NewsArticle, error)
}

// AggregatesAPI serves historical OHLC bars.
type AggregatesAPI interface {
	Aggregates(ctx context.Context, symbol string, res timeframe.Resolution, from, to time.Time) ([]types.Bar, error)
}

// HeadlineScraper is the degraded news source used when the company-news API
// comes back empty.
type HeadlineScraper interface {
	ScrapeHeadlines(ctx context.Context, symbol string, max int) ([]types.NewsArticle, error)
}
