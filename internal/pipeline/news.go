package pipeline

import (
	"context"
	"strings"
	"time"

	"stock-analyzer/internal/fetch"
	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/timeframe"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
)

// NewsFetcher pulls company news for the resolved timeframe window. When the
// API exhausts its retries with no articles, it degrades to the headline
// scraper before giving up.
type NewsFetcher struct {
	api         interfaces.CompanyAPI
	scraper     interfaces.HeadlineScraper
	maxArticles int
	now         func() time.Time
}

func NewNewsFetcher(api interfaces.CompanyAPI, scraper interfaces.HeadlineScraper, maxArticles int) *NewsFetcher {
	return &NewsFetcher{api: api, scraper: scraper, maxArticles: maxArticles, now: time.Now}
}

func (f *NewsFetcher) Fetch(ctx context.Context, ticker, tf string) types.TickerNews {
	ctx, span := trace.StartSpan(ctx, "fetch-ticker-news")
	defer span.End()

	errRecord := func(msg string) types.TickerNews {
		return types.TickerNews{Ticker: ticker, News: []types.NewsArticle{}, Timeframe: tf, Error: msg}
	}

	if strings.TrimSpace(ticker) == "" {
		return errRecord("No ticker provided")
	}

	window, err := timeframe.Resolve(tf, f.now())
	if err != nil {
		return errRecord(err.Error())
	}

	articles, err := fetch.Retry(ctx, "company-news", func(ctx context.Context) ([]types.NewsArticle, error) {
		return f.api.CompanyNews(ctx, ticker, window.Start, window.End)
	})
	if err != nil {
		if fetch.KindOf(err) == fetch.KindNoData && f.scraper != nil {
			if scraped, scrapeErr := f.scraper.ScrapeHeadlines(ctx, ticker, f.maxArticles); scrapeErr == nil && len(scraped) > 0 {
				logger.Info(ctx, "Using scraped headlines after empty API result", "ticker", ticker, "articles", len(scraped))
				return types.TickerNews{Ticker: ticker, News: scraped, Timeframe: tf}
			}
		}
		return errRecord(err.Error())
	}

	if len(articles) > f.maxArticles {
		articles = articles[:f.maxArticles]
	}

	logger.Info(ctx, "News fetched", "ticker", ticker, "articles", len(articles))

	return types.TickerNews{Ticker: ticker, News: articles, Timeframe: tf}
}
