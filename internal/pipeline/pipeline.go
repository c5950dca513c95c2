package pipeline

import (
	"context"
	"fmt"

	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/types"
)

// Result accumulates one typed record per stage. The driver fills fields in
// pipeline order; later stages read earlier fields but never write them.
type Result struct {
	Identification types.TickerIdentification `json:"ticker_identification"`
	News           types.TickerNews           `json:"ticker_news"`
	Price          types.TickerPrice          `json:"ticker_price"`
	PriceChange    types.TickerPriceChange    `json:"ticker_price_change"`
	Analysis       types.TickerAnalysis       `json:"ticker_analysis"`
}

// Pipeline runs the five stages in fixed order. A failing stage yields an
// error record under its key; remaining stages still run against the empty
// upstream values.
type Pipeline struct {
	identifier *Identifier
	news       *NewsFetcher
	price      *PriceFetcher
	change     *ChangeCalculator
	analyzer   *Analyzer
}

func New(company interfaces.CompanyAPI, aggs interfaces.AggregatesAPI,
	scraper interfaces.HeadlineScraper, maxArticles int) *Pipeline {
	return &Pipeline{
		identifier: NewIdentifier(company),
		news:       NewNewsFetcher(company, scraper, maxArticles),
		price:      NewPriceFetcher(company),
		change:     NewChangeCalculator(aggs),
		analyzer:   NewAnalyzer(company),
	}
}

// Run executes one query end to end. searchTerm is the already-extracted
// company term; tf must be a supported timeframe string.
func (p *Pipeline) Run(ctx context.Context, query, searchTerm, tf string) Result {
	var res Result

	res.Identification = runStage(ctx, "identify_ticker", func(ctx context.Context) types.TickerIdentification {
		return p.identifier.Identify(ctx, query, searchTerm, tf)
	}, func(msg string) types.TickerIdentification {
		return types.TickerIdentification{Timeframe: tf, OriginalQuery: query, Error: msg}
	})
	ticker := res.Identification.Ticker
	logger.Stage(ctx, "identify_ticker", ticker, res.Identification.Error != "")

	res.News = runStage(ctx, "ticker_news", func(ctx context.Context) types.TickerNews {
		return p.news.Fetch(ctx, ticker, tf)
	}, func(msg string) types.TickerNews {
		return types.TickerNews{Ticker: ticker, News: []types.NewsArticle{}, Timeframe: tf, Error: msg}
	})
	logger.Stage(ctx, "ticker_news", ticker, res.News.Error != "")

	res.Price = runStage(ctx, "ticker_price", func(ctx context.Context) types.TickerPrice {
		return p.price.Fetch(ctx, ticker)
	}, func(msg string) types.TickerPrice {
		return types.TickerPrice{Ticker: ticker, Error: msg}
	})
	logger.Stage(ctx, "ticker_price", ticker, res.Price.Error != "")

	res.PriceChange = runStage(ctx, "ticker_price_change", func(ctx context.Context) types.TickerPriceChange {
		return p.change.Compute(ctx, ticker, tf)
	}, func(msg string) types.TickerPriceChange {
		return types.TickerPriceChange{Ticker: ticker, Error: msg}
	})
	logger.Stage(ctx, "ticker_price_change", ticker, res.PriceChange.Error != "")

	res.Analysis = runStage(ctx, "ticker_analysis", func(ctx context.Context) types.TickerAnalysis {
		return p.analyzer.Analyze(ctx, ticker, res.Identification.CompanyName, tf,
			res.News, res.PriceChange, res.Price)
	}, func(msg string) types.TickerAnalysis {
		return types.TickerAnalysis{Ticker: ticker, Timeframe: tf, Error: msg}
	})
	logger.Stage(ctx, "ticker_analysis", ticker, res.Analysis.Error != "")

	return res
}

// runStage isolates one stage: a panic becomes that stage's error record so a
// single crash never aborts the run.
func runStage[T any](ctx context.Context, name string, fn func(context.Context) T, errRecord func(string) T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("Subagent failed: %v", r)
			logger.Error(ctx, "Pipeline stage panicked", "stage", name, "panic", fmt.Sprint(r))
			out = errRecord(msg)
		}
	}()
	return fn(ctx)
}
