package pipeline

import (
	"context"
	"strings"
	"time"

	"stock-analyzer/internal/fetch"
	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
)

// PriceFetcher retrieves the current point-in-time quote. A zero current price
// is the provider's "no data" signal and retried like a transient failure.
type PriceFetcher struct {
	api interfaces.CompanyAPI
}

func NewPriceFetcher(api interfaces.CompanyAPI) *PriceFetcher {
	return &PriceFetcher{api: api}
}

func (f *PriceFetcher) Fetch(ctx context.Context, ticker string) types.TickerPrice {
	ctx, span := trace.StartSpan(ctx, "fetch-ticker-price")
	defer span.End()

	if strings.TrimSpace(ticker) == "" {
		return types.TickerPrice{Ticker: ticker, Error: "No ticker provided"}
	}

	quote, err := fetch.Retry(ctx, "quote", func(ctx context.Context) (types.Quote, error) {
		q, err := f.api.Quote(ctx, ticker)
		if err != nil {
			return types.Quote{}, err
		}
		if q.Current == 0 {
			return types.Quote{}, fetch.Errorf(fetch.KindNoData, "no valid price data found for %s", ticker)
		}
		return q, nil
	})
	if err != nil {
		return types.TickerPrice{Ticker: ticker, Error: err.Error()}
	}

	logger.Info(ctx, "Quote fetched", "ticker", ticker, "current", quote.Current)

	return types.TickerPrice{
		Ticker: ticker,
		Price: &types.PriceData{
			Current: quote.Current,
			Open:    quote.Open,
			High:    quote.High,
			Low:     quote.Low,
		},
		Timestamp: time.Unix(quote.Ts, 0).UTC().Format("2006-01-02"),
	}
}
