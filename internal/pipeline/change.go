package pipeline

import (
	"context"
	"math"
	"strings"
	"time"

	"stock-analyzer/internal/fetch"
	"stock-analyzer/internal/interfaces"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/timeframe"
	"stock-analyzer/internal/trace"
	"stock-analyzer/internal/types"
)

// ChangeCalculator derives the price change over a timeframe from aggregated
// OHLC bars.
type ChangeCalculator struct {
	aggs interfaces.AggregatesAPI
	now  func() time.Time
}

func NewChangeCalculator(aggs interfaces.AggregatesAPI) *ChangeCalculator {
	return &ChangeCalculator{aggs: aggs, now: time.Now}
}

func (c *ChangeCalculator) Compute(ctx context.Context, ticker, tf string) types.TickerPriceChange {
	ctx, span := trace.StartSpan(ctx, "compute-price-change")
	defer span.End()

	if strings.TrimSpace(ticker) == "" {
		return types.TickerPriceChange{Ticker: ticker, Error: "No ticker provided"}
	}

	window, err := timeframe.Resolve(tf, c.now())
	if err != nil {
		return types.TickerPriceChange{Ticker: ticker, Error: err.Error()}
	}
	fromDate, toDate := window.FromTo()

	errRecord := func(msg string) types.TickerPriceChange {
		return types.TickerPriceChange{Ticker: ticker, StartDate: fromDate, EndDate: toDate, Error: msg}
	}

	change, err := fetch.Retry(ctx, "price-aggregates", func(ctx context.Context) (types.PriceChange, error) {
		bars, err := c.aggs.Aggregates(ctx, ticker, window.Resolution, window.Start, window.End)
		if err != nil {
			return types.PriceChange{}, err
		}
		return changeFromBars(bars, window.SingleDay, tf)
	})
	if err != nil {
		return errRecord(err.Error())
	}

	logger.Info(ctx, "Price change computed", "ticker", ticker, "timeframe", tf,
		"absolute", change.AbsoluteChange, "percentage", change.PercentageChange)

	return types.TickerPriceChange{
		Ticker:      ticker,
		PriceChange: &change,
		StartDate:   fromDate,
		EndDate:     toDate,
	}
}

// changeFromBars picks the start/end prices per the timeframe convention: a
// single-day window uses that day's open and close; every multi-day window
// uses the first bar's close and the last bar's close. Using the first CLOSE
// rather than the window's open is deliberate and must not be "fixed".
func changeFromBars(bars []types.Bar, singleDay bool, tf string) (types.PriceChange, error) {
	var start, end float64

	if singleDay {
		last := bars[len(bars)-1]
		start, end = last.Open, last.Close
	} else {
		if len(bars) < 2 {
			return types.PriceChange{}, fetch.Errorf(fetch.KindNoData,
				"insufficient price data for the given timeframe (%d bars)", len(bars))
		}
		start, end = bars[0].Close, bars[len(bars)-1].Close
	}

	if start == 0 {
		return types.PriceChange{}, fetch.Errorf(fetch.KindValidation, "invalid start price data")
	}

	absolute := end - start
	percentage := 0.0
	if start != 0 {
		percentage = absolute / start * 100
	}

	return types.PriceChange{
		AbsoluteChange:   round2(absolute),
		PercentageChange: round2(percentage),
		StartPrice:       round2(start),
		EndPrice:         round2(end),
		Timeframe:        tf,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
