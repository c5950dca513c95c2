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

// Confidence is a fixed constant keyed to whether the preferred security type
// matched, not a statistically derived score.
const (
	confidencePrimaryEquity = 0.95
	confidenceFirstResult   = 0.90
	preferredSecurityType   = "Common Stock"
)

// Identifier resolves an already-extracted company term to a verified ticker.
// It does not freeform-extract company names from full queries; that belongs
// to the upstream agent shell.
type Identifier struct {
	api interfaces.CompanyAPI
	now func() time.Time
}

func NewIdentifier(api interfaces.CompanyAPI) *Identifier {
	return &Identifier{api: api, now: time.Now}
}

// Identify searches for searchTerm, prefers a common-stock match, then
// verifies the candidate with a quote lookup. A zero quote invalidates the
// candidate even though the search succeeded.
func (i *Identifier) Identify(ctx context.Context, query, searchTerm, tf string) types.TickerIdentification {
	ctx, span := trace.StartSpan(ctx, "identify-ticker")
	defer span.End()

	errRecord := func(msg string) types.TickerIdentification {
		return types.TickerIdentification{
			Timeframe:     tf,
			OriginalQuery: query,
			Error:         msg,
		}
	}

	if strings.TrimSpace(query) == "" {
		return errRecord("No query provided")
	}

	term := strings.TrimSpace(searchTerm)
	if term == "" {
		term = strings.TrimSpace(query)
	}
	if term == "" {
		return errRecord("No company name identified in query")
	}

	if _, err := timeframe.Resolve(tf, i.now()); err != nil {
		return errRecord(err.Error())
	}

	type candidate struct {
		match      types.SymbolMatch
		confidence float64
	}

	selected, err := fetch.Retry(ctx, "ticker-search", func(ctx context.Context) (candidate, error) {
		matches, err := i.api.Search(ctx, term)
		if err != nil {
			return candidate{}, err
		}
		for _, m := range matches {
			if m.Type == preferredSecurityType {
				return candidate{match: m, confidence: confidencePrimaryEquity}, nil
			}
		}
		return candidate{match: matches[0], confidence: confidenceFirstResult}, nil
	})
	if err != nil {
		return errRecord(err.Error())
	}

	// Verification: a search hit with no live quote is not a tradable ticker.
	quote, err := i.api.Quote(ctx, selected.match.Symbol)
	if err != nil {
		return errRecord("Invalid ticker " + selected.match.Symbol + ": " + err.Error())
	}
	if quote.Current == 0 {
		return errRecord("Invalid ticker " + selected.match.Symbol + ": no valid quote data")
	}

	logger.Info(ctx, "Ticker identified", "term", term, "ticker", selected.match.Symbol, "confidence", selected.confidence)

	return types.TickerIdentification{
		CompanyName:   selected.match.Description,
		Ticker:        selected.match.Symbol,
		Confidence:    selected.confidence,
		Timeframe:     tf,
		OriginalQuery: query,
	}
}
