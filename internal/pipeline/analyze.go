package pipeline

import (
	"context"
	"fmt"
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

const noRelevantNews = "No relevant market news found."

// Analyzer turns the upstream records into a narrative: sentiment counts, key
// events, an external-factor headline and a templated summary. All string
// interpolation, no generative step.
type Analyzer struct {
	api interfaces.CompanyAPI
	now func() time.Time
}

func NewAnalyzer(api interfaces.CompanyAPI) *Analyzer {
	return &Analyzer{api: api, now: time.Now}
}

func (a *Analyzer) Analyze(ctx context.Context, ticker, companyName, tf string,
	news types.TickerNews, change types.TickerPriceChange, price types.TickerPrice) types.TickerAnalysis {

	ctx, span := trace.StartSpan(ctx, "analyze-ticker")
	defer span.End()

	errRecord := func(msg string) types.TickerAnalysis {
		return types.TickerAnalysis{Ticker: ticker, Timeframe: tf, Error: msg}
	}

	if strings.TrimSpace(ticker) == "" {
		return errRecord("No ticker provided in state")
	}
	if _, err := timeframe.Resolve(tf, a.now()); err != nil {
		return errRecord(err.Error())
	}
	if len(news.News) == 0 {
		return errRecord("No news articles available for analysis")
	}
	if change.PriceChange == nil {
		return errRecord("No price change data available")
	}
	if price.Price == nil {
		return errRecord("No current price data available")
	}

	sentiment := countSentiment(news.News)
	events := keyEvents(news.News, ticker, companyName, *change.PriceChange)
	factors := a.externalFactors(ctx, ticker, news.News)
	summary := buildSummary(ticker, companyName, *change.PriceChange, events, sentiment, factors)
	confidence := analysisConfidence(len(news.News), len(events))

	logger.Info(ctx, "Analysis generated", "ticker", ticker,
		"key_events", len(events), "confidence", confidence)

	return types.TickerAnalysis{
		Ticker:    ticker,
		Timeframe: tf,
		Analysis: &types.Analysis{
			Summary:         summary,
			Sentiment:       sentiment,
			KeyEvents:       events,
			ExternalFactors: factors,
			Confidence:      confidence,
		},
	}
}

func countSentiment(articles []types.NewsArticle) types.SentimentAnalysis {
	var s types.SentimentAnalysis
	for _, art := range articles {
		switch classifySentiment(art.Headline + " " + art.Summary) {
		case impactPositive:
			s.Positive++
		case impactNegative:
			s.Negative++
		default:
			s.Neutral++
		}
	}
	return s
}

// keyEvents applies the double gate: an article qualifies only if it mentions
// the ticker or company name, carries a non-neutral keyword, and either agrees
// with the price direction or the move exceeds 5% — a large enough move that
// any news plausibly explains it.
func keyEvents(articles []types.NewsArticle, ticker, companyName string, change types.PriceChange) []types.KeyEvent {
	direction := impactNegative
	if change.AbsoluteChange > 0 {
		direction = impactPositive
	}
	bigMove := math.Abs(change.PercentageChange) > 5

	events := []types.KeyEvent{}
	for _, art := range articles {
		text := strings.ToLower(art.Headline + " " + art.Summary)

		relevant := mentions(text, ticker, companyName)
		if !relevant {
			continue
		}

		impact := classifySentiment(text)
		if impact == impactNeutral {
			continue
		}
		if impact != direction && !bigMove {
			continue
		}

		events = append(events, types.KeyEvent{
			Date:     art.PublishedAt,
			Headline: art.Headline,
			Impact:   impact,
		})
	}
	return events
}

// externalFactors looks up the company's sector, maps it to topical keywords
// and reports the most recent qualifying headline — from company news first,
// then general market news. Profile or market-news failures degrade to the
// sentinel instead of failing the stage.
func (a *Analyzer) externalFactors(ctx context.Context, ticker string, companyNews []types.NewsArticle) string {
	keywords := generalKeywords
	profile, err := fetch.Retry(ctx, "company-profile", func(ctx context.Context) (types.CompanyProfile, error) {
		return a.api.Profile(ctx, ticker)
	})
	sector := "unknown"
	if err == nil && profile.Industry != "" {
		sector = profile.Industry
		keywords = keywordsForSector(profile.Industry)
	} else if err != nil {
		logger.Warn(ctx, "Profile lookup failed, using general keywords", "ticker", ticker, "error", err.Error())
	}

	// Articles arrive most-recent-first, so the first match is the freshest.
	if art, ok := firstMatch(companyNews, ticker, keywords); ok {
		return formatFactor(sector, art)
	}

	market, err := fetch.Retry(ctx, "market-news", func(ctx context.Context) ([]types.NewsArticle, error) {
		return a.api.MarketNews(ctx)
	})
	if err != nil {
		logger.Warn(ctx, "Market news lookup failed", "ticker", ticker, "error", err.Error())
		return noRelevantNews
	}
	if art, ok := firstMatch(market, ticker, keywords); ok {
		return formatFactor(sector, art)
	}

	return noRelevantNews
}

// mentions reports whether lowercased text names the ticker or the company.
// Provider descriptions come back as full legal names ("TESLA INC") while
// headlines use the short form, so the name's first word counts too.
func mentions(text, ticker, companyName string) bool {
	if strings.Contains(text, strings.ToLower(ticker)) {
		return true
	}
	if companyName == "" {
		return false
	}
	name := strings.ToLower(companyName)
	if strings.Contains(text, name) {
		return true
	}
	if first, _, ok := strings.Cut(name, " "); ok && len(first) > 2 {
		return strings.Contains(text, first)
	}
	return false
}

func firstMatch(articles []types.NewsArticle, ticker string, keywords []string) (types.NewsArticle, bool) {
	for _, art := range articles {
		text := art.Headline + " " + art.Summary
		if containsAny(text, keywords) || strings.Contains(strings.ToLower(text), strings.ToLower(ticker)) {
			return art, true
		}
	}
	return types.NewsArticle{}, false
}

func formatFactor(sector string, art types.NewsArticle) string {
	return fmt.Sprintf("Sector context (%s): %q — %s, %s.", sector, art.Headline, art.Source, art.PublishedAt)
}

// buildSummary is a deterministic template: direction and magnitude, up to two
// key events, sentiment counts, then the external-factor sentence.
func buildSummary(ticker, companyName string, change types.PriceChange,
	events []types.KeyEvent, sentiment types.SentimentAnalysis, factors string) string {

	name := companyName
	if name == "" {
		name = ticker
	}

	direction := "dropped"
	if change.AbsoluteChange > 0 {
		direction = "rose"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) %s %.2f%% ($%.2f) from $%.2f to $%.2f over %s.",
		name, ticker, direction,
		math.Abs(change.PercentageChange), math.Abs(change.AbsoluteChange),
		change.StartPrice, change.EndPrice, change.Timeframe)

	for i, ev := range events {
		if i >= 2 {
			break
		}
		fmt.Fprintf(&b, " Key event (%s, %s): %s.", ev.Date, ev.Impact, ev.Headline)
	}

	fmt.Fprintf(&b, " News sentiment: %d positive, %d negative, %d neutral.",
		sentiment.Positive, sentiment.Negative, sentiment.Neutral)

	b.WriteString(" " + factors)

	return b.String()
}

// analysisConfidence is a bounded linear heuristic, capped at 0.9.
func analysisConfidence(newsCount, keyEventCount int) float64 {
	c := 0.5 + 0.05*float64(newsCount) + 0.1*float64(keyEventCount)
	return round2(math.Min(0.9, c))
}
