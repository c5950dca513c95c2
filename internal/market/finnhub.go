package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"stock-analyzer/internal/fetch"
	"stock-analyzer/internal/types"
)

// CompanyKeyEnv names the credential for the company/ticker API. It shows up
// in authentication error messages so users know what to fix.
const CompanyKeyEnv = "FINNHUB_API_KEY"

// CompanyClient talks to the Finnhub-style search/quote/profile/news API.
// Each method performs exactly one paced GET; retrying lives with the caller.
type CompanyClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewCompanyClient fails fast when the credential is absent: a missing key is a
// configuration error, not something to discover mid-pipeline.
func NewCompanyClient(baseURL, apiKey string, requestsPerSecond float64) (*CompanyClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s not found in environment", CompanyKeyEnv)
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &CompanyClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: fetch.NewClient(),
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

func (c *CompanyClient) get(ctx context.Context, path string, params url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fetch.Errorf(fetch.KindTransport, "rate limit wait: %v", err)
	}
	params.Set("token", c.apiKey)
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	return fetch.GetJSON(ctx, c.httpClient, u, CompanyKeyEnv, v)
}

// Search runs the symbol-search endpoint. An empty result set is classified as
// a no-data failure so the retry path treats it like a transient error.
func (c *CompanyClient) Search(ctx context.Context, query string) ([]types.SymbolMatch, error) {
	var raw struct {
		Count  int                 `json:"count"`
		Result []types.SymbolMatch `json:"result"`
	}
	if err := c.get(ctx, "/search", url.Values{"q": []string{query}}, &raw); err != nil {
		return nil, err
	}
	if len(raw.Result) == 0 {
		return nil, fetch.Errorf(fetch.KindNoData, "no matching ticker found for %q", query)
	}
	return raw.Result, nil
}

func (c *CompanyClient) Quote(ctx context.Context, symbol string) (types.Quote, error) {
	var q types.Quote
	if err := c.get(ctx, "/quote", url.Values{"symbol": []string{symbol}}, &q); err != nil {
		return types.Quote{}, err
	}
	return q, nil
}

func (c *CompanyClient) Profile(ctx context.Context, symbol string) (types.CompanyProfile, error) {
	var p types.CompanyProfile
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": []string{symbol}}, &p); err != nil {
		return types.CompanyProfile{}, err
	}
	return p, nil
}

// rawNewsItem is the provider's news shape; Datetime is unix seconds.
type rawNewsItem struct {
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Datetime int64  `json:"datetime"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

func newsArticles(items []rawNewsItem) []types.NewsArticle {
	articles := make([]types.NewsArticle, 0, len(items))
	for _, item := range items {
		articles = append(articles, types.NewsArticle{
			Headline:    item.Headline,
			Source:      item.Source,
			PublishedAt: time.Unix(item.Datetime, 0).UTC().Format("2006-01-02"),
			Summary:     item.Summary,
			URL:         item.URL,
		})
	}
	return articles
}

// CompanyNews fetches articles for symbol in [from, to], API order preserved
// (most recent first).
func (c *CompanyClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]types.NewsArticle, error) {
	var raw []rawNewsItem
	params := url.Values{
		"symbol": []string{symbol},
		"from":   []string{from.Format("2006-01-02")},
		"to":     []string{to.Format("2006-01-02")},
	}
	if err := c.get(ctx, "/company-news", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fetch.Errorf(fetch.KindNoData, "no news articles found for %s", symbol)
	}
	return newsArticles(raw), nil
}

// MarketNews fetches general market headlines, used by the external-factor
// lookup when company news has no sector match.
func (c *CompanyClient) MarketNews(ctx context.Context) ([]types.NewsArticle, error) {
	var raw []rawNewsItem
	if err := c.get(ctx, "/news", url.Values{"category": []string{"general"}}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fetch.Errorf(fetch.KindNoData, "no general market news available")
	}
	return newsArticles(raw), nil
}
