package market

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/types"
)

// Scraper pulls headlines off public finance pages. It is the degraded news
// path: the pipeline only reaches for it after the company-news API exhausted
// its retries with nothing to show.
type Scraper struct {
	sources []NewsSource
	timeout time.Duration
}

// NewsSource defines one scrapeable page and its CSS selectors.
type NewsSource struct {
	Name       string
	BaseURL    string
	SearchPath string // {symbol} is replaced with the ticker
	Selectors  ArticleSelectors
}

type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

func defaultSources() []NewsSource {
	return []NewsSource{
		{
			Name:       "Finviz",
			BaseURL:    "https://finviz.com",
			SearchPath: "/quote.ashx?t={symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "table.fullview-news-outer tr",
				Title:            "a.tab-link-news",
				URL:              "a.tab-link-news",
			},
		},
		{
			Name:       "StockAnalysis",
			BaseURL:    "https://stockanalysis.com",
			SearchPath: "/stocks/{symbol}/",
			Selectors: ArticleSelectors{
				ArticleContainer: "div.news-article",
				Title:            "h3 a",
				URL:              "h3 a",
			},
		},
	}
}

// ScrapeHeadlines collects up to max headlines for symbol, stopping at the
// first source that produced anything.
func (s *Scraper) ScrapeHeadlines(ctx context.Context, symbol string, max int) ([]types.NewsArticle, error) {
	for _, source := range s.sources {
		articles, err := s.scrapeSource(ctx, source, symbol, max)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
			continue
		}
		if len(articles) > 0 {
			logger.Info(ctx, "Scraper fallback produced headlines", "source", source.Name, "symbol", symbol, "articles", len(articles))
			return articles, nil
		}
	}
	return nil, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source NewsSource, symbol string, max int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}
	scraped := time.Now().UTC().Format("2006-01-02")

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(articles) >= max {
			return
		}

		title := strings.TrimSpace(e.ChildText(source.Selectors.Title))
		if title == "" {
			return
		}

		articleURL := e.ChildAttr(source.Selectors.URL, "href")
		if articleURL != "" && !strings.HasPrefix(articleURL, "http") {
			articleURL = source.BaseURL + articleURL
		}

		articles = append(articles, types.NewsArticle{
			Headline:    title,
			Source:      source.Name,
			PublishedAt: scraped,
			URL:         articleURL,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", strings.ToUpper(symbol))
	if err := c.Visit(searchURL); err != nil {
		return nil, err
	}
	c.Wait()

	return articles, nil
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
