package market

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"stock-analyzer/internal/fetch"
	"stock-analyzer/internal/timeframe"
	"stock-analyzer/internal/types"
)

// AggregatesKeyEnv names the credential for the historical-prices API.
const AggregatesKeyEnv = "POLYGON_API_KEY"

// AggregatesClient talks to the Polygon-style OHLC aggregates API.
type AggregatesClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewAggregatesClient(baseURL, apiKey string, requestsPerSecond float64) (*AggregatesClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s not found in environment", AggregatesKeyEnv)
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &AggregatesClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: fetch.NewClient(),
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

type rawAggsResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Results []struct {
		O  float64 `json:"o"`
		H  float64 `json:"h"`
		L  float64 `json:"l"`
		C  float64 `json:"c"`
		V  float64 `json:"v"`
		Ts int64   `json:"t"`
	} `json:"results"`
}

// Aggregates fetches one bar per resolution unit over [from, to]. A response
// without OK/DELAYED status or with no bars is a no-data failure.
func (c *AggregatesClient) Aggregates(ctx context.Context, symbol string, res timeframe.Resolution, from, to time.Time) ([]types.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fetch.Errorf(fetch.KindTransport, "rate limit wait: %v", err)
	}

	u := fmt.Sprintf("%s/aggs/ticker/%s/range/1/%s/%s/%s?apiKey=%s",
		c.baseURL, symbol, res, from.Format("2006-01-02"), to.Format("2006-01-02"), c.apiKey)

	var raw rawAggsResponse
	if err := fetch.GetJSON(ctx, c.httpClient, u, AggregatesKeyEnv, &raw); err != nil {
		return nil, err
	}

	if raw.Status != "OK" && raw.Status != "DELAYED" {
		msg := raw.Error
		if msg == "" {
			msg = fmt.Sprintf("status %q", raw.Status)
		}
		return nil, fetch.Errorf(fetch.KindNoData, "no valid price data: %s", msg)
	}
	if len(raw.Results) == 0 {
		return nil, fetch.Errorf(fetch.KindNoData, "no price bars returned for %s", symbol)
	}

	bars := make([]types.Bar, 0, len(raw.Results))
	for _, r := range raw.Results {
		bars = append(bars, types.Bar{
			Ts: r.Ts, Open: r.O, High: r.H, Low: r.L, Close: r.C, Vol: r.V,
		})
	}
	return bars, nil
}
