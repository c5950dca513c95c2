package types

// Every record carries an optional Error. When Error is non-empty the payload
// fields are zero and consumers must not read them. Records are built once and
// never mutated after return.

type TickerIdentification struct {
	CompanyName   string  `json:"company_name"`
	Ticker        string  `json:"ticker"`
	Confidence    float64 `json:"confidence"`
	Timeframe     string  `json:"timeframe"`
	OriginalQuery string  `json:"original_query"`
	Error         string  `json:"error,omitempty"`
}

type NewsArticle struct {
	Headline    string `json:"headline"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"` // YYYY-MM-DD
	Summary     string `json:"summary,omitempty"`
	URL         string `json:"url,omitempty"`
}

type TickerNews struct {
	Ticker    string        `json:"ticker"`
	News      []NewsArticle `json:"news"`
	Timeframe string        `json:"timeframe"`
	Error     string        `json:"error,omitempty"`
}

type PriceData struct {
	Current float64 `json:"current"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
}

type TickerPrice struct {
	Ticker    string     `json:"ticker"`
	Price     *PriceData `json:"price"`
	Timestamp string     `json:"timestamp,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type PriceChange struct {
	AbsoluteChange   float64 `json:"absolute_change"`
	PercentageChange float64 `json:"percentage_change"`
	StartPrice       float64 `json:"start_price"`
	EndPrice         float64 `json:"end_price"`
	Timeframe        string  `json:"timeframe"`
}

type TickerPriceChange struct {
	Ticker      string       `json:"ticker"`
	PriceChange *PriceChange `json:"price_change"`
	StartDate   string       `json:"start_date,omitempty"`
	EndDate     string       `json:"end_date,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// SentimentAnalysis holds per-class article counts. The three counts sum to the
// number of articles considered.
type SentimentAnalysis struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

type KeyEvent struct {
	Date     string `json:"date"`
	Headline string `json:"headline"`
	Impact   string `json:"impact"` // positive | negative | neutral
}

type Analysis struct {
	Summary         string            `json:"summary"`
	Sentiment       SentimentAnalysis `json:"sentiment"`
	KeyEvents       []KeyEvent        `json:"key_events"`
	ExternalFactors string            `json:"external_factors"`
	Confidence      float64           `json:"confidence"`
}

type TickerAnalysis struct {
	Ticker    string    `json:"ticker"`
	Analysis  *Analysis `json:"analysis"`
	Timeframe string    `json:"timeframe"`
	Error     string    `json:"error,omitempty"`
}

// SymbolMatch is one candidate from the symbol-search endpoint.
type SymbolMatch struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Quote is a point-in-time quote. Ts is a unix timestamp in seconds.
type Quote struct {
	Current float64 `json:"c"`
	Open    float64 `json:"o"`
	High    float64 `json:"h"`
	Low     float64 `json:"l"`
	Ts      int64   `json:"t"`
}

type CompanyProfile struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Industry string `json:"finnhubIndustry"`
}

// Bar is one OHLC aggregate from the historical-prices API.
type Bar struct {
	Ts                     int64
	Open, High, Low, Close float64
	Vol                    float64
}
