package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Providers struct {
		CompanyBaseURL    string  `yaml:"company_base_url"`
		AggregatesBaseURL string  `yaml:"aggregates_base_url"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"providers"`
	News struct {
		MaxArticles     int  `yaml:"max_articles"`
		ScraperFallback bool `yaml:"scraper_fallback"`
	} `yaml:"news"`
	Pipeline struct {
		DefaultTimeframe string `yaml:"default_timeframe"`
	} `yaml:"pipeline"`
	LLM struct {
		Provider    string  `yaml:"provider"` // OPENAI, CLAUDE or NONE
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`
}

func (c *Config) Validate() error {
	if c.Providers.CompanyBaseURL == "" {
		return fmt.Errorf("providers.company_base_url cannot be empty")
	}
	if c.Providers.AggregatesBaseURL == "" {
		return fmt.Errorf("providers.aggregates_base_url cannot be empty")
	}
	if c.News.MaxArticles < 1 || c.News.MaxArticles > 10 {
		return fmt.Errorf("news.max_articles must be between 1-10, got %d", c.News.MaxArticles)
	}
	if p := c.LLM.Provider; p != "" && p != "OPENAI" && p != "CLAUDE" && p != "NONE" {
		return fmt.Errorf("llm.provider must be 'OPENAI', 'CLAUDE' or 'NONE', got '%s'", p)
	}
	return nil
}

// Defaults returns a config usable without any config.yaml on disk.
func Defaults() *Config {
	var c Config
	c.Providers.CompanyBaseURL = "https://finnhub.io/api/v1"
	c.Providers.AggregatesBaseURL = "https://api.polygon.io/v2"
	c.Providers.RequestsPerSecond = 5
	c.News.MaxArticles = 5
	c.News.ScraperFallback = true
	c.Pipeline.DefaultTimeframe = "last week"
	c.LLM.Provider = "NONE"
	c.LLM.Model = "gpt-4o-mini"
	c.LLM.MaxTokens = 300
	c.LLM.Temperature = 0.1
	return &c
}

func LoadConfig(path string) (*Config, error) {
	c := Defaults()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	if c.Providers.RequestsPerSecond <= 0 {
		c.Providers.RequestsPerSecond = 5
	}
	if c.Pipeline.DefaultTimeframe == "" {
		c.Pipeline.DefaultTimeframe = "last week"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return c, nil
}
