package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/store"
	"stock-analyzer/internal/timeframe"
)

// Extraction is the company term and timeframe pulled out of a raw query. The
// pipeline tools never freeform-extract; this boundary owns it.
type Extraction struct {
	Company   string `json:"company"`
	Timeframe string `json:"timeframe"`
}

type Extractor interface {
	Extract(ctx context.Context, query string) (Extraction, error)
}

// NewExtractor picks the LLM extractor when a provider is configured and its
// key is present, otherwise the heuristic one.
func NewExtractor(cfg *store.Config) Extractor {
	switch strings.ToUpper(cfg.LLM.Provider) {
	case "OPENAI":
		if os.Getenv("OPENAI_API_KEY") != "" {
			return &LLMExtractor{cfg: cfg, provider: "OPENAI"}
		}
	case "CLAUDE":
		if os.Getenv("ANTHROPIC_API_KEY") != "" {
			return &LLMExtractor{cfg: cfg, provider: "CLAUDE"}
		}
	}
	return &HeuristicExtractor{}
}

// HeuristicExtractor scans the query for a quarter token or a known relative
// phrase, strips question/finance filler words, and treats the rest as the
// company term.
type HeuristicExtractor struct{}

var inlineQuarterPattern = regexp.MustCompile(`(?i)\b(\d{4})\s+q([1-4])\b`)

var fillerWords = map[string]bool{
	"how": true, "what": true, "why": true, "did": true, "does": true, "is": true,
	"was": true, "has": true, "have": true, "the": true, "a": true, "an": true,
	"in": true, "on": true, "of": true, "for": true, "to": true, "about": true,
	"stock": true, "share": true, "shares": true, "price": true, "perform": true,
	"performed": true, "performing": true, "doing": true, "do": true, "me": true,
	"happen": true, "happened": true,
	"tell": true, "show": true, "analyze": true, "analysis": true, "during": true,
	"over": true, "change": true, "changed": true, "move": true, "moved": true,
	"and": true, "its": true, "it": true, "this": true,
}

func (h *HeuristicExtractor) Extract(_ context.Context, query string) (Extraction, error) {
	ex := Extraction{Timeframe: timeframe.Default}

	rest := query
	if m := inlineQuarterPattern.FindString(query); m != "" {
		ex.Timeframe = strings.ToUpper(strings.Join(strings.Fields(m), " "))
		rest = strings.Replace(rest, m, " ", 1)
	} else {
		lower := strings.ToLower(query)
		for _, phrase := range timeframe.Phrases() {
			if idx := strings.Index(lower, phrase); idx >= 0 {
				ex.Timeframe = phrase
				rest = rest[:idx] + " " + rest[idx+len(phrase):]
				break
			}
		}
	}

	words := []string{}
	for _, w := range strings.Fields(rest) {
		clean := strings.Trim(w, "?.,!\"'")
		if clean == "" || fillerWords[strings.ToLower(clean)] {
			continue
		}
		words = append(words, clean)
	}
	if len(words) == 0 {
		return Extraction{}, errors.New("no company name identified in query")
	}

	ex.Company = strings.Join(words, " ")
	return ex, nil
}

// LLMExtractor asks a chat-completion model to do the same extraction,
// falling back to the heuristic on any failure.
type LLMExtractor struct {
	cfg      *store.Config
	provider string
}

func (l *LLMExtractor) Extract(ctx context.Context, query string) (Extraction, error) {
	prompt := l.buildPrompt(query)

	var content string
	var err error
	switch l.provider {
	case "OPENAI":
		content, err = l.completeOpenAI(ctx, prompt)
	case "CLAUDE":
		content, err = l.completeClaude(ctx, prompt)
	default:
		err = fmt.Errorf("unsupported LLM provider: %s", l.provider)
	}
	if err == nil {
		var ex Extraction
		if jsonErr := json.Unmarshal([]byte(strings.TrimSpace(content)), &ex); jsonErr != nil {
			err = fmt.Errorf("invalid JSON response: %w", jsonErr)
		} else if ex.Company == "" {
			err = errors.New("model returned no company")
		} else {
			if ex.Timeframe == "" || !timeframe.Valid(ex.Timeframe, time.Now()) {
				ex.Timeframe = timeframe.Default
			}
			return ex, nil
		}
	}

	logger.Warn(ctx, "LLM extraction failed, using heuristic extractor", "error", err.Error())
	return (&HeuristicExtractor{}).Extract(ctx, query)
}

func (l *LLMExtractor) buildPrompt(query string) string {
	return fmt.Sprintf(`Extract the company name and timeframe from this stock query.

Query: %s

Supported timeframes: %s. Use "last week" when the query names none.

Respond ONLY with valid JSON matching this schema:
{"company": "Tesla", "timeframe": "2024 Q2"}`, query, strings.Join(timeframe.Supported, ", "))
}

func (l *LLMExtractor) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	body := map[string]any{
		"model": l.cfg.LLM.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You extract structured fields from stock queries. Respond ONLY with valid JSON."},
			{"role": "user", "content": prompt},
		},
		"temperature": l.cfg.LLM.Temperature,
		"max_tokens":  l.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(bb))
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return r.Choices[0].Message.Content, nil
}

func (l *LLMExtractor) completeClaude(ctx context.Context, prompt string) (string, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return "", errors.New("ANTHROPIC_API_KEY missing")
	}

	body := map[string]any{
		"model":      l.cfg.LLM.Model,
		"max_tokens": l.cfg.LLM.MaxTokens,
		"system":     "You extract structured fields from stock queries. Respond ONLY with valid JSON.",
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	bb, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(ctx, "POST", "https://api.anthropic.com/v1/messages", bytes.NewReader(bb))
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("claude http %d", resp.StatusCode)
	}

	var r struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if len(r.Content) == 0 {
		return "", errors.New("no content")
	}
	return r.Content[0].Text, nil
}
