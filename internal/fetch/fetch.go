package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"stock-analyzer/internal/logger"
)

// Retry policy shared by every fetcher. Sleeps happen between attempts, never
// after the last one.
const (
	MaxAttempts    = 3
	RetryBackoff   = 1 * time.Second
	RequestTimeout = 5 * time.Second
)

// Kind classifies a fetch failure. Validation errors are never retried;
// everything else goes through the generic retry path.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
	KindNoData     Kind = "no_data"
	KindAuth       Kind = "auth"
)

// Error is the typed failure every fetcher surfaces. Message is what ends up in
// a record's error field; Kind lets callers log structured failure information
// without parsing strings.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err, defaulting to transport for errors
// that did not come from this package.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransport
}

// Retry runs fn up to MaxAttempts times, sleeping RetryBackoff between failed
// attempts. Validation errors abort immediately. The last error is returned
// with the attempt count folded into its message.
func Retry[T any](ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if KindOf(err) == KindValidation {
			return zero, err
		}

		logger.Warn(ctx, "Fetch attempt failed", "op", op, "attempt", attempt, "kind", string(KindOf(err)), "error", err.Error())

		if attempt < MaxAttempts {
			select {
			case <-time.After(RetryBackoff):
			case <-ctx.Done():
				return zero, Errorf(KindTransport, "%s canceled: %v", op, ctx.Err())
			}
		}
	}

	return zero, &Error{
		Kind:    KindOf(lastErr),
		Message: fmt.Sprintf("failed after %d attempts: %s", MaxAttempts, lastErr.Error()),
	}
}

// NewClient returns the HTTP client every fetcher uses, with the fixed
// per-request timeout.
func NewClient() *http.Client {
	return &http.Client{Timeout: RequestTimeout}
}

// GetJSON performs one GET attempt and decodes the body into v. Transport
// errors, non-2xx statuses, empty bodies and non-JSON payloads are classified
// on the returned *Error. credEnv names the credential env var for the
// dedicated authentication message.
func GetJSON(ctx context.Context, client *http.Client, url, credEnv string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Errorf(KindTransport, "build request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Errorf(KindTransport, "request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Errorf(KindTransport, "read response: %v", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return authError(credEnv, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Errorf(KindTransport, "HTTP %d from provider", resp.StatusCode)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return Errorf(KindNoData, "empty response body")
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "application/json") {
		if looksLikeLoginPage(contentType, body) {
			return authError(credEnv, body)
		}
		return Errorf(KindTransport, "non-JSON response (Content-Type %q)", contentType)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return Errorf(KindTransport, "malformed JSON response: %v", err)
	}
	return nil
}

// looksLikeLoginPage detects the HTML-where-JSON-was-expected shape providers
// return on a bad or missing API key.
func looksLikeLoginPage(contentType string, body []byte) bool {
	if !strings.Contains(contentType, "text/html") && !bytes.HasPrefix(bytes.TrimSpace(body), []byte("<")) {
		return false
	}
	text := strings.ToLower(string(body))
	return strings.Contains(text, "401") ||
		strings.Contains(text, "unauthorized") ||
		strings.Contains(text, "login") ||
		strings.Contains(text, "sign in")
}

// authError builds the dedicated credential message, pulling the page title out
// of the HTML error body when one exists.
func authError(credEnv string, body []byte) *Error {
	detail := "authentication rejected"
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
			detail = title
		}
	}
	return Errorf(KindAuth, "%s; check the %s credential", detail, credEnv)
}
