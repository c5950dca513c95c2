package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsOnThirdAttempt(t *testing.T) {
	attempts := 0
	v, err := Retry(context.Background(), "test-op", func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", Errorf(KindTransport, "boom %d", attempts)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, attempts)
}

func TestRetryExhaustsAndSleepsBetweenAttemptsOnly(t *testing.T) {
	attempts := 0
	start := time.Now()
	_, err := Retry(context.Background(), "test-op", func(ctx context.Context) (int, error) {
		attempts++
		return 0, Errorf(KindNoData, "nothing here")
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, MaxAttempts, attempts)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, KindNoData, KindOf(err))
	// two sleeps between three attempts, none after the last
	assert.GreaterOrEqual(t, elapsed, 2*RetryBackoff)
	assert.Less(t, elapsed, 3*RetryBackoff)
}

func TestRetryDoesNotRetryValidationErrors(t *testing.T) {
	attempts := 0
	start := time.Now()
	_, err := Retry(context.Background(), "test-op", func(ctx context.Context) (int, error) {
		attempts++
		return 0, Errorf(KindValidation, "bad input")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), RetryBackoff)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestKindOfDefaultsToTransport(t *testing.T) {
	assert.Equal(t, KindTransport, KindOf(assert.AnError))
}

func TestGetJSONDecodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"c": 101.5}`))
	}))
	defer srv.Close()

	var out struct {
		C float64 `json:"c"`
	}
	err := GetJSON(context.Background(), NewClient(), srv.URL, "TEST_KEY", &out)
	require.NoError(t, err)
	assert.Equal(t, 101.5, out.C)
}

func TestGetJSONClassifiesEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), NewClient(), srv.URL, "TEST_KEY", &struct{}{})
	require.Error(t, err)
	assert.Equal(t, KindNoData, KindOf(err))
}

func TestGetJSONClassifiesMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), NewClient(), srv.URL, "TEST_KEY", &struct{}{})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Contains(t, err.Error(), "malformed JSON")
}

func TestGetJSONClassifiesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), NewClient(), srv.URL, "TEST_KEY", &struct{}{})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Contains(t, err.Error(), "502")
}

func TestGetJSONDetectsLoginPageAsAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>401 Unauthorized</title></head><body>Please login.</body></html>`))
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), NewClient(), srv.URL, "POLYGON_API_KEY", &struct{}{})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Contains(t, err.Error(), "401 Unauthorized")
	assert.Contains(t, err.Error(), "POLYGON_API_KEY")
}

func TestGetJSONDetects401StatusAsAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), NewClient(), srv.URL, "FINNHUB_API_KEY", &struct{}{})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Contains(t, err.Error(), "FINNHUB_API_KEY")
}

func TestGetJSONNonJSONContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("all good"))
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), NewClient(), srv.URL, "TEST_KEY", &struct{}{})
	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Contains(t, err.Error(), "non-JSON")
}
