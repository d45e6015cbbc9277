package insights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finboard/internal/logging"
	"finboard/internal/market"
	"finboard/internal/sentiment"
)

type stubNews struct {
	items  []market.NewsItem
	err    error
	ticker string
}

func (s *stubNews) News(_ context.Context, ticker string, _ int) ([]market.NewsItem, error) {
	s.ticker = ticker
	return s.items, s.err
}

type countingObserver map[string]int

func (c countingObserver) ObserveVerdict(label string) { c[label]++ }

func predict(t *testing.T, h *PredictionHandler, body string) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ai_prediction", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPredictionScoresNews(t *testing.T) {
	src := &stubNews{items: []market.NewsItem{
		{Title: "Company beats profit expectations"},
		{Title: "Stock jumps on strong growth"},
	}}
	obs := countingObserver{}
	h := &PredictionHandler{
		News:     src,
		Scorer:   sentiment.MustScorer(sentiment.DefaultKeywords),
		Observer: obs,
		Logger:   logging.Discard(),
	}

	out := predict(t, h, `{"ticker":"NASDAQ:aapl"}`)
	require.Equal(t, "AAPL", src.ticker)
	require.Equal(t, "AAPL", out["ticker"])
	verdict := out["verdict"].(map[string]any)
	require.Equal(t, "strongly-bullish", verdict["label"])
	require.EqualValues(t, 2, verdict["score"])
	require.Contains(t, out["prediction"], "strongly-bullish")
	require.Equal(t, 1, obs["strongly-bullish"])
}

func TestPredictionDegradesToNoData(t *testing.T) {
	h := &PredictionHandler{
		News:   &stubNews{err: errors.New("boom")},
		Scorer: sentiment.MustScorer(sentiment.DefaultKeywords),
		Logger: logging.Discard(),
	}
	out := predict(t, h, `{"ticker":"AAPL"}`)
	require.Equal(t, "no-data", out["verdict"].(map[string]any)["label"])
	require.NotContains(t, out["prediction"], "boom")
}

func TestPredictionWithoutTicker(t *testing.T) {
	src := &stubNews{}
	h := &PredictionHandler{News: src, Scorer: sentiment.MustScorer(sentiment.DefaultKeywords), Logger: logging.Discard()}
	out := predict(t, h, `{}`)
	require.Equal(t, "Unknown", out["ticker"])
	require.Empty(t, src.ticker)
}

func TestLeadingIndicators(t *testing.T) {
	rec := httptest.NewRecorder()
	LeadingIndicators(rec, httptest.NewRequest(http.MethodGet, "/api/leading_indicators", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"stub":true,"indicators":[
		{"name":"Sector Momentum","correlation":"0.85","impact":"High","change":"+2.1%"}]}`, rec.Body.String())
}
