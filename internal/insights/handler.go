// Package insights serves the premium-only endpoints. Routes must be wrapped
// with auth.RequirePremium.
package insights

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"finboard/internal/httpx"
	"finboard/internal/market"
	"finboard/internal/sentiment"
)

const predictionNewsDays = 7

type NewsSource interface {
	News(ctx context.Context, ticker string, days int) ([]market.NewsItem, error)
}

type VerdictObserver interface {
	ObserveVerdict(label string)
}

type PredictionHandler struct {
	News     NewsSource
	Scorer   *sentiment.Scorer
	Observer VerdictObserver
	Logger   logrus.FieldLogger
}

type predictionRequest struct {
	Ticker string `json:"ticker"`
}

// ServeHTTP scores recent headlines for the ticker. When news cannot be
// fetched the verdict is no-data rather than an error.
func (h *PredictionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var in predictionRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ticker := market.Symbol(in.Ticker)
	if ticker == "" {
		ticker = "Unknown"
	}

	var items []sentiment.Item
	if ticker != "Unknown" {
		news, err := h.News.News(r.Context(), ticker, predictionNewsDays)
		if err != nil {
			h.Logger.WithError(err).WithField("ticker", ticker).Warn("prediction news unavailable")
		} else {
			items = market.SentimentItems(news)
		}
	}

	v := h.Scorer.Score(items)
	if h.Observer != nil {
		h.Observer.ObserveVerdict(string(v.Label))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"ticker":     ticker,
		"prediction": describe(ticker, v),
		"verdict":    v,
	})
}

func describe(ticker string, v sentiment.Verdict) string {
	if v.Label == sentiment.NoData {
		return fmt.Sprintf("**Sentiment for %s:** no recent headlines to score.", ticker)
	}
	return fmt.Sprintf("**Sentiment for %s:** %s (score %+d; %d bullish, %d bearish of %d headlines). Keyword heuristic, not investment advice.",
		ticker, v.Label, v.Score, v.Bullish, v.Bearish, v.Items)
}

type Indicator struct {
	Name        string `json:"name"`
	Correlation string `json:"correlation"`
	Impact      string `json:"impact"`
	Change      string `json:"change"`
}

// leadingIndicatorsStub is a fixed fixture; no indicator is computed.
var leadingIndicatorsStub = []Indicator{
	{Name: "Sector Momentum", Correlation: "0.85", Impact: "High", Change: "+2.1%"},
}

func LeadingIndicators(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"stub":       true,
		"indicators": leadingIndicatorsStub,
	})
}
