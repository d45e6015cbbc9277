package market

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"finboard/internal/httpx"
)

// Provider is the part of Client the handlers use.
type Provider interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	News(ctx context.Context, ticker string, days int) ([]NewsItem, error)
	Metrics(ctx context.Context, ticker string) (map[string]string, error)
}

type SearchHandler struct {
	Provider Provider
	Logger   logrus.FieldLogger
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	results, err := h.Provider.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		if !errors.Is(err, ErrNoAPIKey) {
			h.Logger.WithError(err).Warn("symbol search failed")
		}
		results = []SearchResult{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

type NewsHandler struct {
	Provider Provider
	Logger   logrus.FieldLogger
}

func (h *NewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, _ := strconv.Atoi(q.Get("days"))
	news := FetchNews(r.Context(), h.Provider, h.Logger, q.Get("ticker"), days)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "news": news})
}

// FetchNews never fails from the caller's point of view: provider errors are
// logged and replaced by a placeholder item.
func FetchNews(ctx context.Context, p Provider, logger logrus.FieldLogger, ticker string, days int) []NewsItem {
	news, err := p.News(ctx, ticker, days)
	switch {
	case errors.Is(err, ErrNoAPIKey):
		return missingKeyNews()
	case err != nil:
		logger.WithError(err).WithField("ticker", ticker).Warn("news fetch failed")
		return unavailableNews()
	}
	return news
}

// boardStub is served in place of board data, which needs a paid plan.
var boardStub = []map[string]string{
	{"name": "Data Only in Paid API", "role": "Upgrade for full access"},
}

type FinancialsHandler struct {
	Provider Provider
	Logger   logrus.FieldLogger
}

func (h *FinancialsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(r.PathValue("kind"))
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		ticker = "AAPL"
	}

	if kind == "ratios" {
		data, err := h.Provider.Metrics(r.Context(), ticker)
		if err != nil && !errors.Is(err, ErrNoAPIKey) {
			h.Logger.WithError(err).WithField("ticker", ticker).Warn("metrics fetch failed")
		}
		if err == nil && len(data) > 0 {
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
			return
		}
	}

	if kind == "board" {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": boardStub, "stub": true})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
}
