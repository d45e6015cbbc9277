// Package market talks to the Finnhub market-data API.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	maxNewsItems     = 15
	maxSearchResults = 10
	defaultNewsDays  = 7
	maxNewsDays      = 365
)

var (
	ErrNoAPIKey = errors.New("market: no API key configured")
	ErrUpstream = errors.New("market: upstream unavailable")
)

// Observer receives one call per upstream request.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, d time.Duration)
}

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	Rate       float64
	Burst      int
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
	Observer   Observer
}

type Client struct {
	baseURL  string
	apiKey   string
	timeout  time.Duration
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   logrus.FieldLogger
	observer Observer
	now      func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	logger := opts.Logger.WithField("component", "finnhub")
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		limiter: rate.NewLimiter(limit, opts.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "finnhub",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("circuit breaker state change")
			},
		}),
		logger:   logger,
		observer: opts.Observer,
		now:      time.Now,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Symbol strips an exchange prefix ("NASDAQ:AAPL" -> "AAPL") and upper-cases.
func Symbol(ticker string) string {
	t := strings.TrimSpace(ticker)
	if i := strings.LastIndex(t, ":"); i >= 0 {
		t = t[i+1:]
	}
	return strings.ToUpper(t)
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, decode func(*json.Decoder) error) error {
	if !c.Configured() {
		return ErrNoAPIKey
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	outcome := "ok"
	defer func() {
		if c.observer != nil {
			c.observer.ObserveUpstream(endpoint, outcome, time.Since(start))
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		outcome = "throttled"
		return fmt.Errorf("%w: rate limit: %w", ErrUpstream, err)
	}

	params.Set("token", c.apiKey)
	u := c.baseURL + path + "?" + params.Encode()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
		}
		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		return nil, decode(dec)
	})
	if err != nil {
		outcome = "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return nil
}

// Search returns at most 10 matches, dropping derivative listings whose
// symbol contains a dot. An empty query returns no results.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	var raw finnhubSearch
	err := c.getJSON(ctx, "search", "/search", url.Values{"q": {query}}, func(d *json.Decoder) error {
		return d.Decode(&raw)
	})
	if err != nil {
		return nil, err
	}
	found := raw.Result
	if len(found) > maxSearchResults {
		found = found[:maxSearchResults]
	}
	results := make([]SearchResult, 0, len(found))
	for _, r := range found {
		if strings.Contains(r.Symbol, ".") {
			continue
		}
		results = append(results, SearchResult{
			Symbol:        r.Symbol,
			DisplaySymbol: r.DisplaySymbol,
			Description:   r.Description,
		})
	}
	return results, nil
}

// News returns general market news when ticker is empty or "market", and
// company news for the last days days otherwise.
func (c *Client) News(ctx context.Context, ticker string, days int) ([]NewsItem, error) {
	endpoint, path, params := "general_news", "/news", url.Values{"category": {"general"}}
	if ticker != "" && !strings.EqualFold(ticker, "market") {
		if days <= 0 {
			days = defaultNewsDays
		}
		if days > maxNewsDays {
			days = maxNewsDays
		}
		today := c.now().UTC()
		from := today.AddDate(0, 0, -days)
		endpoint, path = "company_news", "/company-news"
		params = url.Values{
			"symbol": {Symbol(ticker)},
			"from":   {from.Format("2006-01-02")},
			"to":     {today.Format("2006-01-02")},
		}
	}

	var raw []finnhubNews
	if err := c.getJSON(ctx, endpoint, path, params, func(d *json.Decoder) error { return d.Decode(&raw) }); err != nil {
		return nil, err
	}
	if len(raw) > maxNewsItems {
		raw = raw[:maxNewsItems]
	}
	items := make([]NewsItem, 0, len(raw))
	for _, n := range raw {
		published := time.Unix(n.Datetime, 0).UTC()
		items = append(items, NewsItem{
			Title:       n.Headline,
			Summary:     n.Summary,
			Source:      n.Source,
			Time:        published.Format("02 Jan 15:04"),
			PublishedAt: published,
			URL:         n.URL,
		})
	}
	return items, nil
}

// ratio maps a display name to a Finnhub metric key and a unit suffix.
type ratio struct {
	name   string
	key    string
	suffix string
}

var ratios = []ratio{
	{"Price", "currentEv/freeCashFlowAnnual", ""},
	{"P/E Ratio", "peExclExtraTTM", ""},
	{"Div Yield", "dividendYieldIndicatedAnnual", "%"},
	{"Market Cap", "marketCapitalization", "M"},
	{"Debt/Equity", "totalDebt/totalEquityQuarterly", ""},
	{"ROE", "roeTTM", "%"},
	{"52W High", "52WeekHigh", ""},
}

const notAvailable = "N/A"

// Metrics returns the named ratios for ticker. Values the provider does not
// report render as "N/A"; numbers render with two decimals.
func (c *Client) Metrics(ctx context.Context, ticker string) (map[string]string, error) {
	var raw struct {
		Metric map[string]json.RawMessage `json:"metric"`
	}
	params := url.Values{"symbol": {Symbol(ticker)}, "metric": {"all"}}
	if err := c.getJSON(ctx, "metrics", "/stock/metric", params, func(d *json.Decoder) error { return d.Decode(&raw) }); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(ratios))
	for _, r := range ratios {
		out[r.name] = formatMetric(raw.Metric[r.key], r.suffix)
	}
	return out, nil
}

func formatMetric(raw json.RawMessage, suffix string) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return notAvailable
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		var str string
		if json.Unmarshal(raw, &str) == nil && str != "" {
			return str + suffix
		}
		return notAvailable
	}
	return d.StringFixed(2) + suffix
}
