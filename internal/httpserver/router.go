package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"finboard/internal/auth"
	"finboard/internal/httpx"
	"finboard/internal/insights"
	"finboard/internal/market"
	"finboard/internal/metrics"
	"finboard/internal/sentiment"
	"finboard/internal/store"
	"finboard/internal/watchlist"
)

type Deps struct {
	Logger  logrus.FieldLogger
	Store   store.Store
	Auth    *auth.Service
	Cookies auth.CookieWriter
	Market  *market.Client
	Scorer  *sentiment.Scorer
	Metrics *metrics.Metrics
	// AllowedOrigins lists browser origins allowed to call the API with
	// credentials.
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.WithError(err).Warn("health check failed")
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "store": d.Store.Dialect()})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": d.Store.Dialect()})
	})
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// Auth
	authHandler := &auth.Handler{Service: d.Auth, Cookies: d.Cookies, Logger: d.Logger}
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/status", authHandler.Status)
	mux.HandleFunc("POST /api/create-checkout-session", auth.RequireUser(authHandler.Checkout))

	// Watchlist
	wl := &watchlist.Handler{Store: d.Store, Cookies: d.Cookies, Logger: d.Logger}
	mux.HandleFunc("GET /api/watchlist", auth.RequireUser(wl.List))
	mux.HandleFunc("POST /api/watchlist", auth.RequireUser(wl.Add))
	mux.HandleFunc("DELETE /api/watchlist", auth.RequireUser(wl.Remove))

	// Market data
	mux.Handle("GET /api/search", &market.SearchHandler{Provider: d.Market, Logger: d.Logger})
	mux.Handle("GET /api/news", &market.NewsHandler{Provider: d.Market, Logger: d.Logger})
	mux.Handle("GET /api/financials/{kind}", &market.FinancialsHandler{Provider: d.Market, Logger: d.Logger})

	// Premium
	prediction := &insights.PredictionHandler{News: d.Market, Scorer: d.Scorer, Logger: d.Logger}
	if d.Metrics != nil {
		prediction.Observer = d.Metrics
	}
	mux.HandleFunc("POST /api/ai_prediction", auth.RequirePremium(prediction.ServeHTTP))
	mux.HandleFunc("GET /api/leading_indicators", auth.RequirePremium(insights.LeadingIndicators))

	var obs httpObserver
	if d.Metrics != nil {
		obs = d.Metrics
	}
	var h http.Handler = auth.SessionMiddleware(d.Auth)(mux)
	h = withRequestLog(h, mux, d.Logger, obs)
	return withCORS(h, d.AllowedOrigins)
}
