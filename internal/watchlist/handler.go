package watchlist

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"finboard/internal/auth"
	"finboard/internal/httpx"
	"finboard/internal/store"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.:\-]{0,23}$`)

var ErrInvalidTicker = errors.New("ticker is missing or malformed")

// NormalizeTicker trims and upper-cases a ticker. Exchange prefixes are kept.
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if !tickerPattern.MatchString(t) {
		return "", ErrInvalidTicker
	}
	return t, nil
}

// Handler serves /api/watchlist. Routes must be wrapped with auth.RequireUser.
type Handler struct {
	Store   store.Store
	Cookies auth.CookieWriter
	Logger  logrus.FieldLogger
}

type tickerBody struct {
	Ticker string `json:"ticker"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	tickers, err := h.Store.ListWatchlist(r.Context(), sess.UserID)
	if err != nil {
		h.storeFailure(w, err, "list")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "watchlist": tickers})
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	ticker, ok := h.readTicker(w, r)
	if !ok {
		return
	}
	err := h.Store.AddWatchlist(r.Context(), sess.UserID, ticker)
	switch {
	case errors.Is(err, store.ErrConflict):
		httpx.Fail(w, http.StatusConflict, "Exists.")
		return
	case errors.Is(err, store.ErrNotFound):
		// The session outlived its user.
		h.Cookies.Clear(w)
		httpx.Fail(w, http.StatusUnauthorized, "login required")
		return
	}
	if err != nil {
		h.storeFailure(w, err, "add")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Added."})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	ticker, ok := h.readTicker(w, r)
	if !ok {
		return
	}
	if err := h.Store.RemoveWatchlist(r.Context(), sess.UserID, ticker); err != nil {
		h.storeFailure(w, err, "remove")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Removed."})
}

func (h *Handler) readTicker(w http.ResponseWriter, r *http.Request) (string, bool) {
	var in tickerBody
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return "", false
	}
	if in.Ticker == "" {
		in.Ticker = r.URL.Query().Get("ticker")
	}
	ticker, err := NormalizeTicker(in.Ticker)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return ticker, true
}

func (h *Handler) storeFailure(w http.ResponseWriter, err error, op string) {
	h.Logger.WithError(err).WithField("op", op).Error("watchlist request failed")
	if errors.Is(err, store.ErrUnavailable) {
		httpx.Fail(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}
	httpx.Fail(w, http.StatusInternalServerError, "internal error")
}
