package auth

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"finboard/internal/httpx"
	"finboard/internal/store"
)

type Handler struct {
	Service *Service
	Cookies CookieWriter
	Logger  logrus.FieldLogger
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := h.Service.Register(r.Context(), in.Username, in.Password)
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrPasswordTooLong):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrUsernameTaken):
		httpx.Fail(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.storeFailure(w, err, "register")
		return
	}
	h.Logger.WithField("user_id", user.ID).Info("user registered")
	h.Cookies.Set(w, token)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	_, token, err := h.Service.Authenticate(r.Context(), in.Username, in.Password)
	switch {
	case errors.Is(err, ErrMissingFields):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Fail(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		h.storeFailure(w, err, "login")
		return
	}
	h.Cookies.Set(w, token)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"loggedIn":  false,
			"username":  "Guest",
			"isPremium": false,
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"loggedIn":  true,
		"username":  sess.Username,
		"isPremium": sess.Premium,
	})
}

// Checkout upgrades the caller to premium through the configured payment
// confirmer. With MockConfirmer no payment takes place.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFromContext(r.Context())
	_, token, err := h.Service.Upgrade(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Cookies.Clear(w)
			httpx.Fail(w, http.StatusUnauthorized, "login required")
			return
		}
		h.storeFailure(w, err, "checkout")
		return
	}
	_, mock := h.Service.payments.(MockConfirmer)
	h.Logger.WithFields(logrus.Fields{"user_id": sess.UserID, "mock": mock}).Info("premium activated")
	h.Cookies.Set(w, token)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "mock": mock})
}

func (h *Handler) storeFailure(w http.ResponseWriter, err error, op string) {
	h.Logger.WithError(err).WithField("op", op).Error("auth request failed")
	if errors.Is(err, store.ErrUnavailable) {
		httpx.Fail(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}
	httpx.Fail(w, http.StatusInternalServerError, "internal error")
}
