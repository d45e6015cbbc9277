package auth

import (
	"context"
	"net/http"
	"time"

	"finboard/internal/httpx"
)

const CookieName = "finboard_session"

type contextKey string

const sessionContextKey contextKey = "finboard_session"

// Session is what a valid cookie tells us about the caller.
type Session struct {
	UserID   string
	Username string
	Premium  bool
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok
}

// SessionMiddleware attaches the caller's session when the cookie is valid.
// Requests without one pass through anonymously.
func SessionMiddleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(CookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := svc.ParseToken(c.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			sess := &Session{
				UserID:   claims.UserID,
				Username: claims.Username,
				Premium:  claims.Premium,
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			httpx.Fail(w, http.StatusUnauthorized, "login required")
			return
		}
		next(w, r)
	}
}

func RequirePremium(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok || !sess.Premium {
			httpx.WriteJSON(w, http.StatusForbidden, map[string]string{"message": "Premium needed"})
			return
		}
		next(w, r)
	}
}

// CookieWriter sets and clears the session cookie.
type CookieWriter struct {
	Secure bool
	TTL    time.Duration
}

func (cw CookieWriter) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cw.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cw CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
