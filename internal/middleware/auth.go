package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dan9191/barakah/internal/auth"
	"github.com/Dan9191/barakah/internal/locator"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// TokenVerifier resolves the caller of a request from its token
type TokenVerifier interface {
	ParseToken(token string) (string, error)
}

// AuthMiddleware authenticates a request with its bearer token. Browsers
// cannot set headers on a WebSocket handshake, so an upgrade request may
// carry the token in the access_token query parameter instead. The stored
// device session is never accepted over HTTP; it only serves in-process
// callers such as the scheduler.
func AuthMiddleware(v TokenVerifier, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			userID, err := v.ParseToken(token)
			if err != nil {
				log.WithField("path", r.URL.Path).Debugf("Rejected request: %v", err)
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		return token, ok && token != ""
	}
	if websocket.IsWebSocketUpgrade(r) {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

// DevicePosition attaches the position a client reports in the
// X-Device-Position header ("lat,lng") to the request context
func DevicePosition(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Device-Position"); raw != "" {
			if pos, err := locator.ParsePosition(raw); err == nil {
				r = r.WithContext(locator.WithPosition(r.Context(), pos))
			}
		}
		next.ServeHTTP(w, r)
	})
}
