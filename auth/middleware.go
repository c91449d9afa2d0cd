// Package auth gates the HTTP transport. Three modes are supported: "none"
// (open), "token" (a single static bearer token compared in constant time)
// and "jwt" (HS256-signed tokens with an optional email allowlist).
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// Config selects the authentication mode for the HTTP transport.
type Config struct {
	Mode          string // "none", "token" or "jwt"
	BearerToken   string
	JWTSecret     []byte
	AllowedEmails []string // empty means any valid token is accepted
}

// Middleware returns an http.Handler middleware enforcing the configured
// mode. Health checks and CORS preflights pass through unauthenticated.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowedEmails))
	for _, e := range cfg.AllowedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Mode == "" || cfg.Mode == "none" {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method == http.MethodOptions || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			switch cfg.Mode {
			case "token":
				if cfg.BearerToken == "" {
					http.Error(w, "server auth misconfigured", http.StatusInternalServerError)
					return
				}
				if subtle.ConstantTimeCompare([]byte(tokenStr), []byte(cfg.BearerToken)) != 1 {
					writeUnauthorized(w, "invalid token")
					return
				}
			case "jwt":
				claims, err := ValidateToken(cfg.JWTSecret, tokenStr)
				if err != nil {
					writeUnauthorized(w, "invalid token")
					return
				}
				if len(allowed) > 0 {
					if _, ok := allowed[strings.ToLower(claims.Email)]; !ok {
						writeUnauthorized(w, "email not allowed")
						return
					}
				}
			default:
				http.Error(w, "server auth misconfigured", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return h[7:]
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
