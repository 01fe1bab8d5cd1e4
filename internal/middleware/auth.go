// Package middleware provides reusable HTTP middleware constructors.
package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"
)

// TokenValidator is the interface that wraps Google ID-token validation.
// It is satisfied by *idtoken.Validator; tests inject a stub that does not
// fetch Google's signing keys.
type TokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// contextKey is an unexported type used for context values set by this package
// to avoid collisions with other packages.
type contextKey int

const (
	// payloadKey is the context key under which *idtoken.Payload is stored.
	payloadKey contextKey = iota
)

// PayloadFromContext retrieves the validated token payload injected by
// RequireIDToken. Returns nil if the middleware was not applied.
func PayloadFromContext(ctx context.Context) *idtoken.Payload {
	v, _ := ctx.Value(payloadKey).(*idtoken.Payload)
	return v
}

// RequireIDToken returns a middleware that validates the Google-signed ID
// token in the "Authorization: Bearer <token>" header against audience.
// Eventarc and Pub/Sub push subscriptions send such a token when configured
// with a service account.
//
// On failure a 401 JSON response is returned and the chain is stopped.
func RequireIDToken(validator TokenValidator, audience string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing or malformed Authorization header")
				return
			}

			payload, err := validator.Validate(r.Context(), token, audience)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), payloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken returns the credential of a Bearer Authorization header, or ""
// when the header is absent, uses another scheme, or carries no token.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// writeUnauthorized rejects the push with a Bearer challenge naming the
// failure, plus the same reason as a JSON body.
func writeUnauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer error="invalid_token", error_description=%q`, reason))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
