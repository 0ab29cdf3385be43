package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/mlsag/mlsag-go/pkg/jwt"
)

// ContextKey is used for storing values in context
type ContextKey string

// JWTClaimsKey is the context key for JWT claims
const JWTClaimsKey ContextKey = "jwt_claims"

// JWTMiddleware creates middleware that requires a valid bearer token issued
// under issuerJWKS for expectedAudience
func JWTMiddleware(issuerJWKS jwk.Set, expectedAudience string) func(http.Handler) http.Handler {
	verifier := jwt.NewJWTVerifier(issuerJWKS)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, bearerPrefix)

			claims, err := verifier.Verify(token, expectedAudience)
			if err != nil {
				http.Error(w, fmt.Sprintf("JWT verification failed: %v", err), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a context carrying claims
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, JWTClaimsKey, claims)
}

// ClaimsFromContext extracts JWT claims placed by JWTMiddleware
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(JWTClaimsKey).(*jwt.Claims)
	return claims, ok
}

// requireRing builds middleware that checks the ring claim of an
// authenticated request
func requireRing(check func(*jwt.RingClaims) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "JWT claims required", http.StatusInternalServerError)
				return
			}

			if claims.Ring == nil {
				http.Error(w, "JWT missing ring claims", http.StatusForbidden)
				return
			}

			if err := check(claims.Ring); err != nil {
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRingScheme ensures the JWT was issued after a ring signature of the
// given scheme
func RequireRingScheme(expectedScheme string) func(http.Handler) http.Handler {
	return requireRing(func(rc *jwt.RingClaims) error {
		if rc.Scheme != expectedScheme {
			return fmt.Errorf("invalid ring scheme: expected %s, got %s", expectedScheme, rc.Scheme)
		}
		return nil
	})
}

// RequireGroup ensures the JWT was issued for a specific group
func RequireGroup(expectedGroup string) func(http.Handler) http.Handler {
	return requireRing(func(rc *jwt.RingClaims) error {
		if rc.Group != expectedGroup {
			return fmt.Errorf("invalid group: expected %s, got %s", expectedGroup, rc.Group)
		}
		return nil
	})
}

// RequireScope ensures the JWT was issued for a specific linkability scope
func RequireScope(expectedScope string) func(http.Handler) http.Handler {
	return requireRing(func(rc *jwt.RingClaims) error {
		if rc.Scope != expectedScope {
			return fmt.Errorf("invalid scope: expected %s, got %s", expectedScope, rc.Scope)
		}
		return nil
	})
}

// CORS middleware for development
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
