package main

import (
	"crypto/subtle"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mlsag/mlsag-go/pkg/auth"
	"github.com/mlsag/mlsag-go/pkg/crypto/mlsag"
	"github.com/mlsag/mlsag-go/pkg/jwt"
	mw "github.com/mlsag/mlsag-go/pkg/middleware"
	"github.com/mlsag/mlsag-go/pkg/storage"
)

func main() {
	// Command line flags
	var (
		addr       = flag.String("addr", ":8080", "Server address")
		keyFile    = flag.String("key", "keys/jwt-signing.pem", "JWT signing key file")
		configFile = flag.String("config", "keys/jwt-config.json", "JWT config file")
		issuer     = flag.String("issuer", "https://auth.mlsag.example", "JWT issuer")
		audience   = flag.String("audience", "mlsag-api", "JWT audience")
		tokenTTL   = flag.Duration("token-ttl", 5*time.Minute, "JWT token TTL")
		sessionTTL = flag.Duration("session-ttl", storage.DefaultSessionTTL, "Challenge session TTL")
		rateLimit  = flag.Int("rate-limit", 120, "Max requests per minute per client")
		curveName  = flag.String("curve", mlsag.DefaultConfig().Curve, "Group to use (ed25519|secp256k1|ristretto255)")
		hashName   = flag.String("hash", mlsag.DefaultConfig().Hash, "Hash oracle (sha3-512|sha3-256|keccak256|sha256|blake2b-<bits>|shake256-<bits>)")
		maxRows    = flag.Int("max-rows", 64, "Largest accepted ring")
		maxCols    = flag.Int("max-columns", 16, "Largest accepted keys per ring member")
		adminToken = flag.String("admin-token", "", "Bearer token required for /admin (empty disables the check)")
	)
	flag.Parse()

	log.Println("Starting MLSAG Auth Server...")

	engine, err := mlsag.NewFromConfig(mlsag.Config{Curve: *curveName, Hash: *hashName})
	if err != nil {
		log.Fatalf("Invalid engine configuration: %v", err)
	}
	log.Printf("Using curve: %s, hash: %s", engine.Curve().Name(), *hashName)
	log.Printf("Rate limit: %d requests/minute per client", *rateLimit)

	// Initialize storage (in-memory)
	var store storage.Store = storage.NewMemoryStore(*sessionTTL)
	defer store.Close()
	log.Println("Initialized in-memory storage")

	// Initialize JWT signer, generating a key on first start
	tokenSigner, created, err := jwt.LoadOrCreateSigner(*keyFile, *configFile, "auth-key-1", *issuer)
	if err != nil {
		log.Fatalf("Failed to create JWT signer: %v", err)
	}
	if created {
		log.Printf("Generated new key pair: %s, %s", *keyFile, *configFile)
	}
	log.Printf("Loaded JWT signer with algorithm: %s", tokenSigner.Algorithm())

	handlers := auth.NewHandlers(store, engine, tokenSigner, auth.Config{
		Issuer:     *issuer,
		Audience:   *audience,
		TokenTTL:   *tokenTTL,
		SessionTTL: *sessionTTL,
		MaxRows:    *maxRows,
		MaxColumns: *maxCols,
	})

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(mw.RateLimit(*rateLimit, time.Minute))
	r.Use(mw.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","service":"mlsagd"}`)
	})

	handlers.Routes(r)

	// Token-protected route for checking issued tokens
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.JWTMiddleware(tokenSigner.JWKS(), *audience))
		r.Use(mw.RequireRingScheme(jwt.RingScheme))

		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			claims, _ := mw.ClaimsFromContext(r.Context())

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"subject":    claims.Subject,
				"ring":       claims.Ring,
				"expires_at": claims.ExpiresAt,
			})
		})
	})

	r.Route("/admin", func(r chi.Router) {
		if *adminToken != "" {
			r.Use(requireAdmin(*adminToken))
		}

		handlers.AdminRoutes(r)

		r.Get("/rings", func(w http.ResponseWriter, r *http.Request) {
			rings, err := store.ListRings()
			if err != nil {
				http.Error(w, "Failed to list rings", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"rings": len(rings), "data": rings})
		})
	})

	log.Printf("Server starting on %s", *addr)
	log.Printf("Issuer: %s", *issuer)
	log.Printf("Audience: %s", *audience)
	log.Printf("Token TTL: %v", *tokenTTL)
	log.Printf("Session TTL: %v", *sessionTTL)
	log.Println()
	log.Println("Endpoints:")
	log.Println("  POST /rings                       - Register a ring")
	log.Println("  GET  /rings/{id}                  - Fetch a ring")
	log.Println("  POST /auth/ring/challenge         - Start ring login")
	log.Println("  POST /auth/ring/complete          - Complete ring login")
	log.Println("  POST /verify                      - Verify a signature")
	log.Println("  GET  /scopes/{scope}/key-images   - Key images seen in a scope")
	log.Println("  GET  /scopes/{scope}/key-images/{ki} - Whether a key image is linked")
	log.Println("  GET  /.well-known/jwks.json       - JWT signing keys")
	log.Println("  GET  /api/whoami                  - Inspect a token")
	log.Println("  GET  /health                      - Health check")
	log.Println("  POST /admin/denylist              - Ban a key image")
	log.Println("  GET  /admin/denylist              - List banned key images")
	log.Println("  DELETE /admin/denylist/{ki}       - Lift a ban")
	log.Println("  GET  /admin/rings                 - List rings")
	log.Println("  GET  /admin/stats                 - Storage stats")
	log.Println()

	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// requireAdmin checks a static bearer token on operator routes
func requireAdmin(token string) func(http.Handler) http.Handler {
	expected := []byte("Bearer " + token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, expected) != 1 {
				http.Error(w, "admin token required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
