package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lestrrat-go/jwx/v2/jwk"
	mw "github.com/mlsag/mlsag-go/pkg/middleware"
)

func main() {
	// Command line flags
	var (
		addr       = flag.String("addr", ":8081", "Server address")
		authServer = flag.String("auth-server", "http://localhost:8080", "Auth server base URL")
		audience   = flag.String("audience", "mlsag-api", "JWT audience")
		pollScope  = flag.String("poll-scope", "poll-1", "Linkability scope accepted by the ballot endpoint")
		group      = flag.String("group", "ed25519", "Group required by the group-restricted endpoint")
	)
	flag.Parse()

	log.Println("Starting MLSAG Demo API Server...")

	// Fetch JWKS from auth server
	jwksURL := *authServer + "/.well-known/jwks.json"
	log.Printf("Fetching JWKS from: %s", jwksURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	issuerJWKS, err := jwk.Fetch(ctx, jwksURL)
	cancel()
	if err != nil {
		log.Fatalf("Failed to fetch JWKS: %v", err)
	}

	log.Printf("Loaded %d signing keys", issuerJWKS.Len())

	ballots := newBallotBox()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(mw.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","service":"mlsag-demo-api"}`)
	})

	r.Get("/public", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"message":   "This is a public endpoint",
			"timestamp": time.Now(),
			"service":   "mlsag-demo-api",
		})
	})

	// Protected routes (require a ring token)
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.JWTMiddleware(issuerJWKS, *audience))

		r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
			claims, ok := mw.ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "Missing JWT claims", http.StatusInternalServerError)
				return
			}

			writeJSON(w, map[string]interface{}{
				"message":    "Profile data",
				"subject":    claims.Subject,
				"audience":   claims.Audience,
				"issued_at":  claims.IssuedAt,
				"expires_at": claims.ExpiresAt,
				"ring":       claims.Ring,
			})
		})

		// Anonymous ballot: one per pseudonymous subject in the poll scope
		r.Route("/ballot", func(r chi.Router) {
			r.Use(mw.RequireRingScheme("mlsag"))
			r.Use(mw.RequireScope(*pollScope))

			r.Post("/", func(w http.ResponseWriter, r *http.Request) {
				claims, _ := mw.ClaimsFromContext(r.Context())

				var req struct {
					Choice string `json:"choice"`
				}
				if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil || req.Choice == "" {
					http.Error(w, "choice is required", http.StatusBadRequest)
					return
				}

				if !ballots.cast(claims.Subject, req.Choice) {
					http.Error(w, "ballot already cast", http.StatusConflict)
					return
				}

				writeJSON(w, map[string]interface{}{
					"message": "Ballot recorded",
					"ring_id": claims.Ring.RingID,
					"scope":   claims.Ring.Scope,
				})
			})

			r.Get("/tally", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, ballots.tally())
			})
		})

		r.Route("/group", func(r chi.Router) {
			r.Use(mw.RequireGroup(*group))

			r.Get("/data", func(w http.ResponseWriter, r *http.Request) {
				claims, _ := mw.ClaimsFromContext(r.Context())

				writeJSON(w, map[string]interface{}{
					"message":   fmt.Sprintf("This endpoint requires a %s ring", *group),
					"subject":   claims.Subject,
					"group":     claims.Ring.Group,
					"timestamp": time.Now(),
				})
			})
		})
	})

	r.Get("/info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"service":     "MLSAG Demo API",
			"description": "Accepts anonymous ring-authenticated JWTs",
			"auth_server": *authServer,
			"audience":    *audience,
			"poll_scope":  *pollScope,
			"auth_flow": []string{
				"1. Register a ring: POST /rings",
				"2. Request a challenge: POST /auth/ring/challenge",
				"3. Sign it with your ring row and POST /auth/ring/complete",
				"4. Use the JWT for API calls",
			},
		})
	})

	log.Printf("Server starting on %s", *addr)
	log.Printf("Auth server: %s", *authServer)
	log.Printf("Expected audience: %s", *audience)
	log.Println()
	log.Println("Endpoints:")
	log.Println("  GET  /health              - Health check")
	log.Println("  GET  /public              - Public endpoint")
	log.Println("  GET  /info                - API information")
	log.Println("  GET  /api/profile         - Token details")
	log.Println("  POST /api/ballot/         - Cast one anonymous ballot")
	log.Println("  GET  /api/ballot/tally    - Ballot tally")
	log.Println("  GET  /api/group/data      - Group-restricted data")
	log.Println()

	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// ballotBox counts one choice per subject
type ballotBox struct {
	mu     sync.Mutex
	voters map[string]bool
	counts map[string]int
}

func newBallotBox() *ballotBox {
	return &ballotBox{
		voters: make(map[string]bool),
		counts: make(map[string]int),
	}
}

func (b *ballotBox) cast(subject, choice string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.voters[subject] {
		return false
	}
	b.voters[subject] = true
	b.counts[choice]++
	return true
}

func (b *ballotBox) tally() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
