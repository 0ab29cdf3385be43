// Package auth implements anonymous ring authentication over HTTP.
//
// A client registers (or is given) a ring of public keys. To log in, it asks
// for a challenge bound to a ring and a scope, signs the challenge message
// with MLSAG using its own row of the ring, and exchanges the signature for
// a JWT. The server learns only that the signer owns some row. The key image
// in the signature lets the server allow one login per signer per scope and
// gives the token a stable pseudonymous subject.
package auth

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mlsag/mlsag-go/pkg/crypto/mlsag"
	"github.com/mlsag/mlsag-go/pkg/jwt"
	"github.com/mlsag/mlsag-go/pkg/storage"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

// Handlers contains all authentication handlers
type Handlers struct {
	store       storage.Store
	engine      *mlsag.Engine
	tokenSigner jwt.TokenSigner
	config      Config
}

// Config contains configuration for auth handlers
type Config struct {
	Issuer     string        // JWT issuer
	Audience   string        // JWT audience
	TokenTTL   time.Duration // JWT lifetime
	SessionTTL time.Duration // Challenge session lifetime
	MaxRows    int           // Largest accepted ring (rows)
	MaxColumns int           // Largest accepted ring (keys per row)
}

// DefaultConfig returns the limits used when a field is left zero
func DefaultConfig() Config {
	return Config{
		TokenTTL:   5 * time.Minute,
		SessionTTL: storage.DefaultSessionTTL,
		MaxRows:    64,
		MaxColumns: 16,
	}
}

// NewHandlers creates new authentication handlers
func NewHandlers(
	store storage.Store,
	engine *mlsag.Engine,
	tokenSigner jwt.TokenSigner,
	config Config,
) *Handlers {
	defaults := DefaultConfig()
	if config.TokenTTL <= 0 {
		config.TokenTTL = defaults.TokenTTL
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = defaults.SessionTTL
	}
	if config.MaxRows <= 0 {
		config.MaxRows = defaults.MaxRows
	}
	if config.MaxColumns <= 0 {
		config.MaxColumns = defaults.MaxColumns
	}

	return &Handlers{
		store:       store,
		engine:      engine,
		tokenSigner: tokenSigner,
		config:      config,
	}
}

// Routes registers the public endpoints on r
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/rings", h.CreateRing)
	r.Get("/rings/{id}", h.GetRing)
	r.Get("/scopes/{scope}/key-images", h.ListKeyImages)
	r.Get("/scopes/{scope}/key-images/{keyImage}", h.CheckKeyImage)
	r.Post("/auth/ring/challenge", h.Challenge)
	r.Post("/auth/ring/complete", h.Complete)
	r.Post("/verify", h.Verify)
	r.Get("/.well-known/jwks.json", h.JWKS)
}

// AdminRoutes registers the operator endpoints on r
func (h *Handlers) AdminRoutes(r chi.Router) {
	r.Post("/denylist", h.Ban)
	r.Get("/denylist", h.ListBanned)
	r.Delete("/denylist/{keyImage}", h.Unban)
	r.Get("/stats", h.Stats)
}

// JWKS returns the public keys for JWT verification
func (h *Handlers) JWKS(w http.ResponseWriter, r *http.Request) {
	jwks := h.tokenSigner.JWKS()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")

	if err := json.NewEncoder(w).Encode(jwks); err != nil {
		http.Error(w, "failed to encode JWKS", http.StatusInternalServerError)
		return
	}
}

// BanRequest bans a key image from completing authentication
type BanRequest struct {
	KeyImage string `json:"key_image"`
}

// Ban adds a key image to the denylist
func (h *Handlers) Ban(w http.ResponseWriter, r *http.Request) {
	var req BanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	I, err := h.engine.DecodeKeyImage(req.KeyImage)
	if err != nil {
		http.Error(w, "invalid key image", http.StatusBadRequest)
		return
	}

	// Stored in canonical form so it matches what Complete looks up.
	if err := h.store.AddToDenylist(mlsag.EncodeKeyImage(I)); err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "banned"})
}

// ListBanned returns the banned key images in sorted order
func (h *Handlers) ListBanned(w http.ResponseWriter, r *http.Request) {
	images, err := h.store.ListDenylist()
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	sort.Strings(images)

	writeJSON(w, http.StatusOK, map[string][]string{"key_images": images})
}

// Unban lifts the ban on the key image named in the path
func (h *Handlers) Unban(w http.ResponseWriter, r *http.Request) {
	I, err := h.engine.DecodeKeyImage(chi.URLParam(r, "keyImage"))
	if err != nil {
		http.Error(w, "invalid key image", http.StatusBadRequest)
		return
	}
	keyImage := mlsag.EncodeKeyImage(I)

	banned, err := h.store.IsInDenylist(keyImage)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !banned {
		http.Error(w, "key image not banned", http.StatusNotFound)
		return
	}

	if err := h.store.RemoveFromDenylist(keyImage); err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "unbanned"})
}

// Stats reports storage counters
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()
	stats["rings_max_rows"] = h.config.MaxRows
	stats["rings_max_columns"] = h.config.MaxColumns
	writeJSON(w, http.StatusOK, stats)
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
