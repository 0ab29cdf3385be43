package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mlsag/mlsag-go/pkg/crypto/mlsag"
	"github.com/mlsag/mlsag-go/pkg/storage"
)

// CreateRingRequest registers a decoy matrix
type CreateRingRequest struct {
	Keys  [][]string `json:"keys"`            // n x m hex-encoded public keys
	Curve string     `json:"curve,omitempty"` // Must match the server group if set
}

// CreateRingResponse is returned after ring registration
type CreateRingResponse struct {
	RingID  string `json:"ring_id"`
	Curve   string `json:"curve"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// CreateRing handles POST /rings
func (h *Handlers) CreateRing(w http.ResponseWriter, r *http.Request) {
	var req CreateRingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	P, err := h.decodeRing(req.Curve, req.Keys)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ring := &storage.Ring{
		ID:        uuid.New().String(),
		Curve:     h.engine.Curve().Name(),
		Keys:      mlsag.EncodeKeyMatrix(P),
		CreatedAt: time.Now(),
	}

	if err := h.store.CreateRing(ring); err != nil {
		if errors.Is(err, storage.ErrRingExists) {
			http.Error(w, "ring already exists", http.StatusConflict)
			return
		}
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, CreateRingResponse{
		RingID:  ring.ID,
		Curve:   ring.Curve,
		Rows:    len(P),
		Columns: len(P[0]),
	})
}

// GetRing handles GET /rings/{id}
func (h *Handlers) GetRing(w http.ResponseWriter, r *http.Request) {
	ring, err := h.store.GetRing(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrRingNotFound) {
			http.Error(w, "ring not found", http.StatusNotFound)
			return
		}
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ring)
}

// ListKeyImages handles GET /scopes/{scope}/key-images
func (h *Handlers) ListKeyImages(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListKeyImages(chi.URLParam(r, "scope"))
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// KeyImageStatusResponse reports whether a key image is linked in a scope
type KeyImageStatusResponse struct {
	Scope    string `json:"scope"`
	KeyImage string `json:"key_image"`
	Linked   bool   `json:"linked"`
}

// CheckKeyImage reports whether the key image in the path has completed a
// login in the scope
func (h *Handlers) CheckKeyImage(w http.ResponseWriter, r *http.Request) {
	I, err := h.engine.DecodeKeyImage(chi.URLParam(r, "keyImage"))
	if err != nil {
		http.Error(w, "invalid key image", http.StatusBadRequest)
		return
	}

	scope := chi.URLParam(r, "scope")
	keyImage := mlsag.EncodeKeyImage(I)

	linked, err := h.store.HasKeyImage(scope, keyImage)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, KeyImageStatusResponse{
		Scope:    scope,
		KeyImage: keyImage,
		Linked:   linked,
	})
}

// decodeRing parses and bounds a hex key matrix for the server group
func (h *Handlers) decodeRing(curveName string, keys [][]string) (mlsag.KeyMatrix, error) {
	if curveName != "" && curveName != h.engine.Curve().Name() {
		return nil, fmt.Errorf("unsupported curve %q, server uses %s", curveName, h.engine.Curve().Name())
	}

	if len(keys) > h.config.MaxRows {
		return nil, fmt.Errorf("ring has %d rows, limit is %d", len(keys), h.config.MaxRows)
	}
	if len(keys) > 0 && len(keys[0]) > h.config.MaxColumns {
		return nil, fmt.Errorf("ring has %d columns, limit is %d", len(keys[0]), h.config.MaxColumns)
	}

	return mlsag.DecodeKeyMatrix(h.engine.Curve(), keys)
}

// loadRing fetches a registered ring and decodes its keys
func (h *Handlers) loadRing(id string) (*storage.Ring, mlsag.KeyMatrix, error) {
	ring, err := h.store.GetRing(id)
	if err != nil {
		return nil, nil, err
	}

	P, err := mlsag.DecodeKeyMatrix(h.engine.Curve(), ring.Keys)
	if err != nil {
		return nil, nil, fmt.Errorf("stored ring %s is corrupt: %w", id, err)
	}

	return ring, P, nil
}
