package auth

import (
	"errors"
	"net/http"

	"github.com/mlsag/mlsag-go/pkg/crypto/mlsag"
	"github.com/mlsag/mlsag-go/pkg/storage"
)

// VerifyRequest checks a signature without touching the linkability ledger.
// Exactly one of RingID and Keys must be set.
type VerifyRequest struct {
	RingID    string     `json:"ring_id,omitempty"`
	Keys      [][]string `json:"keys,omitempty"`
	Message   string     `json:"message"`   // raw message text
	Signature string     `json:"signature"` // wire-form MLSAG signature
}

// VerifyResponse reports the outcome and the signer's key image
type VerifyResponse struct {
	Valid    bool   `json:"valid"`
	KeyImage string `json:"key_image,omitempty"`
}

// Verify handles POST /verify
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var P mlsag.KeyMatrix
	switch {
	case req.RingID != "" && req.Keys != nil:
		http.Error(w, "provide either ring_id or keys, not both", http.StatusBadRequest)
		return
	case req.RingID != "":
		var err error
		if _, P, err = h.loadRing(req.RingID); err != nil {
			if errors.Is(err, storage.ErrRingNotFound) {
				http.Error(w, "ring not found", http.StatusNotFound)
				return
			}
			http.Error(w, "ring unavailable", http.StatusInternalServerError)
			return
		}
	case req.Keys != nil:
		var err error
		if P, err = h.decodeRing("", req.Keys); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "ring_id or keys is required", http.StatusBadRequest)
		return
	}

	sig, err := h.engine.DecodeSignature(req.Signature)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	valid, err := h.engine.Verify([]byte(req.Message), P, sig)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := VerifyResponse{Valid: valid}
	if valid {
		resp.KeyImage = mlsag.EncodeKeyImage(sig.I)
	}

	writeJSON(w, http.StatusOK, resp)
}
