package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/mlsag/mlsag-go/pkg/crypto/mlsag"
	"github.com/mlsag/mlsag-go/pkg/jwt"
	"github.com/mlsag/mlsag-go/pkg/storage"
)

// DomainChallenge prefixes every challenge message
const DomainChallenge = "mlsag/1/auth"

// nonceSize is the length of the server nonce in bytes
const nonceSize = 32

// ChallengeRequest starts a ring login
type ChallengeRequest struct {
	RingID string `json:"ring_id"`
	Scope  string `json:"scope"`
}

// ChallengeResponse carries the message the client must sign
type ChallengeResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"` // hex of the exact bytes to sign
	Nonce     string `json:"nonce"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// CompleteRequest finishes a ring login
type CompleteRequest struct {
	SessionID string `json:"session_id"`
	Signature string `json:"signature"` // wire-form MLSAG signature
}

// CompleteResponse contains the issued token
type CompleteResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ChallengeMessage builds the message signed during login. It binds the
// audience, scope, ring and server nonce so a signature cannot be replayed
// against another session.
func ChallengeMessage(audience, scope, ringID string, nonce []byte) []byte {
	msg := DomainChallenge + "\n" +
		audience + "\n" +
		scope + "\n" +
		ringID + "\n" +
		hex.EncodeToString(nonce)
	return []byte(msg)
}

// Challenge handles POST /auth/ring/challenge
func (h *Handlers) Challenge(w http.ResponseWriter, r *http.Request) {
	var req ChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.RingID == "" || req.Scope == "" {
		http.Error(w, "ring_id and scope are required", http.StatusBadRequest)
		return
	}

	if _, err := h.store.GetRing(req.RingID); err != nil {
		if errors.Is(err, storage.ErrRingNotFound) {
			http.Error(w, "ring not found", http.StatusNotFound)
			return
		}
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		http.Error(w, "failed to generate nonce", http.StatusInternalServerError)
		return
	}

	session := &storage.RingSession{
		ID:     uuid.New().String(),
		RingID: req.RingID,
		Scope:  req.Scope,
		Nonce:  nonce,
	}

	if err := h.store.CreateSession(session); err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ChallengeResponse{
		SessionID: session.ID,
		Message:   hex.EncodeToString(ChallengeMessage(h.config.Audience, req.Scope, req.RingID, nonce)),
		Nonce:     hex.EncodeToString(nonce),
		ExpiresIn: int(h.config.SessionTTL.Seconds()),
	})
}

// Complete handles POST /auth/ring/complete
func (h *Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// ═══════════════════════════════════════════════════════════════════
	// STEP 1: Load the session and its ring
	// ═══════════════════════════════════════════════════════════════════

	session, err := h.store.GetSession(req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrSessionNotFound):
			http.Error(w, "session not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrSessionExpired):
			http.Error(w, "session expired", http.StatusGone)
		default:
			http.Error(w, "storage error", http.StatusInternalServerError)
		}
		return
	}

	if session.Used {
		http.Error(w, "session already used", http.StatusConflict)
		return
	}

	ring, P, err := h.loadRing(session.RingID)
	if err != nil {
		log.Printf("complete: %v", err)
		http.Error(w, "ring unavailable", http.StatusInternalServerError)
		return
	}

	// ═══════════════════════════════════════════════════════════════════
	// STEP 2: Verify the ring signature over the challenge message
	// ═══════════════════════════════════════════════════════════════════

	sig, err := h.engine.DecodeSignature(req.Signature)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	message := ChallengeMessage(h.config.Audience, session.Scope, session.RingID, session.Nonce)
	valid, err := h.engine.Verify(message, P, sig)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !valid {
		http.Error(w, "invalid ring signature", http.StatusUnauthorized)
		return
	}

	// ═══════════════════════════════════════════════════════════════════
	// STEP 3: Enforce the denylist and one login per key image per scope
	// ═══════════════════════════════════════════════════════════════════

	keyImage := mlsag.EncodeKeyImage(sig.I)

	banned, err := h.store.IsInDenylist(keyImage)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if banned {
		http.Error(w, "key image is banned", http.StatusForbidden)
		return
	}

	if err := h.store.MarkSessionUsed(session.ID); err != nil {
		if errors.Is(err, storage.ErrSessionUsed) {
			http.Error(w, "session already used", http.StatusConflict)
			return
		}
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	err = h.store.RecordKeyImage(&storage.KeyImageRecord{
		Scope:    session.Scope,
		KeyImage: keyImage,
		RingID:   ring.ID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrKeyImageLinked) {
			http.Error(w, "key image already used in this scope", http.StatusConflict)
			return
		}
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	// ═══════════════════════════════════════════════════════════════════
	// STEP 4: Mint the access token
	// ═══════════════════════════════════════════════════════════════════

	token, err := jwt.MintRingToken(h.tokenSigner, jwt.RingToken{
		Issuer:   h.config.Issuer,
		Audience: h.config.Audience,
		Group:    ring.Curve,
		RingID:   ring.ID,
		Scope:    session.Scope,
		KeyImage: keyImage,
		TTL:      h.config.TokenTTL,
	})
	if err != nil {
		http.Error(w, "failed to mint token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, CompleteResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.config.TokenTTL.Seconds()),
	})
}
