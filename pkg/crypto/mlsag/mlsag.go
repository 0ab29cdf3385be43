// Package mlsag implements Multilayer Linkable Spontaneous Anonymous Group
// ring signatures (MLSAG, https://eprint.iacr.org/2015/1098.pdf).
//
// # Overview
//
// A ring is an n x m matrix P of public keys. The signer owns row pi and
// knows the secret vector x with x[j]*G == P[pi][j] for every column j. A
// signature convinces a verifier that the signer owns SOME row of P without
// revealing which one.
//
// Every signature carries a key image
//
//	I[j] = x[j] * Hp(P[pi][j])
//
// which depends only on the secret row. Two signatures made with the same
// row share the key image, whatever the message or the decoys. That is the
// linkability property services use to enforce one action per signer.
//
// # The Ring Walk
//
// Signing and verification share one step. Given the challenge c[k+1] and
// the responses s[k+1]:
//
//	L[k+1][j] = s[k+1][j]*G             + c[k+1]*P[k+1][j]
//	R[k+1][j] = s[k+1][j]*Hp(P[k+1][j]) + c[k+1]*I[j]
//	c[k+2]    = H(message, L[k+1][0], R[k+1][0], L[k+1][1], R[k+1][1], ...)
//
// The signer starts at its own row from random commitments alpha, walks the
// other n-1 rows with random responses, and closes the ring by choosing
//
//	s[pi][j] = alpha[j] - x[j]*c[pi]  (mod N)
//
// so that row pi reproduces its own commitments. The verifier starts at row
// 0 with the published c0 and walks all n rows; the signature is valid iff
// the walk returns to c0.
//
// # Hashing
//
// Every hash input is written to a fresh oracle as lowercase hex text:
// the message bytes, then points in their canonical group encoding. The
// digest is read as a big-endian integer and reduced mod N. Hp(X) is H(X)*G.
// The message comes first, and ring members and key images have the group's
// fixed encoding length. Commitments L and R may be the identity, which
// secp256k1 encodes as the single byte 0x00, so on that group the
// concatenation is fixed-width only while no commitment is the identity.
//
// Hp's discrete log is public, so a key image equals H(P)*P and anyone
// holding the ring can match it to its row. Signatures stay unforgeable,
// but signer anonymity against the key image holds only as far as the
// ring keys themselves are kept private. Hp is kept in this form so
// signatures interoperate with existing implementations of the scheme.
package mlsag

import (
	"fmt"

	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
	"github.com/mlsag/mlsag-go/pkg/crypto/hash"
)

// KeyMatrix is a ring of public keys: n rows of m keys each.
type KeyMatrix [][]curve.Point

// Signature is an MLSAG signature. It carries no public key material and no
// row index.
type Signature struct {
	// I is the key image, one point per column.
	I []curve.Point

	// C0 is the challenge entering row 0.
	C0 curve.Scalar

	// S holds one response per ring key, n x m.
	S [][]curve.Scalar
}

// Config selects the group and hash oracle by name.
type Config struct {
	Curve string `json:"curve"`
	Hash  string `json:"hash"`
}

// DefaultConfig returns ed25519 with SHA3-512.
func DefaultConfig() Config {
	return Config{
		Curve: curve.DefaultCurve,
		Hash:  hash.DefaultHash,
	}
}

// Engine signs and verifies over one group and one hash oracle. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	curve curve.Curve
	hash  hash.Factory
}

// New creates an engine. Both arguments are required.
func New(crv curve.Curve, h hash.Factory) *Engine {
	if crv == nil || h == nil {
		panic("mlsag: New requires a curve and a hash factory")
	}
	return &Engine{curve: crv, hash: h}
}

// NewFromConfig resolves the named group and hash and creates an engine.
func NewFromConfig(cfg Config) (*Engine, error) {
	crv, err := curve.FromName(cfg.Curve)
	if err != nil {
		return nil, fmt.Errorf("failed to configure curve: %w", err)
	}

	h, err := hash.FromName(cfg.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to configure hash: %w", err)
	}

	return New(crv, h), nil
}

// Curve returns the engine's group.
func (e *Engine) Curve() curve.Curve {
	return e.curve
}

// ringShape checks that P is a non-empty rectangular matrix and returns its
// dimensions.
func ringShape(P KeyMatrix) (n, m int, err error) {
	n = len(P)
	if n == 0 {
		return 0, 0, fmt.Errorf("%w: ring has no rows", ErrInvalidDecoyShape)
	}

	m = len(P[0])
	if m == 0 {
		return 0, 0, fmt.Errorf("%w: ring rows are empty", ErrInvalidDecoyShape)
	}

	for k, row := range P {
		if len(row) != m {
			return 0, 0, fmt.Errorf("%w: row %d has %d keys, expected %d", ErrInvalidDecoyShape, k, len(row), m)
		}
	}

	return n, m, nil
}

// ownsScalar reports whether s is a non-nil scalar of the engine's group.
// Scalars from another Curve implementation multiply to nil.
func (e *Engine) ownsScalar(s curve.Scalar) bool {
	return s != nil && e.curve.ScalarBaseMult(s) != nil
}

// validateRing rejects ring members that are nil, the identity or outside
// the prime-order subgroup.
func (e *Engine) validateRing(P KeyMatrix) error {
	for k, row := range P {
		for j, pk := range row {
			if pk == nil {
				return fmt.Errorf("%w: P[%d][%d] is nil", ErrInvalidPublicKey, k, j)
			}
			if err := e.curve.ValidatePoint(pk); err != nil {
				return fmt.Errorf("%w: P[%d][%d]: %v", ErrInvalidPublicKey, k, j, err)
			}
		}
	}
	return nil
}
