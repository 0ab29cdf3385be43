package mlsag

import (
	"fmt"
	"math/big"

	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
)

// Sign produces a signature on message by the owner of row pi of P, whose
// secret row is x.
//
// The ring shape, the row index and the secret row are all checked before
// any randomness is drawn. A secret that does not match P[pi] yields
// ErrInvalidPrivateKey.
func (e *Engine) Sign(message []byte, P KeyMatrix, pi int, x []curve.Scalar) (*Signature, error) {
	// ═══════════════════════════════════════════════════════════════════════
	// STEP 1: Check the ring and the signer's secret
	// ═══════════════════════════════════════════════════════════════════════

	n, m, err := ringShape(P)
	if err != nil {
		return nil, err
	}

	if pi < 0 || pi >= n {
		return nil, fmt.Errorf("%w: row index %d outside ring of %d rows", ErrInvalidDecoyShape, pi, n)
	}

	if len(x) != m {
		return nil, fmt.Errorf("%w: secret row has %d keys, expected %d", ErrInvalidDecoyShape, len(x), m)
	}

	if err := e.validateRing(P); err != nil {
		return nil, err
	}

	crv := e.curve
	for j := range x {
		if !e.ownsScalar(x[j]) || !crv.ScalarBaseMult(x[j]).Equal(P[pi][j]) {
			return nil, fmt.Errorf("%w: x[%d]*G does not match P[%d][%d]", ErrInvalidPrivateKey, j, pi, j)
		}
	}

	// ═══════════════════════════════════════════════════════════════════════
	// STEP 2: Key image and random commitments
	// ═══════════════════════════════════════════════════════════════════════

	r := e.newRing(message, P, n, m)

	r.I = make([]curve.Point, m)
	for j := range x {
		r.I[j] = crv.ScalarMult(r.hp[pi][j], x[j])
	}

	r.s = make([][]curve.Scalar, n)
	for k := range r.s {
		r.s[k] = make([]curve.Scalar, m)
		for j := range r.s[k] {
			if r.s[k][j], err = crv.GenerateScalar(); err != nil {
				return nil, fmt.Errorf("failed to generate response: %w", err)
			}
		}
	}

	alpha := make([]curve.Scalar, m)
	for j := range alpha {
		if alpha[j], err = crv.GenerateScalar(); err != nil {
			return nil, fmt.Errorf("failed to generate commitment: %w", err)
		}
	}

	r.L[pi] = make([]curve.Point, m)
	r.R[pi] = make([]curve.Point, m)
	for j := range alpha {
		r.L[pi][j] = crv.ScalarBaseMult(alpha[j])
		r.R[pi][j] = crv.ScalarMult(r.hp[pi][j], alpha[j])
	}

	// ═══════════════════════════════════════════════════════════════════════
	// STEP 3: Walk the other n-1 rows, starting after pi
	// ═══════════════════════════════════════════════════════════════════════

	for i := 0; i < n-1; i++ {
		r.step((pi+i)%n, false)
	}

	// ═══════════════════════════════════════════════════════════════════════
	// STEP 4: Close the ring at pi
	// ═══════════════════════════════════════════════════════════════════════
	// s[pi][j] = alpha[j] - x[j]*c[pi] makes row pi reproduce L[pi], R[pi]
	// when the verifier walks through it.

	prev := (pi + n - 1) % n
	r.c[pi] = e.challenge(message, r.L[prev], r.R[prev])

	order := crv.Order()
	cpi := r.c[pi].BigInt()
	for j := range alpha {
		v := new(big.Int).Mul(x[j].BigInt(), cpi)
		v.Sub(alpha[j].BigInt(), v)
		v.Mod(v, order)
		r.s[pi][j] = crv.NewScalar(v)
	}

	return &Signature{
		I:  r.I,
		C0: r.c[0],
		S:  r.s,
	}, nil
}
