package mlsag

import (
	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
)

// ring is the working state of one sign or verify call.
type ring struct {
	e       *Engine
	message []byte
	n, m    int

	P  KeyMatrix
	hp [][]curve.Point // hp[k][j] = Hp(P[k][j])
	I  []curve.Point
	s  [][]curve.Scalar

	c    []curve.Scalar
	L, R [][]curve.Point
}

func (e *Engine) newRing(message []byte, P KeyMatrix, n, m int) *ring {
	hp := make([][]curve.Point, n)
	for k := range P {
		hp[k] = make([]curve.Point, m)
		for j := range P[k] {
			hp[k][j] = e.hashToPoint(P[k][j])
		}
	}

	return &ring{
		e:       e,
		message: message,
		n:       n,
		m:       m,
		P:       P,
		hp:      hp,
		c:       make([]curve.Scalar, n),
		L:       make([][]curve.Point, n),
		R:       make([][]curve.Point, n),
	}
}

// step advances the ring walk from row k to row k+1 (mod n). Unless
// useGivenC is set, c[k+1] is first derived from L[k] and R[k]; k may be -1
// only with useGivenC.
func (r *ring) step(k int, useGivenC bool) {
	crv := r.e.curve
	next := (k + 1) % r.n

	if !useGivenC {
		r.c[next] = r.e.challenge(r.message, r.L[k], r.R[k])
	}

	c := r.c[next]
	L := make([]curve.Point, r.m)
	R := make([]curve.Point, r.m)
	for j := 0; j < r.m; j++ {
		s := r.s[next][j]
		L[j] = crv.Add(crv.ScalarBaseMult(s), crv.ScalarMult(r.P[next][j], c))
		R[j] = crv.Add(crv.ScalarMult(r.hp[next][j], s), crv.ScalarMult(r.I[j], c))
	}

	r.L[next] = L
	r.R[next] = R
}
