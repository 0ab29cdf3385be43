package mlsag

import (
	"fmt"

	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
)

// VerifyInput carries a signature in exactly one of its two forms.
type VerifyInput struct {
	// Signature is an already decoded signature.
	Signature *Signature

	// Encoded is a signature in wire form. It is normally a string; any
	// other non-nil value is rejected with ErrNotAString.
	Encoded any
}

// Verify reports whether sig is a valid signature on message by the owner
// of some row of P.
//
// A signature that fails the ring walk returns false with a nil error.
// Errors are reserved for unusable inputs: a malformed ring, or a signature
// whose dimensions do not match it.
func (e *Engine) Verify(message []byte, P KeyMatrix, sig *Signature) (bool, error) {
	if sig == nil {
		return false, ErrNoSignatureInput
	}

	n, m, err := ringShape(P)
	if err != nil {
		return false, err
	}

	if err := e.validateRing(P); err != nil {
		return false, err
	}

	if err := e.checkSignature(sig, n, m); err != nil {
		return false, err
	}

	r := e.newRing(message, P, n, m)
	r.I = sig.I
	r.s = sig.S
	r.c[0] = sig.C0

	// Enter row 0 with the published challenge, then walk the whole ring.
	r.step(-1, true)
	for k := 0; k < n; k++ {
		r.step(k, false)
	}

	return r.c[0].BigInt().Cmp(sig.C0.BigInt()) == 0, nil
}

// VerifyEncoded decodes a wire-form signature and verifies it.
func (e *Engine) VerifyEncoded(message []byte, P KeyMatrix, encoded string) (bool, error) {
	sig, err := e.DecodeSignature(encoded)
	if err != nil {
		return false, err
	}
	return e.Verify(message, P, sig)
}

// VerifyInput verifies a signature supplied in exactly one form.
func (e *Engine) VerifyInput(message []byte, P KeyMatrix, in VerifyInput) (bool, error) {
	switch {
	case in.Signature != nil && in.Encoded != nil:
		return false, ErrAmbiguousSignatureInput
	case in.Signature == nil && in.Encoded == nil:
		return false, ErrNoSignatureInput
	case in.Signature != nil:
		return e.Verify(message, P, in.Signature)
	}

	sig, err := e.DecodeSignature(in.Encoded)
	if err != nil {
		return false, err
	}
	return e.Verify(message, P, sig)
}

// checkSignature matches the signature's dimensions to an n x m ring and
// rejects missing components and unusable key images.
func (e *Engine) checkSignature(sig *Signature, n, m int) error {
	if len(sig.I) != m {
		return fmt.Errorf("%w: key image has %d points, ring has %d columns", ErrInvalidDecoyShape, len(sig.I), m)
	}

	if len(sig.S) != n {
		return fmt.Errorf("%w: signature has %d response rows, ring has %d rows", ErrInvalidDecoyShape, len(sig.S), n)
	}

	for k, row := range sig.S {
		if len(row) != m {
			return fmt.Errorf("%w: response row %d has %d scalars, expected %d", ErrInvalidDecoyShape, k, len(row), m)
		}
		for j, s := range row {
			if !e.ownsScalar(s) {
				return fmt.Errorf("%w: response s[%d][%d] is missing or not in the group", ErrMalformedSignature, k, j)
			}
		}
	}

	if !e.ownsScalar(sig.C0) {
		return fmt.Errorf("%w: c0 is missing or not in the group", ErrMalformedSignature)
	}

	for j, img := range sig.I {
		if err := validateKeyImage(e.curve, img); err != nil {
			return fmt.Errorf("%w: key image %d: %v", ErrMalformedSignature, j, err)
		}
	}

	return nil
}

// validateKeyImage rejects key images outside the prime-order subgroup. On
// ed25519 a torsion component would let one secret produce several distinct
// key images.
func validateKeyImage(crv curve.Curve, img curve.Point) error {
	if img == nil {
		return curve.ErrInvalidPoint
	}
	return crv.ValidatePoint(img)
}
