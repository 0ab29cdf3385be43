package mlsag

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
)

// Wire format:
//
//	<I0>:<I1>:...,<c0>,<s00>:<s01>:...;<s10>:<s11>:...;...
//
// Points are lowercase hex of the group's canonical encoding. Scalars are
// unpadded lowercase hex of their integer value.
const (
	segmentSep = ","
	columnSep  = ":"
	rowSep     = ";"
)

// EncodeSignature renders sig in wire form.
func EncodeSignature(sig *Signature) string {
	var b strings.Builder

	b.WriteString(EncodeKeyImage(sig.I))
	b.WriteString(segmentSep)
	b.WriteString(encodeScalar(sig.C0))
	b.WriteString(segmentSep)

	for k, row := range sig.S {
		if k > 0 {
			b.WriteString(rowSep)
		}
		for j, s := range row {
			if j > 0 {
				b.WriteString(columnSep)
			}
			b.WriteString(encodeScalar(s))
		}
	}

	return b.String()
}

// DecodeSignature parses a wire-form signature over the engine's group.
//
// Hex digits may be upper or lower case. Any input that is not a string is
// rejected with ErrNotAString; everything else that cannot be parsed is
// ErrMalformedSignature.
func (e *Engine) DecodeSignature(input any) (*Signature, error) {
	encoded, ok := input.(string)
	if !ok {
		return nil, ErrNotAString
	}

	segments := strings.Split(encoded, segmentSep)
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedSignature, len(segments))
	}

	images := strings.Split(segments[0], columnSep)
	I := make([]curve.Point, len(images))
	for j, s := range images {
		p, err := decodePoint(e.curve, s)
		if err != nil {
			return nil, fmt.Errorf("%w: key image %d: %v", ErrMalformedSignature, j, err)
		}
		I[j] = p
	}

	c0, err := decodeScalar(e.curve, segments[1])
	if err != nil {
		return nil, fmt.Errorf("%w: c0: %v", ErrMalformedSignature, err)
	}

	rows := strings.Split(segments[2], rowSep)
	S := make([][]curve.Scalar, len(rows))
	for k, row := range rows {
		cols := strings.Split(row, columnSep)
		if k > 0 && len(cols) != len(S[0]) {
			return nil, fmt.Errorf("%w: response row %d has %d scalars, expected %d", ErrMalformedSignature, k, len(cols), len(S[0]))
		}

		S[k] = make([]curve.Scalar, len(cols))
		for j, c := range cols {
			s, err := decodeScalar(e.curve, c)
			if err != nil {
				return nil, fmt.Errorf("%w: s[%d][%d]: %v", ErrMalformedSignature, k, j, err)
			}
			S[k][j] = s
		}
	}

	return &Signature{I: I, C0: c0, S: S}, nil
}

// EncodeKeyImage renders a key image as colon-separated point hex, the same
// form it takes inside an encoded signature.
func EncodeKeyImage(I []curve.Point) string {
	parts := make([]string, len(I))
	for j, p := range I {
		parts[j] = hex.EncodeToString(p.Bytes())
	}
	return strings.Join(parts, columnSep)
}

// DecodeKeyImage parses the key image segment of a wire-form signature and
// checks every point lies in the prime-order subgroup.
func (e *Engine) DecodeKeyImage(encoded string) ([]curve.Point, error) {
	parts := strings.Split(encoded, columnSep)
	I := make([]curve.Point, len(parts))
	for j, s := range parts {
		p, err := decodePoint(e.curve, s)
		if err != nil {
			return nil, fmt.Errorf("%w: key image %d: %v", ErrMalformedSignature, j, err)
		}
		if err := validateKeyImage(e.curve, p); err != nil {
			return nil, fmt.Errorf("%w: key image %d: %v", ErrMalformedSignature, j, err)
		}
		I[j] = p
	}
	return I, nil
}

// EncodeKeyMatrix renders every key of P as hex.
func EncodeKeyMatrix(P KeyMatrix) [][]string {
	out := make([][]string, len(P))
	for k, row := range P {
		out[k] = make([]string, len(row))
		for j, p := range row {
			out[k][j] = hex.EncodeToString(p.Bytes())
		}
	}
	return out
}

// DecodeKeyMatrix parses a hex key matrix, requiring it to be rectangular
// and every key to be a valid group element.
func DecodeKeyMatrix(crv curve.Curve, keys [][]string) (KeyMatrix, error) {
	P := make(KeyMatrix, len(keys))
	for k, row := range keys {
		P[k] = make([]curve.Point, len(row))
		for j, s := range row {
			p, err := decodePoint(crv, s)
			if err != nil {
				return nil, fmt.Errorf("%w: P[%d][%d]: %v", ErrInvalidPublicKey, k, j, err)
			}
			P[k][j] = p
		}
	}

	if _, _, err := ringShape(P); err != nil {
		return nil, err
	}

	return P, nil
}

func decodePoint(crv curve.Curve, s string) (curve.Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return crv.ParsePoint(b)
}

func encodeScalar(s curve.Scalar) string {
	return s.BigInt().Text(16)
}

// decodeScalar parses unpadded hex into a scalar in [0, N-1].
func decodeScalar(crv curve.Curve, s string) (curve.Scalar, error) {
	if s == "" {
		return nil, fmt.Errorf("empty scalar")
	}

	for _, r := range s {
		if !isHexDigit(r) {
			return nil, fmt.Errorf("invalid hex digit %q", r)
		}
	}

	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid scalar %q", s)
	}

	if v.Cmp(crv.Order()) >= 0 {
		return nil, fmt.Errorf("%w: scalar exceeds group order", curve.ErrInvalidScalar)
	}

	return crv.NewScalar(v), nil
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}
