// Package curve provides abstract interfaces for the prime-order groups that
// back MLSAG ring signatures.
//
// # Supported Groups
//
//   - ed25519: the twisted Edwards curve used by EdDSA and by most deployed
//     linkable ring signature schemes. Points are 32 bytes (compressed
//     Edwards y with the sign of x). The group has cofactor 8, so points
//     accepted from the outside are checked for membership in the
//     prime-order subgroup.
//
//   - secp256k1: the Koblitz curve used by Bitcoin and Ethereum. Points are
//     33 bytes (SEC1 compressed). Scalars are 32 bytes.
//
//   - ristretto255: a prime-order group built on Curve25519. Points and
//     scalars are both 32 bytes.
//
// # Group Basics
//
// A group consists of:
//   - A set of points (including a special "identity" point)
//   - A generator point G
//   - A group order N (every scalar is an integer modulo N)
//
// Arithmetic results may be the identity point. Parsing is strict and rejects
// identity and malformed encodings, so anything that crosses a trust boundary
// goes through ParsePoint or ValidatePoint.
package curve

import (
	"fmt"
	"math/big"
)

// Point represents an element of the group.
type Point interface {
	// Bytes returns the canonical serialization of the point.
	// For ed25519 and ristretto255: 32 bytes
	// For secp256k1: 33 bytes (compressed), or the single byte 0x00 for the
	// point at infinity
	Bytes() []byte

	// Equal checks if two points are equal.
	Equal(other Point) bool

	// IsIdentity checks if this is the identity point.
	IsIdentity() bool
}

// Scalar represents an integer modulo the group order.
//
// Scalars are used as:
//   - Private keys (x where the public key is x*G)
//   - Nonces (alpha in the signer's commitments)
//   - Challenges (hash output reduced mod N)
//   - Responses (s = alpha - c*x mod N)
type Scalar interface {
	// Bytes returns the scalar as a fixed-size big-endian byte slice.
	Bytes() []byte

	// BigInt returns the scalar as a big.Int for arithmetic operations.
	BigInt() *big.Int
}

// Curve abstracts the group operations consumed by the ring engine.
//
// Implementations never panic on arithmetic involving the identity point and
// return nil only when handed a point or scalar that belongs to a different
// implementation.
type Curve interface {
	// Name returns the group identifier (e.g., "ed25519", "secp256k1").
	Name() string

	// Generator returns the canonical generator G.
	Generator() Point

	// Order returns N, the order of the group's prime-order subgroup.
	// The returned value is shared and must not be modified.
	Order() *big.Int

	// ParsePoint deserializes a point from bytes.
	// Rejects malformed encodings, the identity and points outside the
	// prime-order subgroup.
	ParsePoint(b []byte) (Point, error)

	// ParseScalar deserializes a fixed-size big-endian scalar.
	// Validates that the scalar is in range [1, N-1].
	ParseScalar(b []byte) (Scalar, error)

	// NewScalar returns k mod N. Zero is allowed.
	NewScalar(k *big.Int) Scalar

	// ScalarBaseMult computes s * G.
	ScalarBaseMult(s Scalar) Point

	// ScalarMult computes s * P.
	ScalarMult(p Point, s Scalar) Point

	// Add computes P + Q.
	Add(p, q Point) Point

	// Sub computes P - Q.
	Sub(p, q Point) Point

	// Neg computes -P.
	Neg(p Point) Point

	// GenerateScalar returns a uniformly random scalar in [1, N-1] drawn
	// from crypto/rand.
	GenerateScalar() (Scalar, error)

	// ValidatePoint checks that a point is usable as a public value.
	ValidatePoint(p Point) error
}

var (
	// ErrInvalidPoint indicates an invalid point
	ErrInvalidPoint = fmt.Errorf("invalid point")

	// ErrInvalidScalar indicates an invalid scalar
	ErrInvalidScalar = fmt.Errorf("invalid scalar")

	// ErrIdentityPoint indicates the point is the identity point
	ErrIdentityPoint = fmt.Errorf("point is identity")

	// ErrPointNotOnCurve indicates the point is not on the curve
	ErrPointNotOnCurve = fmt.Errorf("point is not on curve")

	// ErrSmallSubgroup indicates the point has a torsion component
	ErrSmallSubgroup = fmt.Errorf("point is not in the prime-order subgroup")
)

// ScalarSize returns the byte length of a fixed-size scalar encoding for crv.
func ScalarSize(crv Curve) int {
	return (crv.Order().BitLen() + 7) / 8
}

// reverse returns a reversed copy of b. Used to convert between the
// little-endian encodings of the 25519 libraries and big-endian Scalar.Bytes.
func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}

// reduce returns k mod order as a 32-byte big-endian slice.
func reduce(k, order *big.Int) []byte {
	r := new(big.Int).Mod(k, order)
	return r.FillBytes(make([]byte, 32))
}
