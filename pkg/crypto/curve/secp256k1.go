package curve

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
)

// Secp256k1Point represents a point on the secp256k1 curve.
// The Jacobian coordinates are always kept in affine form (Z = 1); the point
// at infinity is stored as X = Y = 0.
type Secp256k1Point struct {
	point btcec.JacobianPoint
}

func newSecp256k1Point(j *btcec.JacobianPoint) *Secp256k1Point {
	p := &Secp256k1Point{}
	p.point.Set(j)
	p.point.ToAffine()
	return p
}

// Bytes returns the compressed point encoding (33 bytes)
func (p *Secp256k1Point) Bytes() []byte {
	if p.IsIdentity() {
		return []byte{0x00}
	}
	return btcec.NewPublicKey(&p.point.X, &p.point.Y).SerializeCompressed()
}

// Equal checks if two points are equal
func (p *Secp256k1Point) Equal(other Point) bool {
	otherSecp, ok := other.(*Secp256k1Point)
	if !ok || otherSecp == nil {
		return false
	}
	return p.point.X.Equals(&otherSecp.point.X) && p.point.Y.Equals(&otherSecp.point.Y)
}

// IsIdentity checks if this is the identity point (point at infinity)
func (p *Secp256k1Point) IsIdentity() bool {
	return p.point.X.IsZero() && p.point.Y.IsZero()
}

// Secp256k1Scalar represents a scalar for secp256k1 operations
type Secp256k1Scalar struct {
	scalar btcec.ModNScalar
}

// Bytes returns the scalar as a 32-byte slice (big-endian)
func (s *Secp256k1Scalar) Bytes() []byte {
	b := s.scalar.Bytes()
	return b[:]
}

// BigInt returns the scalar as a big.Int
func (s *Secp256k1Scalar) BigInt() *big.Int {
	return new(big.Int).SetBytes(s.Bytes())
}

// Secp256k1Curve implements the Curve interface for secp256k1
type Secp256k1Curve struct{}

// NewSecp256k1 creates a new secp256k1 curve instance
func NewSecp256k1() Curve {
	return &Secp256k1Curve{}
}

// Name returns the curve name
func (c *Secp256k1Curve) Name() string {
	return "secp256k1"
}

// Generator returns the secp256k1 base point
func (c *Secp256k1Curve) Generator() Point {
	var g btcec.JacobianPoint
	btcec.GeneratorJacobian(&g)
	return newSecp256k1Point(&g)
}

// ParsePoint parses a point from bytes (33-byte compressed or 65-byte uncompressed)
func (c *Secp256k1Curve) ParsePoint(b []byte) (Point, error) {
	if len(b) == 0 {
		return nil, ErrInvalidPoint
	}

	pubKey, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}

	var j btcec.JacobianPoint
	pubKey.AsJacobian(&j)
	point := newSecp256k1Point(&j)

	if err := c.ValidatePoint(point); err != nil {
		return nil, err
	}

	return point, nil
}

// ParseScalar parses a scalar from bytes (32 bytes, big-endian)
func (c *Secp256k1Curve) ParseScalar(b []byte) (Scalar, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidScalar, len(b))
	}

	s := &Secp256k1Scalar{}
	if overflow := s.scalar.SetByteSlice(b); overflow || s.scalar.IsZero() {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidScalar)
	}

	return s, nil
}

// NewScalar reduces k modulo the curve order
func (c *Secp256k1Curve) NewScalar(k *big.Int) Scalar {
	s := &Secp256k1Scalar{}
	s.scalar.SetByteSlice(reduce(k, c.Order()))
	return s
}

// ScalarBaseMult computes s * G (scalar multiplication with generator)
func (c *Secp256k1Curve) ScalarBaseMult(s Scalar) Point {
	secpScalar, ok := s.(*Secp256k1Scalar)
	if !ok || secpScalar == nil {
		return nil
	}

	var result btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&secpScalar.scalar, &result)
	return newSecp256k1Point(&result)
}

// ScalarMult computes s * P (scalar multiplication)
func (c *Secp256k1Curve) ScalarMult(p Point, s Scalar) Point {
	secpPoint, ok := p.(*Secp256k1Point)
	if !ok || secpPoint == nil {
		return nil
	}
	secpScalar, ok := s.(*Secp256k1Scalar)
	if !ok || secpScalar == nil {
		return nil
	}

	// The endomorphism-based multiplication expects a finite input point.
	if secpPoint.IsIdentity() || secpScalar.scalar.IsZero() {
		return &Secp256k1Point{}
	}

	var result btcec.JacobianPoint
	btcec.ScalarMultNonConst(&secpScalar.scalar, &secpPoint.point, &result)
	return newSecp256k1Point(&result)
}

// Add adds two points: P + Q
func (c *Secp256k1Curve) Add(p, q Point) Point {
	secpP, ok := p.(*Secp256k1Point)
	if !ok || secpP == nil {
		return nil
	}
	secpQ, ok := q.(*Secp256k1Point)
	if !ok || secpQ == nil {
		return nil
	}

	var result btcec.JacobianPoint
	btcec.AddNonConst(&secpP.point, &secpQ.point, &result)
	return newSecp256k1Point(&result)
}

// Sub computes P - Q
func (c *Secp256k1Curve) Sub(p, q Point) Point {
	negQ := c.Neg(q)
	if negQ == nil {
		return nil
	}
	return c.Add(p, negQ)
}

// Neg computes -P by negating the affine y-coordinate
func (c *Secp256k1Curve) Neg(p Point) Point {
	secpP, ok := p.(*Secp256k1Point)
	if !ok || secpP == nil {
		return nil
	}

	neg := newSecp256k1Point(&secpP.point)
	if neg.IsIdentity() {
		return neg
	}
	neg.point.Y.Negate(1).Normalize()
	return neg
}

// Order returns the order of the secp256k1 curve
func (c *Secp256k1Curve) Order() *big.Int {
	return btcec.S256().N
}

// GenerateScalar samples a scalar uniformly from [1, n-1] by rejection
func (c *Secp256k1Curve) GenerateScalar() (Scalar, error) {
	var buf [32]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("failed to generate scalar: %w", err)
		}

		s := &Secp256k1Scalar{}
		if overflow := s.scalar.SetByteSlice(buf[:]); overflow || s.scalar.IsZero() {
			continue
		}
		return s, nil
	}
}

// ValidatePoint validates that a point is on the curve and not the identity
func (c *Secp256k1Curve) ValidatePoint(p Point) error {
	secpPoint, ok := p.(*Secp256k1Point)
	if !ok || secpPoint == nil {
		return ErrInvalidPoint
	}

	if secpPoint.IsIdentity() {
		return ErrIdentityPoint
	}

	pubKey := btcec.NewPublicKey(&secpPoint.point.X, &secpPoint.point.Y)
	if !pubKey.IsOnCurve() {
		return ErrPointNotOnCurve
	}

	return nil
}
