package curve

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"filippo.io/edwards25519"
)

// orderMinusOne is l-1, used for the prime-order subgroup membership test.
var orderMinusOne = func() *edwards25519.Scalar {
	k := new(big.Int).Sub(order25519, big.NewInt(1))
	s, err := edwards25519.NewScalar().SetCanonicalBytes(reverse(k.FillBytes(make([]byte, 32))))
	if err != nil {
		panic(err)
	}
	return s
}()

// Ed25519Point represents a point on the edwards25519 curve.
type Ed25519Point struct {
	point *edwards25519.Point
}

// Bytes returns the 32-byte compressed Edwards encoding.
func (p *Ed25519Point) Bytes() []byte {
	if p == nil || p.point == nil {
		return nil
	}
	return p.point.Bytes()
}

// Equal reports whether two points are identical.
func (p *Ed25519Point) Equal(other Point) bool {
	otherE, ok := other.(*Ed25519Point)
	if !ok {
		return false
	}

	switch {
	case p == nil && otherE == nil:
		return true
	case p == nil || otherE == nil:
		return false
	}

	return p.point.Equal(otherE.point) == 1
}

// IsIdentity reports whether the point is the neutral element.
func (p *Ed25519Point) IsIdentity() bool {
	if p == nil || p.point == nil {
		return true
	}
	return p.point.Equal(edwards25519.NewIdentityPoint()) == 1
}

// Ed25519Scalar is a scalar modulo l.
type Ed25519Scalar struct {
	scalar *edwards25519.Scalar
}

// Bytes returns the 32-byte big-endian encoding of the scalar.
func (s *Ed25519Scalar) Bytes() []byte {
	if s == nil || s.scalar == nil {
		return nil
	}
	return reverse(s.scalar.Bytes())
}

// BigInt returns the scalar value as a big.Int.
func (s *Ed25519Scalar) BigInt() *big.Int {
	if s == nil || s.scalar == nil {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(s.Bytes())
}

// Ed25519Curve implements the Curve interface over the prime-order subgroup
// of edwards25519.
type Ed25519Curve struct{}

// NewEd25519 creates a new ed25519 curve instance.
func NewEd25519() Curve {
	return &Ed25519Curve{}
}

// Name returns the curve name.
func (c *Ed25519Curve) Name() string {
	return "ed25519"
}

// Generator returns the ed25519 base point.
func (c *Ed25519Curve) Generator() Point {
	return &Ed25519Point{point: edwards25519.NewGeneratorPoint()}
}

// ParsePoint decodes a 32-byte compressed Edwards point.
func (c *Ed25519Curve) ParsePoint(b []byte) (Point, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidPoint, len(b))
	}

	p, err := edwards25519.NewIdentityPoint().SetBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}

	point := &Ed25519Point{point: p}
	if err := c.ValidatePoint(point); err != nil {
		return nil, err
	}

	return point, nil
}

// ParseScalar decodes a 32-byte big-endian scalar in [1, l-1].
func (c *Ed25519Curve) ParseScalar(b []byte) (Scalar, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidScalar, len(b))
	}

	bi := new(big.Int).SetBytes(b)
	if bi.Sign() <= 0 || bi.Cmp(c.Order()) >= 0 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidScalar)
	}

	sc, err := edwards25519.NewScalar().SetCanonicalBytes(reverse(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScalar, err)
	}

	return &Ed25519Scalar{scalar: sc}, nil
}

// NewScalar reduces k modulo l.
func (c *Ed25519Curve) NewScalar(k *big.Int) Scalar {
	sc, err := edwards25519.NewScalar().SetCanonicalBytes(reverse(reduce(k, c.Order())))
	if err != nil {
		// unreachable: reduce always yields a canonical value
		panic(err)
	}
	return &Ed25519Scalar{scalar: sc}
}

// ScalarBaseMult computes s * B.
func (c *Ed25519Curve) ScalarBaseMult(s Scalar) Point {
	es, ok := s.(*Ed25519Scalar)
	if !ok || es == nil || es.scalar == nil {
		return nil
	}
	return &Ed25519Point{point: edwards25519.NewIdentityPoint().ScalarBaseMult(es.scalar)}
}

// ScalarMult computes s * P.
func (c *Ed25519Curve) ScalarMult(p Point, s Scalar) Point {
	ep, ok := p.(*Ed25519Point)
	if !ok || ep == nil || ep.point == nil {
		return nil
	}
	es, ok := s.(*Ed25519Scalar)
	if !ok || es == nil || es.scalar == nil {
		return nil
	}
	return &Ed25519Point{point: edwards25519.NewIdentityPoint().ScalarMult(es.scalar, ep.point)}
}

// Add computes P + Q.
func (c *Ed25519Curve) Add(p, q Point) Point {
	ep, ok := p.(*Ed25519Point)
	if !ok || ep == nil || ep.point == nil {
		return nil
	}
	eq, ok := q.(*Ed25519Point)
	if !ok || eq == nil || eq.point == nil {
		return nil
	}
	return &Ed25519Point{point: edwards25519.NewIdentityPoint().Add(ep.point, eq.point)}
}

// Sub computes P - Q.
func (c *Ed25519Curve) Sub(p, q Point) Point {
	ep, ok := p.(*Ed25519Point)
	if !ok || ep == nil || ep.point == nil {
		return nil
	}
	eq, ok := q.(*Ed25519Point)
	if !ok || eq == nil || eq.point == nil {
		return nil
	}
	return &Ed25519Point{point: edwards25519.NewIdentityPoint().Subtract(ep.point, eq.point)}
}

// Neg computes -P.
func (c *Ed25519Curve) Neg(p Point) Point {
	ep, ok := p.(*Ed25519Point)
	if !ok || ep == nil || ep.point == nil {
		return nil
	}
	return &Ed25519Point{point: edwards25519.NewIdentityPoint().Negate(ep.point)}
}

// Order returns l, the order of the base point subgroup.
func (c *Ed25519Curve) Order() *big.Int {
	return order25519
}

// GenerateScalar returns a uniformly random non-zero scalar.
func (c *Ed25519Curve) GenerateScalar() (Scalar, error) {
	seed := make([]byte, 64)
	for {
		if _, err := rand.Read(seed); err != nil {
			return nil, fmt.Errorf("failed to generate random scalar: %w", err)
		}

		sc, err := edwards25519.NewScalar().SetUniformBytes(seed)
		if err != nil {
			return nil, fmt.Errorf("failed to derive scalar: %w", err)
		}

		s := &Ed25519Scalar{scalar: sc}
		if s.BigInt().Sign() != 0 {
			return s, nil
		}
	}
}

// ValidatePoint rejects the identity and any point with a torsion component.
// A point P is in the prime-order subgroup iff (l-1)*P == -P.
func (c *Ed25519Curve) ValidatePoint(p Point) error {
	ep, ok := p.(*Ed25519Point)
	if !ok || ep == nil || ep.point == nil {
		return ErrInvalidPoint
	}

	if ep.IsIdentity() {
		return ErrIdentityPoint
	}

	lhs := edwards25519.NewIdentityPoint().ScalarMult(orderMinusOne, ep.point)
	rhs := edwards25519.NewIdentityPoint().Negate(ep.point)
	if lhs.Equal(rhs) != 1 {
		return ErrSmallSubgroup
	}

	return nil
}
