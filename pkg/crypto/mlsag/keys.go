package mlsag

import (
	"fmt"

	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
)

// KeyRow is one ring member's key material: m secrets and their public
// keys.
type KeyRow struct {
	Secret []curve.Scalar
	Public []curve.Point
}

// GenerateKeyRow draws m fresh key pairs.
func GenerateKeyRow(crv curve.Curve, m int) (*KeyRow, error) {
	if m < 1 {
		return nil, fmt.Errorf("%w: row must have at least one key", ErrInvalidDecoyShape)
	}

	row := &KeyRow{
		Secret: make([]curve.Scalar, m),
		Public: make([]curve.Point, m),
	}

	for j := 0; j < m; j++ {
		x, err := crv.GenerateScalar()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		row.Secret[j] = x
		row.Public[j] = crv.ScalarBaseMult(x)
	}

	return row, nil
}

// GenerateKeyMatrix draws an n x m ring of fresh key pairs and returns the
// rows together with the public matrix.
func GenerateKeyMatrix(crv curve.Curve, n, m int) ([]*KeyRow, KeyMatrix, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("%w: ring must have at least one row", ErrInvalidDecoyShape)
	}

	rows := make([]*KeyRow, n)
	for k := range rows {
		row, err := GenerateKeyRow(crv, m)
		if err != nil {
			return nil, nil, err
		}
		rows[k] = row
	}

	return rows, PublicMatrix(rows), nil
}

// PublicMatrix collects the public keys of rows into a ring.
func PublicMatrix(rows []*KeyRow) KeyMatrix {
	P := make(KeyMatrix, len(rows))
	for k, row := range rows {
		P[k] = row.Public
	}
	return P
}

// KeyImage computes the key image a signer with secret row x and public row
// pub will attach to every signature.
func (e *Engine) KeyImage(pub []curve.Point, x []curve.Scalar) ([]curve.Point, error) {
	if len(pub) == 0 || len(pub) != len(x) {
		return nil, fmt.Errorf("%w: public row has %d keys, secret row has %d", ErrInvalidDecoyShape, len(pub), len(x))
	}

	I := make([]curve.Point, len(x))
	for j := range x {
		if pub[j] == nil || !e.ownsScalar(x[j]) || !e.curve.ScalarBaseMult(x[j]).Equal(pub[j]) {
			return nil, fmt.Errorf("%w: x[%d]*G does not match public key %d", ErrInvalidPrivateKey, j, j)
		}
		I[j] = e.curve.ScalarMult(e.hashToPoint(pub[j]), x[j])
	}

	return I, nil
}
