package mlsag

import (
	"encoding/hex"
	"math/big"

	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
	"github.com/mlsag/mlsag-go/pkg/crypto/hash"
)

func writeHex(o hash.Oracle, b []byte) {
	o.Write([]byte(hex.EncodeToString(b)))
}

// digestScalar reads a digest as a big-endian integer reduced mod N.
func (e *Engine) digestScalar(o hash.Oracle) curve.Scalar {
	return e.curve.NewScalar(new(big.Int).SetBytes(o.Sum()))
}

// hashToPoint computes Hp(X) = H(X)*G.
func (e *Engine) hashToPoint(p curve.Point) curve.Point {
	o := e.hash()
	writeHex(o, p.Bytes())
	return e.curve.ScalarBaseMult(e.digestScalar(o))
}

// challenge computes H(message, L[0], R[0], L[1], R[1], ...).
func (e *Engine) challenge(message []byte, L, R []curve.Point) curve.Scalar {
	o := e.hash()
	writeHex(o, message)
	for j := range L {
		writeHex(o, L[j].Bytes())
		writeHex(o, R[j].Bytes())
	}
	return e.digestScalar(o)
}
