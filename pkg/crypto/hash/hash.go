// Package hash provides the hash oracles used to derive challenges and
// hash-to-point values in ring signatures.
//
// An Oracle is a single-use streaming digest: callers write inputs in order
// and call Sum once. Oracles are never shared; a Factory builds a fresh
// instance for every hash computation so concurrent callers cannot corrupt
// each other's state.
package hash

import (
	"crypto/sha256"
	stdhash "hash"
	"io"

	"golang.org/x/crypto/sha3"
)

// Oracle is a streaming hash instance.
type Oracle interface {
	// Write feeds the next input. It never returns an error.
	io.Writer

	// Sum finalizes the digest and returns it.
	Sum() []byte
}

// Factory constructs a fresh Oracle.
type Factory func() Oracle

// digestOracle adapts a fixed-output hash.Hash.
type digestOracle struct {
	h stdhash.Hash
}

func (o *digestOracle) Write(p []byte) (int, error) { return o.h.Write(p) }
func (o *digestOracle) Sum() []byte                 { return o.h.Sum(nil) }

// FromHash returns a Factory wrapping a standard library style constructor.
func FromHash(newHash func() stdhash.Hash) Factory {
	return func() Oracle {
		return &digestOracle{h: newHash()}
	}
}

// shakeOracle reads a configurable number of bytes from an extendable-output
// function.
type shakeOracle struct {
	h    sha3.ShakeHash
	size int
}

func (o *shakeOracle) Write(p []byte) (int, error) { return o.h.Write(p) }

// Sum squeezes from a clone so repeated calls return the same digest.
func (o *shakeOracle) Sum() []byte {
	out := make([]byte, o.size)
	o.h.Clone().Read(out)
	return out
}

// Shake256 returns a Factory producing SHAKE256 digests of size bytes.
func Shake256(size int) Factory {
	return func() Oracle {
		return &shakeOracle{h: sha3.NewShake256(), size: size}
	}
}

// SHA3512 returns a Factory for SHA3-512.
func SHA3512() Factory { return FromHash(sha3.New512) }

// SHA3256 returns a Factory for SHA3-256.
func SHA3256() Factory { return FromHash(sha3.New256) }

// Keccak256 returns a Factory for the pre-standard Keccak-256 used by
// Ethereum.
func Keccak256() Factory { return FromHash(sha3.NewLegacyKeccak256) }

// SHA256 returns a Factory for SHA-256.
func SHA256() Factory { return FromHash(sha256.New) }
