package hash

import (
	"fmt"
	stdhash "hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// DefaultHash is the oracle used when no name is configured.
const DefaultHash = "sha3-512"

// FromName returns a Factory for the named hash.
//
// Fixed-output names: sha3-256, sha3-512, keccak256, sha256.
// Configurable output length, in bits: blake2b-<bits> (8..512) and
// shake256-<bits> (multiple of 8, at least 256).
func FromName(name string) (Factory, error) {
	name = strings.ToLower(name)

	switch name {
	case "", "sha3-512":
		return SHA3512(), nil
	case "sha3-256":
		return SHA3256(), nil
	case "keccak256":
		return Keccak256(), nil
	case "sha256":
		return SHA256(), nil
	}

	family, bitsStr, ok := strings.Cut(name, "-")
	if !ok {
		return nil, fmt.Errorf("unsupported hash: %s", name)
	}

	bits, err := strconv.Atoi(bitsStr)
	if err != nil || bits <= 0 || bits%8 != 0 {
		return nil, fmt.Errorf("unsupported hash: %s: invalid output length", name)
	}

	switch family {
	case "blake2b":
		return Blake2b(bits / 8)
	case "shake256":
		if bits < 256 {
			return nil, fmt.Errorf("unsupported hash: %s: output shorter than 256 bits", name)
		}
		return Shake256(bits / 8), nil
	default:
		return nil, fmt.Errorf("unsupported hash: %s", name)
	}
}

// Blake2b returns a Factory for unkeyed BLAKE2b with the given digest size in
// bytes.
func Blake2b(size int) (Factory, error) {
	// Probe once so an invalid size fails at configuration time.
	if _, err := blake2b.New(size, nil); err != nil {
		return nil, fmt.Errorf("unsupported hash: blake2b-%d: %w", size*8, err)
	}

	return FromHash(func() stdhash.Hash {
		h, _ := blake2b.New(size, nil)
		return h
	}), nil
}

// SupportedHashes lists representative names accepted by FromName.
func SupportedHashes() []string {
	return []string{"sha3-512", "sha3-256", "keccak256", "sha256", "blake2b-256", "blake2b-512", "shake256-512"}
}
