package curve

import (
	"fmt"
	"strings"
)

// DefaultCurve is the group used when no name is configured.
const DefaultCurve = "ed25519"

// FromName returns a Curve implementation that matches the provided name.
func FromName(name string) (Curve, error) {
	switch strings.ToLower(name) {
	case "", "ed25519":
		return NewEd25519(), nil
	case "secp256k1":
		return NewSecp256k1(), nil
	case "ristretto255":
		return NewRistretto255(), nil
	default:
		return nil, fmt.Errorf("unsupported curve: %s", name)
	}
}

// SupportedCurves lists the curve identifiers understood by FromName.
func SupportedCurves() []string {
	return []string{"ed25519", "secp256k1", "ristretto255"}
}
