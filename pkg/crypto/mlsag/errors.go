package mlsag

import "fmt"

var (
	// ErrInvalidDecoyShape indicates a ring that is empty or not rectangular,
	// a row index outside the ring, a secret row of the wrong length, or a
	// signature whose dimensions do not match the ring.
	ErrInvalidDecoyShape = fmt.Errorf("invalid decoys")

	// ErrInvalidPublicKey indicates a ring member that is not a usable group
	// element.
	ErrInvalidPublicKey = fmt.Errorf("invalid public key in ring")

	// ErrInvalidPrivateKey indicates x[j]*G != P[pi][j] for some j.
	ErrInvalidPrivateKey = fmt.Errorf("invalid private key")

	// ErrAmbiguousSignatureInput indicates both a structured and an encoded
	// signature were supplied.
	ErrAmbiguousSignatureInput = fmt.Errorf("duplicate signature input")

	// ErrNoSignatureInput indicates no signature was supplied.
	ErrNoSignatureInput = fmt.Errorf("no signature input")

	// ErrNotAString indicates a non-string value was handed to the decoder.
	ErrNotAString = fmt.Errorf("signature must be a string")

	// ErrMalformedSignature indicates an encoded or structured signature that
	// cannot be interpreted over the engine's group.
	ErrMalformedSignature = fmt.Errorf("malformed signature")
)
