package mlsag

import (
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
)

// newTestEngine builds an engine for the named curve with the default hash.
func newTestEngine(t testing.TB, curveName string) *Engine {
	t.Helper()

	e, err := NewFromConfig(Config{Curve: curveName})
	if err != nil {
		t.Fatalf("NewFromConfig(%s): %v", curveName, err)
	}
	return e
}

// newTestRing generates an n x m ring and returns its rows and public matrix.
func newTestRing(t testing.TB, crv curve.Curve, n, m int) ([]*KeyRow, KeyMatrix) {
	t.Helper()

	rows, P, err := GenerateKeyMatrix(crv, n, m)
	if err != nil {
		t.Fatalf("GenerateKeyMatrix: %v", err)
	}
	return rows, P
}

func plusOne(crv curve.Curve, s curve.Scalar) curve.Scalar {
	return crv.NewScalar(new(big.Int).Add(s.BigInt(), big.NewInt(1)))
}

func TestSignVerifyEveryRow(t *testing.T) {
	for _, name := range curve.SupportedCurves() {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, name)
			rows, P := newTestRing(t, e.Curve(), 4, 2)
			message := []byte("Hello World!")

			for pi := range rows {
				sig, err := e.Sign(message, P, pi, rows[pi].Secret)
				if err != nil {
					t.Fatalf("Sign(pi=%d) failed: %v", pi, err)
				}

				valid, err := e.Verify(message, P, sig)
				if err != nil {
					t.Fatalf("Verify(pi=%d) failed: %v", pi, err)
				}
				if !valid {
					t.Errorf("signature from row %d should verify", pi)
				}
			}
		})
	}
}

func TestSingleRowRing(t *testing.T) {
	e := newTestEngine(t, "ed25519")
	rows, P := newTestRing(t, e.Curve(), 1, 3)

	sig, err := e.Sign([]byte("alone"), P, 0, rows[0].Secret)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	valid, err := e.Verify([]byte("alone"), P, sig)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !valid {
		t.Error("single-row signature should verify")
	}
}

func TestEmptyMessage(t *testing.T) {
	e := newTestEngine(t, "secp256k1")
	rows, P := newTestRing(t, e.Curve(), 3, 1)

	sig, err := e.Sign(nil, P, 2, rows[2].Secret)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if valid, _ := e.Verify([]byte{}, P, sig); !valid {
		t.Error("nil and empty messages should hash identically")
	}
}

func TestLinkability(t *testing.T) {
	e := newTestEngine(t, "ed25519")
	rows, P := newTestRing(t, e.Curve(), 5, 2)

	t.Run("SameRowSameImage", func(t *testing.T) {
		sig1, err := e.Sign([]byte("Hello World!"), P, 1, rows[1].Secret)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}
		sig2, err := e.Sign([]byte("Bye!"), P, 1, rows[1].Secret)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}

		if EncodeKeyImage(sig1.I) != EncodeKeyImage(sig2.I) {
			t.Error("key image should not depend on the message")
		}
	})

	t.Run("SameRowDifferentDecoys", func(t *testing.T) {
		_, other := newTestRing(t, e.Curve(), 3, 2)
		other[0] = P[1]

		sig1, err := e.Sign([]byte("m"), P, 1, rows[1].Secret)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}
		sig2, err := e.Sign([]byte("m"), other, 0, rows[1].Secret)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}

		if EncodeKeyImage(sig1.I) != EncodeKeyImage(sig2.I) {
			t.Error("key image should not depend on the decoys")
		}
	})

	t.Run("DifferentRowsDifferentImages", func(t *testing.T) {
		seen := make(map[string]int)
		for pi := range rows {
			sig, err := e.Sign([]byte("m"), P, pi, rows[pi].Secret)
			if err != nil {
				t.Fatalf("Sign failed: %v", err)
			}
			img := EncodeKeyImage(sig.I)
			if prev, ok := seen[img]; ok {
				t.Errorf("rows %d and %d share a key image", prev, pi)
			}
			seen[img] = pi
		}
	})

	t.Run("KeyImageMatchesSignature", func(t *testing.T) {
		I, err := e.KeyImage(P[3], rows[3].Secret)
		if err != nil {
			t.Fatalf("KeyImage failed: %v", err)
		}

		sig, err := e.Sign([]byte("m"), P, 3, rows[3].Secret)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}

		if EncodeKeyImage(I) != EncodeKeyImage(sig.I) {
			t.Error("KeyImage should match the image in the signature")
		}
	})

	t.Run("KeyImageRejectsWrongSecret", func(t *testing.T) {
		_, err := e.KeyImage(P[3], rows[2].Secret)
		if !errors.Is(err, ErrInvalidPrivateKey) {
			t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
		}
	})

	t.Run("KeyImageRejectsOtherGroupSecret", func(t *testing.T) {
		x := []curve.Scalar{rows[2].Secret[0], secp256k1Scalar(rows[2].Secret[1])}
		_, err := e.KeyImage(P[2], x)
		if !errors.Is(err, ErrInvalidPrivateKey) {
			t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
		}
	})
}

// secp256k1Scalar carries s's value into a group other than the one the
// tests sign over.
func secp256k1Scalar(s curve.Scalar) curve.Scalar {
	return curve.NewSecp256k1().NewScalar(s.BigInt())
}

func TestTamperedSignatures(t *testing.T) {
	e := newTestEngine(t, "ed25519")
	crv := e.Curve()
	rows, P := newTestRing(t, crv, 5, 2)
	message := []byte("Hello World!")

	sign := func(t *testing.T) *Signature {
		t.Helper()
		sig, err := e.Sign(message, P, 2, rows[2].Secret)
		if err != nil {
			t.Fatalf("Sign failed: %v", err)
		}
		return sig
	}

	expectInvalid := func(t *testing.T, msg []byte, sig *Signature) {
		t.Helper()
		valid, err := e.Verify(msg, P, sig)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if valid {
			t.Error("tampered signature should not verify")
		}
	}

	t.Run("EveryResponse", func(t *testing.T) {
		for k := 0; k < 5; k++ {
			for j := 0; j < 2; j++ {
				sig := sign(t)
				sig.S[k][j] = plusOne(crv, sig.S[k][j])
				expectInvalid(t, message, sig)
			}
		}
	})

	t.Run("Challenge", func(t *testing.T) {
		sig := sign(t)
		sig.C0 = plusOne(crv, sig.C0)
		expectInvalid(t, message, sig)
	})

	t.Run("KeyImage", func(t *testing.T) {
		sig := sign(t)
		sig.I[0] = crv.Add(sig.I[0], crv.Generator())
		expectInvalid(t, message, sig)
	})

	t.Run("WrongMessage", func(t *testing.T) {
		expectInvalid(t, []byte("Bye!"), sign(t))
	})

	t.Run("SwappedRing", func(t *testing.T) {
		sig := sign(t)
		_, other := newTestRing(t, crv, 5, 2)
		valid, err := e.Verify(message, other, sig)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if valid {
			t.Error("signature should not verify against a different ring")
		}
	})
}

func TestSignRejectsBadInput(t *testing.T) {
	e := newTestEngine(t, "ed25519")
	crv := e.Curve()
	rows, P := newTestRing(t, crv, 5, 2)

	t.Run("ForeignKey", func(t *testing.T) {
		foreign, err := GenerateKeyRow(crv, 2)
		if err != nil {
			t.Fatalf("GenerateKeyRow failed: %v", err)
		}
		_, err = e.Sign([]byte("m"), P, 0, foreign.Secret)
		if !errors.Is(err, ErrInvalidPrivateKey) {
			t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
		}
	})

	t.Run("WrongRow", func(t *testing.T) {
		_, err := e.Sign([]byte("m"), P, 1, rows[0].Secret)
		if !errors.Is(err, ErrInvalidPrivateKey) {
			t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
		}
	})

	t.Run("EmptyRowAppended", func(t *testing.T) {
		ragged := append(KeyMatrix{}, P...)
		ragged = append(ragged, []curve.Point{})
		_, err := e.Sign([]byte("m"), ragged, 0, rows[0].Secret)
		if !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("EmptyRing", func(t *testing.T) {
		_, err := e.Sign([]byte("m"), KeyMatrix{}, 0, rows[0].Secret)
		if !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("RowIndexOutOfRange", func(t *testing.T) {
		for _, pi := range []int{-1, 5} {
			_, err := e.Sign([]byte("m"), P, pi, rows[0].Secret)
			if !errors.Is(err, ErrInvalidDecoyShape) {
				t.Errorf("pi=%d: expected ErrInvalidDecoyShape, got %v", pi, err)
			}
		}
	})

	t.Run("SecretRowLength", func(t *testing.T) {
		_, err := e.Sign([]byte("m"), P, 0, rows[0].Secret[:1])
		if !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("OtherGroupSecret", func(t *testing.T) {
		x := []curve.Scalar{rows[1].Secret[0], secp256k1Scalar(rows[1].Secret[1])}
		_, err := e.Sign([]byte("m"), P, 1, x)
		if !errors.Is(err, ErrInvalidPrivateKey) {
			t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
		}
	})

	t.Run("NilRingMember", func(t *testing.T) {
		bad := KeyMatrix{P[0], {P[1][0], nil}}
		_, err := e.Sign([]byte("m"), bad, 0, rows[0].Secret)
		if !errors.Is(err, ErrInvalidPublicKey) {
			t.Errorf("expected ErrInvalidPublicKey, got %v", err)
		}
	})

	t.Run("IdentityRingMember", func(t *testing.T) {
		identity := crv.Sub(P[1][0], P[1][0])
		bad := KeyMatrix{P[0], {identity, P[1][1]}}
		_, err := e.Sign([]byte("m"), bad, 0, rows[0].Secret)
		if !errors.Is(err, ErrInvalidPublicKey) {
			t.Errorf("expected ErrInvalidPublicKey, got %v", err)
		}
	})
}

func TestVerifyRejectsBadShape(t *testing.T) {
	e := newTestEngine(t, "ed25519")
	rows, P := newTestRing(t, e.Curve(), 5, 2)

	sig, err := e.Sign([]byte("m"), P, 0, rows[0].Secret)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	t.Run("EmptyRowAppended", func(t *testing.T) {
		ragged := append(KeyMatrix{}, P...)
		ragged = append(ragged, []curve.Point{})
		_, err := e.Verify([]byte("m"), ragged, sig)
		if !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("FewerRowsThanSignature", func(t *testing.T) {
		_, err := e.Verify([]byte("m"), P[:4], sig)
		if !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("KeyImageLength", func(t *testing.T) {
		short := &Signature{I: sig.I[:1], C0: sig.C0, S: sig.S}
		_, err := e.Verify([]byte("m"), P, short)
		if !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("RaggedResponses", func(t *testing.T) {
		S := append([][]curve.Scalar{}, sig.S...)
		S[3] = S[3][:1]
		_, err := e.Verify([]byte("m"), P, &Signature{I: sig.I, C0: sig.C0, S: S})
		if !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("MissingChallenge", func(t *testing.T) {
		_, err := e.Verify([]byte("m"), P, &Signature{I: sig.I, S: sig.S})
		if !errors.Is(err, ErrMalformedSignature) {
			t.Errorf("expected ErrMalformedSignature, got %v", err)
		}
	})

	t.Run("OtherGroupResponse", func(t *testing.T) {
		S := make([][]curve.Scalar, len(sig.S))
		for k := range sig.S {
			S[k] = append([]curve.Scalar{}, sig.S[k]...)
		}
		S[2][1] = secp256k1Scalar(S[2][1])

		_, err := e.Verify([]byte("m"), P, &Signature{I: sig.I, C0: sig.C0, S: S})
		if !errors.Is(err, ErrMalformedSignature) {
			t.Errorf("expected ErrMalformedSignature, got %v", err)
		}
	})

	t.Run("OtherGroupChallenge", func(t *testing.T) {
		_, err := e.Verify([]byte("m"), P, &Signature{I: sig.I, C0: secp256k1Scalar(sig.C0), S: sig.S})
		if !errors.Is(err, ErrMalformedSignature) {
			t.Errorf("expected ErrMalformedSignature, got %v", err)
		}
	})

	t.Run("IdentityKeyImage", func(t *testing.T) {
		crv := e.Curve()
		I := []curve.Point{crv.Sub(sig.I[0], sig.I[0]), sig.I[1]}
		_, err := e.Verify([]byte("m"), P, &Signature{I: I, C0: sig.C0, S: sig.S})
		if !errors.Is(err, ErrMalformedSignature) {
			t.Errorf("expected ErrMalformedSignature, got %v", err)
		}
	})

	t.Run("NilSignature", func(t *testing.T) {
		_, err := e.Verify([]byte("m"), P, nil)
		if !errors.Is(err, ErrNoSignatureInput) {
			t.Errorf("expected ErrNoSignatureInput, got %v", err)
		}
	})
}

func TestVerifyInput(t *testing.T) {
	e := newTestEngine(t, "secp256k1")
	rows, P := newTestRing(t, e.Curve(), 3, 2)
	message := []byte("Hello World!")

	sig, err := e.Sign(message, P, 1, rows[1].Secret)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	encoded := EncodeSignature(sig)

	t.Run("Structured", func(t *testing.T) {
		valid, err := e.VerifyInput(message, P, VerifyInput{Signature: sig})
		if err != nil || !valid {
			t.Errorf("expected valid, got %v, %v", valid, err)
		}
	})

	t.Run("Encoded", func(t *testing.T) {
		valid, err := e.VerifyInput(message, P, VerifyInput{Encoded: encoded})
		if err != nil || !valid {
			t.Errorf("expected valid, got %v, %v", valid, err)
		}
	})

	t.Run("Both", func(t *testing.T) {
		_, err := e.VerifyInput(message, P, VerifyInput{Signature: sig, Encoded: encoded})
		if !errors.Is(err, ErrAmbiguousSignatureInput) {
			t.Errorf("expected ErrAmbiguousSignatureInput, got %v", err)
		}
	})

	t.Run("Neither", func(t *testing.T) {
		_, err := e.VerifyInput(message, P, VerifyInput{})
		if !errors.Is(err, ErrNoSignatureInput) {
			t.Errorf("expected ErrNoSignatureInput, got %v", err)
		}
	})

	t.Run("NotAString", func(t *testing.T) {
		_, err := e.VerifyInput(message, P, VerifyInput{Encoded: 42})
		if !errors.Is(err, ErrNotAString) {
			t.Errorf("expected ErrNotAString, got %v", err)
		}
	})

	t.Run("VerifyEncoded", func(t *testing.T) {
		valid, err := e.VerifyEncoded([]byte("Bye!"), P, encoded)
		if err != nil {
			t.Fatalf("VerifyEncoded failed: %v", err)
		}
		if valid {
			t.Error("signature should not verify over another message")
		}
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		e, err := NewFromConfig(Config{})
		if err != nil {
			t.Fatalf("NewFromConfig failed: %v", err)
		}
		if e.Curve().Name() != "ed25519" {
			t.Errorf("expected ed25519 default, got %s", e.Curve().Name())
		}
	})

	t.Run("UnknownCurve", func(t *testing.T) {
		if _, err := NewFromConfig(Config{Curve: "p256"}); err == nil {
			t.Error("expected error for unknown curve")
		}
	})

	t.Run("UnknownHash", func(t *testing.T) {
		if _, err := NewFromConfig(Config{Hash: "md5"}); err == nil {
			t.Error("expected error for unknown hash")
		}
	})

	t.Run("EveryHash", func(t *testing.T) {
		for _, h := range []string{"sha3-256", "keccak256", "sha256", "blake2b-512", "shake256-512"} {
			e, err := NewFromConfig(Config{Curve: "ristretto255", Hash: h})
			if err != nil {
				t.Fatalf("NewFromConfig(%s) failed: %v", h, err)
			}

			rows, P := newTestRing(t, e.Curve(), 2, 1)
			sig, err := e.Sign([]byte("m"), P, 1, rows[1].Secret)
			if err != nil {
				t.Fatalf("%s: Sign failed: %v", h, err)
			}
			if valid, err := e.Verify([]byte("m"), P, sig); err != nil || !valid {
				t.Errorf("%s: expected valid signature, got %v, %v", h, valid, err)
			}
		}
	})
}

func TestHashToPointDeterministic(t *testing.T) {
	e := newTestEngine(t, "ed25519")
	_, P := newTestRing(t, e.Curve(), 2, 1)

	a := e.hashToPoint(P[0][0])
	b := e.hashToPoint(P[0][0])
	if !a.Equal(b) {
		t.Error("Hp should be deterministic")
	}

	if a.Equal(e.hashToPoint(P[1][0])) {
		t.Error("Hp should separate distinct points")
	}
}

func TestConcurrentUse(t *testing.T) {
	e := newTestEngine(t, "ed25519")
	rows, P := newTestRing(t, e.Curve(), 3, 2)

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(pi int) {
			defer wg.Done()
			msg := []byte(strings.Repeat("x", pi))
			sig, err := e.Sign(msg, P, pi, rows[pi].Secret)
			if err != nil {
				errs <- err.Error()
				return
			}
			if valid, err := e.Verify(msg, P, sig); err != nil || !valid {
				errs <- "concurrent signature did not verify"
			}
		}(i % 3)
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

// TestEndToEnd runs the five-row, two-column scenario with SHA3-512.
func TestEndToEnd(t *testing.T) {
	e, err := NewFromConfig(Config{Curve: "ed25519", Hash: "sha3-512"})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}

	rows, P := newTestRing(t, e.Curve(), 5, 2)
	pi := 3

	sig, err := e.Sign([]byte("Hello World!"), P, pi, rows[pi].Secret)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	encoded := EncodeSignature(sig)
	if strings.Count(encoded, ",") != 2 || strings.Count(encoded, ";") != 4 {
		t.Fatalf("unexpected wire layout: %s", encoded)
	}

	valid, err := e.VerifyEncoded([]byte("Hello World!"), P, encoded)
	if err != nil {
		t.Fatalf("VerifyEncoded failed: %v", err)
	}
	if !valid {
		t.Fatal("encoded signature should verify")
	}

	again, err := e.Sign([]byte("Bye!"), P, pi, rows[pi].Secret)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if EncodeKeyImage(again.I) != EncodeKeyImage(sig.I) {
		t.Error("signatures by the same row should link")
	}

	sig.S[0][0] = plusOne(e.Curve(), sig.S[0][0])
	if valid, _ := e.Verify([]byte("Hello World!"), P, sig); valid {
		t.Error("tampered signature should not verify")
	}
}
