package mlsag

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/mlsag/mlsag-go/pkg/crypto/curve"
)

func TestSignatureRoundTrip(t *testing.T) {
	for _, name := range curve.SupportedCurves() {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, name)
			rows, P := newTestRing(t, e.Curve(), 5, 2)
			message := []byte("Hello World!")

			sig, err := e.Sign(message, P, 4, rows[4].Secret)
			if err != nil {
				t.Fatalf("Sign failed: %v", err)
			}

			encoded := EncodeSignature(sig)
			decoded, err := e.DecodeSignature(encoded)
			if err != nil {
				t.Fatalf("DecodeSignature failed: %v", err)
			}

			if EncodeSignature(decoded) != encoded {
				t.Error("encode(decode(s)) should reproduce s")
			}

			if decoded.C0.BigInt().Cmp(sig.C0.BigInt()) != 0 {
				t.Error("c0 changed across round trip")
			}
			for j := range sig.I {
				if !decoded.I[j].Equal(sig.I[j]) {
					t.Errorf("key image %d changed across round trip", j)
				}
			}

			valid, err := e.Verify(message, P, decoded)
			if err != nil || !valid {
				t.Errorf("decoded signature should verify, got %v, %v", valid, err)
			}

			upper, err := e.DecodeSignature(strings.ToUpper(encoded))
			if err != nil {
				t.Fatalf("uppercase DecodeSignature failed: %v", err)
			}
			if EncodeSignature(upper) != encoded {
				t.Error("decoding should be case-insensitive")
			}
		})
	}
}

func TestEncodeSignatureLayout(t *testing.T) {
	crv := curve.NewSecp256k1()
	G := crv.Generator()
	twoG := crv.Add(G, G)

	sig := &Signature{
		I:  []curve.Point{G, twoG},
		C0: crv.NewScalar(big.NewInt(0xabc)),
		S: [][]curve.Scalar{
			{crv.NewScalar(big.NewInt(1)), crv.NewScalar(big.NewInt(0))},
			{crv.NewScalar(big.NewInt(255)), crv.NewScalar(big.NewInt(16))},
		},
	}

	want := hex.EncodeToString(G.Bytes()) + ":" + hex.EncodeToString(twoG.Bytes()) + ",abc,1:0;ff:10"
	if got := EncodeSignature(sig); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestDecodeSignatureRejects(t *testing.T) {
	e := newTestEngine(t, "ed25519")
	rows, P := newTestRing(t, e.Curve(), 2, 2)

	sig, err := e.Sign([]byte("m"), P, 0, rows[0].Secret)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	encoded := EncodeSignature(sig)
	parts := strings.Split(encoded, ",")
	order := e.Curve().Order()

	t.Run("NotAString", func(t *testing.T) {
		for _, input := range []any{nil, 42, []byte(encoded), sig} {
			if _, err := e.DecodeSignature(input); !errors.Is(err, ErrNotAString) {
				t.Errorf("%T: expected ErrNotAString, got %v", input, err)
			}
		}
		if ErrNotAString.Error() != "signature must be a string" {
			t.Errorf("unexpected message: %s", ErrNotAString)
		}
	})

	malformed := map[string]string{
		"Empty":           "",
		"TwoSegments":     parts[0] + "," + parts[1],
		"FourSegments":    encoded + ",00",
		"BadPointHex":     "zz" + parts[0][2:] + "," + parts[1] + "," + parts[2],
		"ShortPoint":      parts[0][:10] + "," + parts[1] + "," + parts[2],
		"EmptyChallenge":  parts[0] + ",," + parts[2],
		"SignedChallenge": parts[0] + ",-" + parts[1] + "," + parts[2],
		"ChallengeAtN":    parts[0] + "," + order.Text(16) + "," + parts[2],
		"BadResponseHex":  parts[0] + "," + parts[1] + "," + "xyz:1;2:3",
		"RaggedResponses": parts[0] + "," + parts[1] + "," + "1:2;3",
		"EmptyResponse":   parts[0] + "," + parts[1] + "," + "1:;2:3",
	}

	for name, input := range malformed {
		t.Run(name, func(t *testing.T) {
			if _, err := e.DecodeSignature(input); !errors.Is(err, ErrMalformedSignature) {
				t.Errorf("expected ErrMalformedSignature, got %v", err)
			}
		})
	}

	t.Run("IdentityKeyImage", func(t *testing.T) {
		identity := hex.EncodeToString(e.Curve().Sub(sig.I[0], sig.I[0]).Bytes())
		input := identity + ":" + strings.Split(parts[0], ":")[1] + "," + parts[1] + "," + parts[2]
		if _, err := e.DecodeSignature(input); !errors.Is(err, ErrMalformedSignature) {
			t.Errorf("expected ErrMalformedSignature, got %v", err)
		}
	})
}

func TestKeyMatrixCodec(t *testing.T) {
	e := newTestEngine(t, "ristretto255")
	_, P := newTestRing(t, e.Curve(), 3, 2)

	encoded := EncodeKeyMatrix(P)
	decoded, err := DecodeKeyMatrix(e.Curve(), encoded)
	if err != nil {
		t.Fatalf("DecodeKeyMatrix failed: %v", err)
	}

	for k := range P {
		for j := range P[k] {
			if !decoded[k][j].Equal(P[k][j]) {
				t.Errorf("P[%d][%d] changed across round trip", k, j)
			}
		}
	}

	t.Run("Ragged", func(t *testing.T) {
		ragged := [][]string{encoded[0], encoded[1][:1]}
		if _, err := DecodeKeyMatrix(e.Curve(), ragged); !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if _, err := DecodeKeyMatrix(e.Curve(), nil); !errors.Is(err, ErrInvalidDecoyShape) {
			t.Errorf("expected ErrInvalidDecoyShape, got %v", err)
		}
	})

	t.Run("BadKey", func(t *testing.T) {
		bad := [][]string{{encoded[0][0], "00"}}
		if _, err := DecodeKeyMatrix(e.Curve(), bad); !errors.Is(err, ErrInvalidPublicKey) {
			t.Errorf("expected ErrInvalidPublicKey, got %v", err)
		}
	})
}

func TestDecodeKeyImage(t *testing.T) {
	for _, name := range curve.SupportedCurves() {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, name)
			rows, _ := newTestRing(t, e.Curve(), 1, 3)

			I, err := e.KeyImage(rows[0].Public, rows[0].Secret)
			if err != nil {
				t.Fatalf("KeyImage failed: %v", err)
			}

			encoded := EncodeKeyImage(I)
			decoded, err := e.DecodeKeyImage(strings.ToUpper(encoded))
			if err != nil {
				t.Fatalf("DecodeKeyImage failed: %v", err)
			}

			if EncodeKeyImage(decoded) != encoded {
				t.Error("key image should re-encode to the canonical form")
			}

			if _, err := e.DecodeKeyImage(encoded + ":zz"); !errors.Is(err, ErrMalformedSignature) {
				t.Errorf("expected ErrMalformedSignature, got %v", err)
			}

			if _, err := e.DecodeKeyImage(""); !errors.Is(err, ErrMalformedSignature) {
				t.Errorf("expected ErrMalformedSignature for empty input, got %v", err)
			}
		})
	}
}
