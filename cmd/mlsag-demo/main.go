package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/mlsag/mlsag-go/pkg/crypto/mlsag"
)

func main() {
	var (
		curveName = flag.String("curve", mlsag.DefaultConfig().Curve, "Group to use")
		hashName  = flag.String("hash", mlsag.DefaultConfig().Hash, "Hash oracle")
		rows      = flag.Int("n", 5, "Ring members")
		cols      = flag.Int("m", 2, "Keys per member")
		message   = flag.String("message", "Hello World!", "Message to sign")
	)
	flag.Parse()

	engine, err := mlsag.NewFromConfig(mlsag.Config{Curve: *curveName, Hash: *hashName})
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("MLSAG Ring Signature Demo")
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Curve: %s  Hash: %s  Ring: %d x %d\n\n", engine.Curve().Name(), *hashName, *rows, *cols)

	// Step 1: Build the ring
	fmt.Println("Step 1: Generating ring members...")
	members, P, err := mlsag.GenerateKeyMatrix(engine.Curve(), *rows, *cols)
	if err != nil {
		log.Fatalf("Failed to generate ring: %v", err)
	}
	for k, row := range mlsag.EncodeKeyMatrix(P) {
		fmt.Printf("  P[%d] = %s\n", k, shorten(strings.Join(row, ":")))
	}

	// Step 2: Every member signs and every signature verifies
	fmt.Println("\nStep 2: Signing from every row...")
	msg := []byte(*message)
	signatures := make([]*mlsag.Signature, len(members))
	for pi, member := range members {
		sig, err := engine.Sign(msg, P, pi, member.Secret)
		if err != nil {
			log.Fatalf("Sign(row %d) failed: %v", pi, err)
		}
		signatures[pi] = sig

		valid, err := engine.Verify(msg, P, sig)
		if err != nil {
			log.Fatalf("Verify(row %d) failed: %v", pi, err)
		}
		fmt.Printf("  row %d: valid=%v key image=%s\n", pi, valid, shorten(mlsag.EncodeKeyImage(sig.I)))
	}

	encoded := mlsag.EncodeSignature(signatures[0])
	fmt.Printf("\n  Encoded signature (%d chars):\n  %s\n", len(encoded), encoded)

	decoded, err := engine.DecodeSignature(encoded)
	if err != nil {
		log.Fatalf("Decode failed: %v", err)
	}
	valid, _ := engine.Verify(msg, P, decoded)
	fmt.Printf("  Round trip through the codec verifies: %v\n", valid)

	// Step 3: Linkability
	fmt.Println("\nStep 3: Linkability...")
	again, err := engine.Sign([]byte("a different message"), P, 0, members[0].Secret)
	if err != nil {
		log.Fatalf("Sign failed: %v", err)
	}
	fmt.Printf("  Same signer, new message, same key image: %v\n",
		mlsag.EncodeKeyImage(again.I) == mlsag.EncodeKeyImage(signatures[0].I))
	if len(members) > 1 {
		fmt.Printf("  Different signers share a key image: %v\n",
			mlsag.EncodeKeyImage(signatures[0].I) == mlsag.EncodeKeyImage(signatures[1].I))
	}

	// Step 4: Tampering
	fmt.Println("\nStep 4: Tamper rejection...")
	report := func(name string, ok bool, err error) {
		fmt.Printf("  %-22s valid=%v err=%v\n", name, ok, err)
	}

	ok, err := engine.Verify([]byte(*message+"!"), P, signatures[0])
	report("altered message", ok, err)

	tampered := *decoded
	tampered.C0 = engine.Curve().NewScalar(new(big.Int).Add(decoded.C0.BigInt(), big.NewInt(1)))
	ok, err = engine.Verify(msg, P, &tampered)
	report("altered c0", ok, err)

	ok, err = engine.VerifyEncoded(msg, P, strings.Replace(encoded, ",", ";", 1))
	report("corrupted encoding", ok, err)

	if len(P) > 1 {
		ok, err = engine.Verify(msg, P[1:], signatures[0])
		report("smaller ring", ok, err)
	}

	fmt.Println("\nDone.")
}

func shorten(s string) string {
	if len(s) <= 48 {
		return s
	}
	return s[:22] + "..." + s[len(s)-22:]
}
