package jwt

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// RingScheme is the scheme identifier carried in the ring claim
const RingScheme = "mlsag"

// DomainSubject is the domain separator for pairwise subject derivation.
// Format: SHA-256(DomainSubject || key image || audience)
const DomainSubject = "mlsag/1/sub"

// TokenSigner defines the interface for JWT signing
type TokenSigner interface {
	// Sign creates a JWT with the given claims
	Sign(claims map[string]interface{}) (string, error)

	// JWKS returns the public keys for JWT verification
	JWKS() jwk.Set

	// Algorithm returns the signing algorithm
	Algorithm() string
}

// TokenVerifier defines the interface for JWT verification
type TokenVerifier interface {
	// Verify verifies a JWT and returns the claims
	Verify(token string, expectedAudience string) (*Claims, error)

	// VerifyWithKey verifies a JWT using a specific key
	VerifyWithKey(token string, expectedAudience string, publicKey interface{}) (*Claims, error)
}

// Claims represents the claims in a ring authentication JWT
type Claims struct {
	Issuer    string                 `json:"iss"`
	Subject   string                 `json:"sub"`
	Audience  string                 `json:"aud"`
	IssuedAt  int64                  `json:"iat"`
	ExpiresAt int64                  `json:"exp"`
	Ring      *RingClaims            `json:"ring,omitempty"` // Ring signature claims
	Extra     map[string]interface{} `json:"-"`              // Additional claims
}

// RingClaims describes how the bearer authenticated. It names the ring but
// never the member.
type RingClaims struct {
	Scheme       string `json:"scheme"`  // "mlsag"
	Group        string `json:"grp"`     // "ed25519", "secp256k1" or "ristretto255"
	RingID       string `json:"ring_id"` // Registered ring the signer belongs to
	Scope        string `json:"scope"`   // Linkability scope
	KeyImageHash string `json:"ki_hash"` // base64url SHA-256 of the encoded key image
}

// ES256Signer implements JWT signing using ECDSA P-256
type ES256Signer struct {
	privateKey *ecdsa.PrivateKey
	keyID      string
	issuer     string
	jwks       jwk.Set
}

// NewES256Signer creates a new ES256 JWT signer
func NewES256Signer(privateKey *ecdsa.PrivateKey, keyID, issuer string) (*ES256Signer, error) {
	publicJWK, err := jwk.FromRaw(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK from public key: %w", err)
	}

	if err := publicJWK.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}

	if err := publicJWK.Set(jwk.AlgorithmKey, "ES256"); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}

	if err := publicJWK.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("failed to set key usage: %w", err)
	}

	jwks := jwk.NewSet()
	if err := jwks.AddKey(publicJWK); err != nil {
		return nil, fmt.Errorf("failed to build JWKS: %w", err)
	}

	return &ES256Signer{
		privateKey: privateKey,
		keyID:      keyID,
		issuer:     issuer,
		jwks:       jwks,
	}, nil
}

// Sign creates a JWT with the given claims
func (s *ES256Signer) Sign(claims map[string]interface{}) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims(claims))
	token.Header["kid"] = s.keyID

	tokenString, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return tokenString, nil
}

// JWKS returns the public keys for JWT verification
func (s *ES256Signer) JWKS() jwk.Set {
	return s.jwks
}

// Algorithm returns the signing algorithm
func (s *ES256Signer) Algorithm() string {
	return "ES256"
}

// Issuer returns the issuer the signer was configured with
func (s *ES256Signer) Issuer() string {
	return s.issuer
}

// JWTVerifier implements JWT verification
type JWTVerifier struct {
	issuerJWKS jwk.Set
}

// NewJWTVerifier creates a new JWT verifier
func NewJWTVerifier(issuerJWKS jwk.Set) *JWTVerifier {
	return &JWTVerifier{
		issuerJWKS: issuerJWKS,
	}
}

// Verify verifies a JWT against the issuer's JWKS and returns the claims
func (v *JWTVerifier) Verify(tokenString string, expectedAudience string) (*Claims, error) {
	return verifyToken(tokenString, expectedAudience, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("missing key ID")
		}

		key, ok := v.issuerJWKS.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("key not found: %s", kid)
		}

		var publicKey interface{}
		if err := key.Raw(&publicKey); err != nil {
			return nil, fmt.Errorf("failed to extract public key: %w", err)
		}

		return publicKey, nil
	})
}

// VerifyWithKey verifies a JWT using a specific key
func (v *JWTVerifier) VerifyWithKey(tokenString string, expectedAudience string, publicKey interface{}) (*Claims, error) {
	return verifyToken(tokenString, expectedAudience, func(*jwt.Token) (interface{}, error) {
		return publicKey, nil
	})
}

// verifyToken parses an ECDSA-signed token, checks its audience and
// structures its claims.
func verifyToken(tokenString, expectedAudience string, keyFunc jwt.Keyfunc) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return keyFunc(token)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid JWT")
	}

	claimsMap := token.Claims.(jwt.MapClaims)

	aud, ok := claimsMap["aud"].(string)
	if !ok {
		return nil, fmt.Errorf("missing audience claim")
	}
	if aud != expectedAudience {
		return nil, fmt.Errorf("invalid audience: expected %s, got %s", expectedAudience, aud)
	}

	return parseClaimsMap(claimsMap)
}

// parseClaimsMap parses JWT claims map into structured Claims
func parseClaimsMap(claimsMap jwt.MapClaims) (*Claims, error) {
	claims := &Claims{
		Extra: make(map[string]interface{}),
	}

	if iss, ok := claimsMap["iss"].(string); ok {
		claims.Issuer = iss
	}

	if sub, ok := claimsMap["sub"].(string); ok {
		claims.Subject = sub
	}

	if aud, ok := claimsMap["aud"].(string); ok {
		claims.Audience = aud
	}

	if iat, ok := claimsMap["iat"].(float64); ok {
		claims.IssuedAt = int64(iat)
	}

	if exp, ok := claimsMap["exp"].(float64); ok {
		claims.ExpiresAt = int64(exp)
	}

	if ringRaw, ok := claimsMap["ring"].(map[string]interface{}); ok {
		claims.Ring = &RingClaims{}
		if scheme, ok := ringRaw["scheme"].(string); ok {
			claims.Ring.Scheme = scheme
		}
		if grp, ok := ringRaw["grp"].(string); ok {
			claims.Ring.Group = grp
		}
		if ringID, ok := ringRaw["ring_id"].(string); ok {
			claims.Ring.RingID = ringID
		}
		if scope, ok := ringRaw["scope"].(string); ok {
			claims.Ring.Scope = scope
		}
		if kiHash, ok := ringRaw["ki_hash"].(string); ok {
			claims.Ring.KeyImageHash = kiHash
		}
	}

	for k, v := range claimsMap {
		switch k {
		case "iss", "sub", "aud", "iat", "exp", "ring":
		default:
			claims.Extra[k] = v
		}
	}

	return claims, nil
}

// RingToken holds the parameters of a ring authentication token
type RingToken struct {
	Issuer   string
	Audience string
	Group    string
	RingID   string
	Scope    string
	KeyImage string // encoded key image
	TTL      time.Duration
}

// MintRingToken creates a JWT for a signer that proved ring membership.
// The subject is a pairwise pseudonym of the key image, stable for the same
// signer and audience.
func MintRingToken(signer TokenSigner, t RingToken) (string, error) {
	now := time.Now()
	kiHash := sha256.Sum256([]byte(t.KeyImage))

	claims := map[string]interface{}{
		"iss": t.Issuer,
		"sub": GeneratePairwiseSubject(t.KeyImage, t.Audience),
		"aud": t.Audience,
		"iat": now.Unix(),
		"exp": now.Add(t.TTL).Unix(),
		"ring": map[string]interface{}{
			"scheme":  RingScheme,
			"grp":     t.Group,
			"ring_id": t.RingID,
			"scope":   t.Scope,
			"ki_hash": base64.RawURLEncoding.EncodeToString(kiHash[:]),
		},
	}

	return signer.Sign(claims)
}

// GeneratePairwiseSubject derives an opaque subject from a key image
func GeneratePairwiseSubject(keyImage string, audience string) string {
	h := sha256.New()
	h.Write([]byte(DomainSubject))
	h.Write([]byte(keyImage))
	h.Write([]byte(audience))

	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
