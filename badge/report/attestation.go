package report

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
)

// Attestor signs audit envelopes as ES256K JWTs so downstream systems can
// hold a portable, verifiable receipt of a verification run.
type Attestor struct {
	privKeyHex string
	issuer     string
}

// NewAttestor creates an attestor from a hex secp256k1 private key and an
// issuer identifier placed in the token's iss claim.
func NewAttestor(privKeyHex, issuer string) *Attestor {
	return &Attestor{
		privKeyHex: strings.TrimPrefix(privKeyHex, "0x"),
		issuer:     issuer,
	}
}

// Attest signs the envelope and returns the compact JWT.
func (a *Attestor) Attest(env *Envelope) (string, error) {
	if env == nil {
		return "", fmt.Errorf("envelope is nil")
	}

	// Round-trip through JSON so the claim shape matches the serialized
	// envelope exactly.
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	var envClaim map[string]interface{}
	if err := json.Unmarshal(raw, &envClaim); err != nil {
		return "", fmt.Errorf("failed to rebuild envelope claim: %w", err)
	}

	claims := jwt.MapClaims{
		"iss":      a.issuer,
		"jti":      env.RequestID,
		"envelope": envClaim,
	}

	token := jwt.NewWithClaims(ES256K, claims)
	token.Header["typ"] = "JWT"

	signed, err := token.SignedString(a.privKeyHex)
	if err != nil {
		return "", fmt.Errorf("failed to sign envelope: %w", err)
	}
	return signed, nil
}

// VerifyAttestation checks an attested envelope token against the
// attestor's public key and returns the embedded envelope.
func VerifyAttestation(tokenString string, publicKey *ecdsa.PublicKey) (*Envelope, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != ES256K.Alg() {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return publicKey, nil
	}, jwt.WithValidMethods([]string{ES256K.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to verify attestation: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	rawEnv, ok := claims["envelope"]
	if !ok {
		return nil, fmt.Errorf("attestation is missing the envelope claim")
	}

	encoded, err := json.Marshal(rawEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode envelope claim: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(encoded, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope claim: %w", err)
	}
	return &env, nil
}

// SigningMethodES256K signs and verifies attestation tokens with secp256k1
// over a SHA-256 digest of the signing string.
type SigningMethodES256K struct{}

// Alg identifies the method in the token header.
func (m *SigningMethodES256K) Alg() string {
	return "ES256K"
}

// Sign expects the key as a hex-encoded secp256k1 private key and produces
// the 64-byte R||S signature.
func (m *SigningMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	privKeyHex, ok := key.(string)
	if !ok {
		return nil, fmt.Errorf("invalid key type")
	}

	privKeyBytes, err := hex.DecodeString(privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	privKey, err := crypto.ToECDSA(privKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	hash := sha256.Sum256([]byte(signingString))
	sig, err := crypto.Sign(hash[:], privKey)
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}

	return sig[:64], nil // drop the recovery byte
}

// Verify checks an R||S signature against an *ecdsa.PublicKey.
func (m *SigningMethodES256K) Verify(signingString string, signature []byte, key interface{}) error {
	publicKey, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("invalid key type")
	}
	if len(signature) != 64 {
		return fmt.Errorf("invalid signature length")
	}

	hash := sha256.Sum256([]byte(signingString))
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])

	if !ecdsa.Verify(publicKey, hash[:], r, s) {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}

// ES256K is the signing method attestation tokens are issued with.
var ES256K = &SigningMethodES256K{}

func init() {
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod {
		return ES256K
	})
}
